package llsd

import "fmt"

// Kind identifies the category of an Error. Every decode or encode failure
// in this package carries exactly one Kind, per the single-error-model
// design (spec §7): callers branch on Kind rather than on error identity.
type Kind int

const (
	// KindTruncated occurs when the input ends before a declared length or
	// container count is satisfied, or while a container is still open.
	KindTruncated Kind = iota + 1

	// KindUnexpectedByte occurs when a byte does not match any tag/sigil
	// the active codec recognizes at the current position.
	KindUnexpectedByte

	// KindUnexpectedElement occurs when an XML element appears somewhere
	// its grammar position forbids (a <key> outside <map>, a value where a
	// key was expected, a value element outside <llsd>).
	KindUnexpectedElement

	// KindUnexpectedTerminator occurs when a binary container's count is
	// satisfied but the next byte is not its ']' or '}' terminator, or when
	// an XML end element appears with no open container. Reaching EOF with
	// open containers is KindTruncated.
	KindUnexpectedTerminator

	// KindInvalidUTF8 occurs when string or map-key bytes are not valid
	// UTF-8.
	KindInvalidUTF8

	// KindInvalidBase64 occurs when base64 payload bytes (outside
	// whitespace) fall outside the RFC 4648 alphabet.
	KindInvalidBase64

	// KindInvalidUUID occurs when UUID text is not exactly five hyphenated
	// hex groups of 8-4-4-4-12.
	KindInvalidUUID

	// KindInvalidDate occurs when date text does not match
	// YYYY-MM-DDTHH:MM:SS[.ffffff]Z.
	KindInvalidDate

	// KindInvalidBoolean occurs when the text of an XML <boolean> element is
	// not true, false, 1, 0, or empty.
	KindInvalidBoolean

	// KindInvalidNumber occurs when integer/real literal text cannot be
	// parsed as a number at all (distinct from the saturating/defaulting
	// coercion rules in §4.A, which never error).
	KindInvalidNumber

	// KindLengthTooLarge occurs when a declared length exceeds the
	// implementation's maximum representable size.
	KindLengthTooLarge

	// KindSizedLengthMismatch occurs when a notation sized string/binary's
	// declared byte count does not line up with its closing delimiter.
	KindSizedLengthMismatch

	// KindForbiddenConstruct occurs when the XML codec encounters a
	// DOCTYPE, external/parameter entity, or a processing instruction
	// other than the leading XML declaration.
	KindForbiddenConstruct

	// KindResourceLimit occurs when a caller-supplied max depth or max
	// byte budget is exceeded.
	KindResourceLimit

	// KindUnknownFormat occurs when the dispatcher's sniff window matches
	// none of the three wire forms.
	KindUnknownFormat

	// KindCycleDetected occurs only during encoding, when a caller
	// constructed Value graph revisits a container already on the
	// current encode path.
	KindCycleDetected

	// KindSinkError occurs only during encoding, wrapping an I/O error
	// returned by the caller's sink.
	KindSinkError
)

func (k Kind) String() string {
	switch k {
	case KindTruncated:
		return "Truncated"
	case KindUnexpectedByte:
		return "UnexpectedByte"
	case KindUnexpectedElement:
		return "UnexpectedElement"
	case KindUnexpectedTerminator:
		return "UnexpectedTerminator"
	case KindInvalidUTF8:
		return "InvalidUTF8"
	case KindInvalidBase64:
		return "InvalidBase64"
	case KindInvalidUUID:
		return "InvalidUUID"
	case KindInvalidDate:
		return "InvalidDate"
	case KindInvalidBoolean:
		return "InvalidBoolean"
	case KindInvalidNumber:
		return "InvalidNumber"
	case KindLengthTooLarge:
		return "LengthTooLarge"
	case KindSizedLengthMismatch:
		return "SizedLengthMismatch"
	case KindForbiddenConstruct:
		return "ForbiddenConstruct"
	case KindResourceLimit:
		return "ResourceLimit"
	case KindUnknownFormat:
		return "UnknownFormat"
	case KindCycleDetected:
		return "CycleDetected"
	case KindSinkError:
		return "SinkError"
	}
	return "Unknown"
}

// Error is the single error type every public entry point in this package
// returns. Offset is the byte offset into the original input at which the
// problem was detected; Path is populated by the XML codec with a
// slash-separated element path and is empty for the binary and notation
// codecs.
type Error struct {
	Kind    Kind
	Offset  int
	Path    string
	Message string

	// wrapped, when non-nil, is a lower-level error this Error was built
	// from (e.g. a sink's io.Writer error for KindSinkError).
	wrapped error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("llsd: %s at offset %d (%s): %s", e.Kind, e.Offset, e.Path, e.Message)
	}
	return fmt.Sprintf("llsd: %s at offset %d: %s", e.Kind, e.Offset, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, &llsd.Error{Kind: llsd.KindTruncated}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(kind Kind, offset int, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func newErrPath(kind Kind, offset int, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Path: path, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, offset int, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...), wrapped: err}
}
