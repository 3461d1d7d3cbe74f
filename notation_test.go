package llsd_test

import (
	"testing"

	. "github.com/lindenlab/go-llsd"
)

func TestNotationArrayRoundTrip(t *testing.T) {
	v, err := ParseNotation([]byte("[i1,i2,i3]"), DecodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Array(Integer(1), Integer(2), Integer(3))
	if !v.Equal(want) {
		t.Fatalf("expected %v, got %v", want, v)
	}

	encoded, ferr := FormatNotation(v, EncodeOptions{})
	if ferr != nil {
		t.Fatalf("unexpected encode error: %v", ferr)
	}
	if string(encoded) != "[i1,i2,i3]" {
		t.Fatalf("expected exact round trip, got %q", encoded)
	}
}

func TestNotationStringFormsDecodeToSameValue(t *testing.T) {
	sized, err := ParseNotation([]byte(`s(5)"hello"`), DecodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error on sized form: %v", err)
	}
	quoted, err := ParseNotation([]byte(`"hello"`), DecodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error on quoted form: %v", err)
	}
	if !sized.Equal(quoted) || sized.StringValue() != "hello" {
		t.Fatalf("expected both forms to decode to String(hello), got %v and %v", sized, quoted)
	}
}

func TestNotationStringEncoderPicksShorterForm(t *testing.T) {
	encoded, err := FormatNotation(String("hello"), EncodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(encoded) != `"hello"` {
		t.Fatalf(`expected the quoted form "hello", got %q`, encoded)
	}
}

func TestNotationDateRoundTrip(t *testing.T) {
	v, err := ParseNotation([]byte(`d"2009-01-01T20:00:10.100000Z"`), DecodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != KindDate {
		t.Fatalf("expected KindDate, got %v", v.Kind())
	}
	encoded, ferr := FormatNotation(v, EncodeOptions{})
	if ferr != nil {
		t.Fatalf("unexpected encode error: %v", ferr)
	}
	if string(encoded) != `d"2009-01-01T20:00:10.100000Z"` {
		t.Fatalf("expected exact round trip, got %q", encoded)
	}
}

func TestNotationMapRoundTrip(t *testing.T) {
	m := Map()
	m.MapSet("name", String("llsd"))
	m.MapSet("count", Integer(3))

	encoded, err := FormatNotation(m, EncodeOptions{})
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	decoded, derr := ParseNotation(encoded, DecodeOptions{})
	if derr != nil {
		t.Fatalf("unexpected decode error: %v", derr)
	}
	if !decoded.Equal(m) {
		t.Fatalf("expected round trip, got %v", decoded)
	}
}

func TestNotationBinaryLiteralForms(t *testing.T) {
	b64, err := ParseNotation([]byte(`b64"aGk="`), DecodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error decoding b64: %v", err)
	}
	if string(b64.BinaryValue()) != "hi" {
		t.Fatalf("expected decoded bytes 'hi', got %q", b64.BinaryValue())
	}

	b16, err := ParseNotation([]byte(`b16"6869"`), DecodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error decoding b16: %v", err)
	}
	if string(b16.BinaryValue()) != "hi" {
		t.Fatalf("expected decoded bytes 'hi', got %q", b16.BinaryValue())
	}

	sized, err := ParseNotation([]byte(`b(2)"hi"`), DecodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error decoding sized binary: %v", err)
	}
	if string(sized.BinaryValue()) != "hi" {
		t.Fatalf("expected decoded bytes 'hi', got %q", sized.BinaryValue())
	}
}

func TestNotationSizedLengthMismatch(t *testing.T) {
	_, err := ParseNotation([]byte(`b(3)"hi"`), DecodeOptions{})
	if err == nil {
		t.Fatal("expected an error for mismatched sized length")
	}
	lerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if lerr.Kind != KindSizedLengthMismatch {
		t.Fatalf("expected KindSizedLengthMismatch, got %v", lerr.Kind)
	}
}

func TestNotationNestingBeyondMaxDepthIsResourceLimit(t *testing.T) {
	_, err := ParseNotation([]byte("[[[i1]]]"), DecodeOptions{MaxDepth: 2})
	if err == nil {
		t.Fatal("expected an error exceeding max depth")
	}
	lerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if lerr.Kind != KindResourceLimit {
		t.Fatalf("expected KindResourceLimit, got %v", lerr.Kind)
	}
}

func TestNotationMalformedInputsNeverPanic(t *testing.T) {
	cases := []string{
		"",
		"[",
		"{",
		"[i1",
		`"unterminated`,
		"i",
		"ixyz",
		`b(99999)"short"`,
		"u12345",
		`d"not-a-date"`,
		"q",
	}
	for _, c := range cases {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("input %q: ParseNotation panicked: %v", c, r)
				}
			}()
			_, _ = ParseNotation([]byte(c), DecodeOptions{})
		}()
	}
}
