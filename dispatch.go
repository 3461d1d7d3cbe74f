package llsd

import "bytes"

// sniffWindow bounds how many leading bytes the dispatcher inspects before
// choosing a codec (spec §4.H: "never consumes more than it needs ... does
// not rewind behavior beyond the 64-byte sniff window").
const sniffWindow = 64

// binaryTagSet holds the binary codec's leading tag bytes (spec §4.E),
// used to recognize a headerless binary document during sniffing.
var binaryTagSet = map[byte]bool{
	'!': true, '1': true, '0': true, 'i': true, 'r': true, 'u': true,
	'b': true, 's': true, 'l': true, 'd': true, 'k': true, '[': true, '{': true,
}

// notationSigilSet holds the notation codec's leading sigil bytes (spec
// §4.G), used to recognize a headerless notation document during
// sniffing.
var notationSigilSet = map[byte]bool{
	'!': true, '1': true, '0': true, 't': true, 'T': true, 'f': true, 'F': true,
	'i': true, 'r': true, 'u': true, 'b': true, 's': true, 'l': true, 'd': true,
	'[': true, '{': true, '"': true, '\'': true,
}

// Sniff inspects data's leading bytes (up to the 64-byte sniff window, spec
// §4.H) and reports which wire form Parse would dispatch to: "binary",
// "xml", or "notation". It returns KindUnknownFormat if none match.
func Sniff(data []byte) (string, error) {
	window := data
	if len(window) > sniffWindow {
		window = window[:sniffWindow]
	}
	trimmed := bytes.TrimLeft(window, " \t\r\n")

	switch {
	case bytes.HasPrefix(trimmed, []byte("<?xml")):
		return "xml", nil
	case bytes.HasPrefix(trimmed, binaryHeader[:len(binaryHeader)-1]):
		return "binary", nil
	case bytes.HasPrefix(trimmed, notationHeader[:len(notationHeader)-1]):
		return "notation", nil
	case len(trimmed) > 0 && trimmed[0] == '<':
		return "", newErr(KindUnknownFormat, 0, "leading '<' does not match any recognized wire form")
	case len(trimmed) > 0 && notationSigilSet[trimmed[0]]:
		return "notation", nil
	case len(trimmed) > 0 && binaryTagSet[trimmed[0]]:
		return "binary", nil
	default:
		return "", newErr(KindUnknownFormat, 0, "input matches no recognized wire form")
	}
}

// Parse sniffs data's leading bytes and dispatches to the matching codec
// (spec §4.H). opts is forwarded to whichever decoder is chosen.
func Parse(data []byte, opts DecodeOptions) (Value, error) {
	format, err := Sniff(data)
	if err != nil {
		return Value{}, err
	}
	switch format {
	case "xml":
		return ParseXML(data, opts)
	case "binary":
		return ParseBinary(data, opts)
	case "notation":
		return ParseNotation(data, opts)
	default:
		return Value{}, newErr(KindUnknownFormat, 0, "input matches no recognized wire form")
	}
}

// Format encodes v using the codec named by format ("binary", "xml", or
// "notation").
func Format(v Value, format string, opts EncodeOptions) ([]byte, error) {
	switch format {
	case "binary":
		return FormatBinary(v, opts)
	case "xml":
		return FormatXML(v, opts)
	case "notation":
		return FormatNotation(v, opts)
	default:
		return nil, newErr(KindUnknownFormat, 0, "unrecognized format %q", format)
	}
}
