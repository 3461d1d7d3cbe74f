package llsd_test

import (
	"testing"

	. "github.com/lindenlab/go-llsd"
)

func TestSniffRecognizesWireForms(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"xml", `<?xml version="1.0" ?><llsd><undef/></llsd>`, "xml"},
		{"binary header", "<?llsd/binary ?>\ni\x00\x00\x00\x01", "binary"},
		{"notation header", "<?llsd/notation ?>\ni1", "notation"},
		{"headerless binary-ish array", "[", "notation"},
		{"headerless integer", "i1", "notation"},
		{"headerless quoted string", `"hi"`, "notation"},
	}
	for _, test := range tests {
		got, err := Sniff([]byte(test.data))
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: expected %q, got %q", test.name, test.want, got)
		}
	}
}

func TestSniffUnknownFormat(t *testing.T) {
	_, err := Sniff([]byte("@@@not anything@@@"))
	if err == nil {
		t.Fatal("expected an error for unrecognized input")
	}
	lerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if lerr.Kind != KindUnknownFormat {
		t.Fatalf("expected KindUnknownFormat, got %v", lerr.Kind)
	}
}

func TestParseDispatchesAcrossAllThreeForms(t *testing.T) {
	binEnc, err := FormatBinary(Integer(7), EncodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	xmlEnc, err := FormatXML(Integer(7), EncodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	notEnc, err := FormatNotation(Integer(7), EncodeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, enc := range [][]byte{binEnc, xmlEnc, notEnc} {
		v, perr := Parse(enc, DecodeOptions{})
		if perr != nil {
			t.Fatalf("unexpected parse error for %q: %v", enc, perr)
		}
		if v.Kind() != KindInteger || v.IntegerValue() != 7 {
			t.Fatalf("expected Integer(7), got %v", v)
		}
	}
}

func TestFormatDispatchesByName(t *testing.T) {
	for _, format := range []string{"binary", "xml", "notation"} {
		if _, err := Format(Integer(1), format, EncodeOptions{}); err != nil {
			t.Errorf("format %q: unexpected error: %v", format, err)
		}
	}
	if _, err := Format(Integer(1), "nonsense", EncodeOptions{}); err == nil {
		t.Error("expected an error for an unrecognized format name")
	}
}
