package llsd_test

import (
	"math"
	"testing"

	. "github.com/lindenlab/go-llsd"
)

func TestAsBooleanCoercions(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"undef", Undef(), false},
		{"false", Boolean(false), false},
		{"true", Boolean(true), true},
		{"integer zero", Integer(0), false},
		{"integer nonzero", Integer(-1), true},
		{"real zero", Real(0), false},
		{"real nonzero", Real(0.5), true},
		{"string empty", String(""), false},
		{"string zero", String("0"), false},
		{"string other", String("false"), true},
		{"zero uuid", UUIDValue(ZeroUUID), false},
		{"epoch date", DateValue(EpochDate), false},
		{"empty binary", Binary(nil), false},
		{"nonempty binary", Binary([]byte{0}), true},
		{"empty array", Array(), false},
		{"nonempty array", Array(Undef()), true},
		{"empty map", Map(), false},
	}
	for _, test := range tests {
		if got := AsBoolean(test.v); got != test.want {
			t.Errorf("%s: AsBoolean = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestAsIntegerCoercions(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want int32
	}{
		{"boolean true", Boolean(true), 1},
		{"boolean false", Boolean(false), 0},
		{"integer", Integer(42), 42},
		{"real truncates", Real(3.9), 3},
		{"string numeric", String("17"), 17},
		{"string non-numeric", String("nope"), 0},
		{"uuid always zero", UUIDValue(ZeroUUID), 0},
		{"array always zero", Array(Integer(9)), 0},
	}
	for _, test := range tests {
		if got := AsInteger(test.v); got != test.want {
			t.Errorf("%s: AsInteger = %d, want %d", test.name, got, test.want)
		}
	}
}

func TestAsStringRoundTripsUUID(t *testing.T) {
	u, perr := ParseUUID([]byte("550e8400-e29b-41d4-a716-446655440000"), 0)
	if perr != nil {
		t.Fatalf("unexpected parse error: %v", perr)
	}
	s := AsString(UUIDValue(u))
	if s != "550e8400-e29b-41d4-a716-446655440000" {
		t.Fatalf("unexpected string form: %q", s)
	}
}

func TestAsStringRealSpecials(t *testing.T) {
	if s := AsString(Real(math.Inf(1))); s != "inf" {
		t.Fatalf("expected inf, got %q", s)
	}
	if s := AsString(Real(math.Inf(-1))); s != "-inf" {
		t.Fatalf("expected -inf, got %q", s)
	}
}

// TestCoercionTotality is spec property 3: every (source kind, target
// coercion) pair must return without error for any value of that kind.
func TestCoercionTotality(t *testing.T) {
	values := []Value{
		Undef(), Boolean(true), Integer(5), Real(2.5), String("x"),
		UUIDValue(ZeroUUID), DateValue(EpochDate), Binary([]byte{1, 2, 3}),
		URIValue("http://x"), Array(Integer(1)), Map(),
	}
	for _, v := range values {
		_ = AsBoolean(v)
		_ = AsInteger(v)
		_ = AsReal(v)
		_ = AsString(v)
		_ = AsUUID(v)
		_ = AsDate(v)
		_ = AsBinary(v)
		_ = AsURI(v)
	}
}
