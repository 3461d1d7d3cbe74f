package llsd_test

import (
	"testing"

	. "github.com/lindenlab/go-llsd"
)

func TestParseUUIDRoundTrip(t *testing.T) {
	const canonical = "550e8400-e29b-41d4-a716-446655440000"
	u, err := ParseUUID([]byte(canonical), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := u.String(); got != canonical {
		t.Fatalf("expected round trip, got %q", got)
	}
}

func TestParseUUIDCaseInsensitive(t *testing.T) {
	u, err := ParseUUID([]byte("550E8400-E29B-41D4-A716-446655440000"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := u.String(); got != "550e8400-e29b-41d4-a716-446655440000" {
		t.Fatalf("expected canonical lower-case form, got %q", got)
	}
}

func TestParseUUIDRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"too-short",
		"550e8400e29b41d4a716446655440000",
		"550e8400-e29b-41d4-a716-44665544000g",
		"550e8400_e29b_41d4_a716_446655440000",
	}
	for _, c := range cases {
		if _, err := ParseUUID([]byte(c), 0); err == nil {
			t.Errorf("expected error for %q", c)
		} else if err.Kind != KindInvalidUUID {
			t.Errorf("%q: expected KindInvalidUUID, got %v", c, err.Kind)
		}
	}
}

func TestZeroUUIDIsZeroAndDistinctFromUndef(t *testing.T) {
	if !ZeroUUID.IsZero() {
		t.Fatal("expected ZeroUUID.IsZero()")
	}
	zeroVal := UUIDValue(ZeroUUID)
	if zeroVal.Kind() != KindUUID {
		t.Fatal("expected zero UUID value to retain KindUUID, not collapse to Undef")
	}
	if zeroVal.Equal(Undef()) {
		t.Fatal("expected zero UUID to not equal Undef")
	}
}
