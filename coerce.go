package llsd

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// This file implements the coercion table of spec §4.A: eight pure, total
// functions, one per target kind, each switching on the source Value's
// Kind. None of these ever return an error; an incompatible source kind
// always yields the documented default for that arm.

// AsBoolean implements the as_boolean coercion.
func AsBoolean(v Value) bool {
	switch v.kind {
	case KindBoolean:
		return v.boolean
	case KindInteger:
		return v.integer != 0
	case KindReal:
		return v.real != 0 && v.real == v.real // exclude NaN
	case KindString:
		return v.str != "" && v.str != "0"
	case KindUUID:
		return !v.uuid.IsZero()
	case KindDate:
		return !v.date.IsEpoch()
	case KindBinary:
		return len(v.binary) > 0
	case KindURI:
		return v.str != ""
	case KindArray:
		return len(v.array) > 0
	case KindMap:
		return v.Len() > 0
	default: // KindUndef
		return false
	}
}

// AsInteger implements the as_integer coercion.
func AsInteger(v Value) int32 {
	switch v.kind {
	case KindBoolean:
		if v.boolean {
			return 1
		}
		return 0
	case KindInteger:
		return v.integer
	case KindReal:
		return realToInt32(v.real)
	case KindString:
		return parseIntDefault(v.str)
	case KindUUID:
		return 0
	case KindDate:
		return realToInt32(math.Trunc(v.date.Seconds()))
	case KindBinary:
		if len(v.binary) < 4 {
			return 0
		}
		return int32(binary.BigEndian.Uint32(v.binary[:4]))
	default: // Undef, URI, Array, Map
		return 0
	}
}

func realToInt32(f float64) int32 {
	if f != f { // NaN
		return 0
	}
	t := math.Trunc(f)
	if t >= math.MaxInt32 {
		return math.MaxInt32
	}
	if t <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(t)
}

func parseIntDefault(s string) int32 {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

// AsReal implements the as_real coercion.
func AsReal(v Value) float64 {
	switch v.kind {
	case KindBoolean:
		if v.boolean {
			return 1
		}
		return 0
	case KindInteger:
		return float64(v.integer)
	case KindReal:
		return v.real
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0
		}
		return f
	case KindUUID:
		return 0
	case KindDate:
		return v.date.Seconds()
	case KindBinary:
		if len(v.binary) < 8 {
			return 0
		}
		return math.Float64frombits(binary.BigEndian.Uint64(v.binary[:8]))
	default: // Undef, URI, Array, Map
		return 0
	}
}

// AsString implements the as_string coercion: the canonical textual
// rendering of v.
func AsString(v Value) string {
	switch v.kind {
	case KindBoolean:
		if v.boolean {
			return "true"
		}
		return ""
	case KindInteger:
		return strconv.FormatInt(int64(v.integer), 10)
	case KindReal:
		return formatReal(v.real)
	case KindString:
		return v.str
	case KindUUID:
		return v.uuid.String()
	case KindDate:
		return v.date.Format()
	case KindBinary:
		return encodeBase64(v.binary)
	case KindURI:
		return v.str
	default: // Undef, Array, Map
		return ""
	}
}

// formatReal renders a float64 in shortest round-trip decimal form, with
// NaN/Infinity spelled the way the notation and XML codecs spell them.
func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// AsUUID implements the as_uuid coercion.
func AsUUID(v Value) UUID {
	switch v.kind {
	case KindUUID:
		return v.uuid
	case KindString:
		if u, err := ParseUUID([]byte(v.str), 0); err == nil {
			return u
		}
		return ZeroUUID
	default:
		return ZeroUUID
	}
}

// AsDate implements the as_date coercion.
func AsDate(v Value) Date {
	switch v.kind {
	case KindDate:
		return v.date
	case KindString:
		if d, err := ParseDate([]byte(v.str), 0); err == nil {
			return d
		}
		return EpochDate
	default:
		return EpochDate
	}
}

// AsBinary implements the as_binary coercion.
func AsBinary(v Value) []byte {
	switch v.kind {
	case KindBinary:
		return v.binary
	case KindString:
		if b, err := decodeBase64([]byte(v.str), 0); err == nil {
			return b
		}
		return nil
	default:
		return nil
	}
}

// AsURI implements the as_uri coercion.
func AsURI(v Value) string {
	switch v.kind {
	case KindURI:
		return v.str
	case KindString:
		return v.str
	default:
		return ""
	}
}
