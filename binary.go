package llsd

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// binaryHeader is the optional header line that may precede a binary
// document (spec §4.E). Decode skips it if present; Encode always writes
// it.
var binaryHeader = []byte("<?llsd/binary ?>\n")

// maxDeclaredLength bounds a single 4-byte length/count field so a
// corrupt or hostile declared size fails fast as KindLengthTooLarge rather
// than triggering a multi-gigabyte allocation attempt.
const maxDeclaredLength = uint32(math.MaxInt32)

// ParseBinary decodes the length-prefixed binary wire form (spec §4.E).
func ParseBinary(data []byte, opts DecodeOptions) (Value, error) {
	pos := 0
	if bytes.HasPrefix(data, binaryHeader) {
		pos = len(binaryHeader)
	}
	g := newGuard(opts)
	r := &binReader{data: data, pos: pos, g: g}
	v, err := decodeBinaryValue(r, g)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

// binReader is a forward-only cursor over a decode buffer. g enforces the
// caller's byte budget (spec §4.L: "returning ResourceLimit the instant
// either bound is crossed") at every read.
type binReader struct {
	data []byte
	pos  int
	g    *guard
}

func (r *binReader) readByte() (byte, int, *Error) {
	pos := r.pos
	if pos >= len(r.data) {
		return 0, pos, newErr(KindTruncated, pos, "unexpected end of input")
	}
	r.pos++
	if err := r.g.checkBytes(r.pos); err != nil {
		return 0, pos, err
	}
	return r.data[pos], pos, nil
}

func (r *binReader) readN(n int) ([]byte, int, *Error) {
	pos := r.pos
	if n < 0 || pos+n > len(r.data) {
		return nil, pos, newErr(KindTruncated, pos, "need %d bytes, have %d", n, len(r.data)-pos)
	}
	r.pos += n
	if err := r.g.checkBytes(r.pos); err != nil {
		return nil, pos, err
	}
	return r.data[pos : pos+n], pos, nil
}

func (r *binReader) readU32() (uint32, int, *Error) {
	b, pos, err := r.readN(4)
	if err != nil {
		return 0, pos, err
	}
	v := binary.BigEndian.Uint32(b)
	if v > maxDeclaredLength {
		return 0, pos, newErr(KindLengthTooLarge, pos, "declared length %d exceeds maximum %d", v, maxDeclaredLength)
	}
	return v, pos, nil
}

func (r *binReader) expectByte(want byte) *Error {
	b, pos, err := r.readByte()
	if err != nil {
		return err
	}
	if b != want {
		return newErr(KindUnexpectedTerminator, pos, "expected %q terminator, got %q", want, b)
	}
	return nil
}

// binFrame is one pending container on the decoder's explicit work stack
// (spec §9: "Recursive grammars -> explicit stacks").
type binFrame struct {
	kind      ValueKind // KindArray or KindMap
	remaining uint32
	arr       []Value
	m         *orderedMap
	haveKey   bool
	key       string
}

func attachBinary(f *binFrame, v Value) {
	if f.kind == KindArray {
		f.arr = append(f.arr, v)
	} else {
		f.m.set(f.key, v)
		f.haveKey = false
	}
	f.remaining--
}

// decodeBinaryValue runs the iterative binary parser state machine: a
// single loop over an explicit stack of in-progress containers, never
// recursing natively regardless of input nesting depth.
func decodeBinaryValue(r *binReader, g *guard) (Value, *Error) {
	var stack []*binFrame

	for {
		// Close out any container(s) at the top of the stack whose
		// expected count has already been satisfied (this also handles
		// freshly-opened empty containers, whose remaining is 0).
		for len(stack) > 0 && stack[len(stack)-1].remaining == 0 {
			top := stack[len(stack)-1]
			want := byte(']')
			if top.kind == KindMap {
				want = '}'
			}
			if err := r.expectByte(want); err != nil {
				return Value{}, err
			}
			g.leave()

			var closed Value
			if top.kind == KindArray {
				closed = Value{kind: KindArray, array: top.arr}
			} else {
				closed = Value{kind: KindMap, mapv: top.m}
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return closed, nil
			}
			attachBinary(stack[len(stack)-1], closed)
		}

		if len(stack) > 0 && stack[len(stack)-1].kind == KindMap && !stack[len(stack)-1].haveKey {
			key, err := readBinaryKey(r)
			if err != nil {
				return Value{}, err
			}
			top := stack[len(stack)-1]
			top.key = key
			top.haveKey = true
			continue
		}

		val, opened, err := readBinaryScalarOrOpen(r, g)
		if err != nil {
			return Value{}, err
		}
		if opened != nil {
			stack = append(stack, opened)
			continue
		}
		if len(stack) == 0 {
			return val, nil
		}
		attachBinary(stack[len(stack)-1], val)
	}
}

// readBinaryKey reads one map-entry key: the 'k' tag, a 4-byte length, and
// its UTF-8 bytes.
func readBinaryKey(r *binReader) (string, *Error) {
	tag, pos, err := r.readByte()
	if err != nil {
		return "", err
	}
	if tag != 'k' {
		return "", newErr(KindUnexpectedByte, pos, "expected 'k' map key tag, got %q", tag)
	}
	n, _, err := r.readU32()
	if err != nil {
		return "", err
	}
	b, strPos, err := r.readN(int(n))
	if err != nil {
		return "", err
	}
	if !validUTF8(string(b)) {
		return "", newErr(KindInvalidUTF8, strPos, "map key is not valid UTF-8")
	}
	return string(b), nil
}

// readBinaryScalarOrOpen reads one tag-dispatched value. If the tag opens
// a container, it returns a fresh *binFrame (and a zero Value) that the
// caller must push; otherwise it returns a completed scalar/string value.
func readBinaryScalarOrOpen(r *binReader, g *guard) (Value, *binFrame, *Error) {
	tag, pos, err := r.readByte()
	if err != nil {
		return Value{}, nil, err
	}

	switch tag {
	case '!':
		return Undef(), nil, nil
	case '1':
		return Boolean(true), nil, nil
	case '0':
		return Boolean(false), nil, nil
	case 'i':
		b, _, err := r.readN(4)
		if err != nil {
			return Value{}, nil, err
		}
		return Integer(int32(binary.BigEndian.Uint32(b))), nil, nil
	case 'r':
		b, _, err := r.readN(8)
		if err != nil {
			return Value{}, nil, err
		}
		return Real(math.Float64frombits(binary.BigEndian.Uint64(b))), nil, nil
	case 'd':
		b, _, err := r.readN(8)
		if err != nil {
			return Value{}, nil, err
		}
		sec := math.Float64frombits(binary.BigEndian.Uint64(b))
		return DateValue(DateFromSeconds(sec)), nil, nil
	case 'u':
		b, _, err := r.readN(16)
		if err != nil {
			return Value{}, nil, err
		}
		var u UUID
		copy(u[:], b)
		return UUIDValue(u), nil, nil
	case 'b':
		n, _, err := r.readU32()
		if err != nil {
			return Value{}, nil, err
		}
		b, _, err := r.readN(int(n))
		if err != nil {
			return Value{}, nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return Binary(out), nil, nil
	case 's':
		s, strPos, err := readBinaryLengthPrefixedString(r)
		if err != nil {
			return Value{}, nil, err
		}
		if !validUTF8(s) {
			return Value{}, nil, newErr(KindInvalidUTF8, strPos, "string is not valid UTF-8")
		}
		return String(s), nil, nil
	case 'l':
		s, strPos, err := readBinaryLengthPrefixedString(r)
		if err != nil {
			return Value{}, nil, err
		}
		if !validUTF8(s) {
			return Value{}, nil, newErr(KindInvalidUTF8, strPos, "uri is not valid UTF-8")
		}
		return URIValue(s), nil, nil
	case '\'', '"':
		// Legacy inline quoted string, accepted on decode only (spec §9
		// Open Question); the encoder never emits this form.
		s, newPos, err := parseCStyleQuoted(r.data, r.pos, tag, pos)
		if err != nil {
			return Value{}, nil, err
		}
		r.pos = newPos
		if err := r.g.checkBytes(r.pos); err != nil {
			return Value{}, nil, err
		}
		return String(s), nil, nil
	case '[':
		n, _, err := r.readU32()
		if err != nil {
			return Value{}, nil, err
		}
		if gerr := g.enter(pos); gerr != nil {
			return Value{}, nil, gerr
		}
		return Value{}, &binFrame{kind: KindArray, remaining: n, arr: make([]Value, 0, minInt(int(n), 64))}, nil
	case '{':
		n, _, err := r.readU32()
		if err != nil {
			return Value{}, nil, err
		}
		if gerr := g.enter(pos); gerr != nil {
			return Value{}, nil, gerr
		}
		return Value{}, &binFrame{kind: KindMap, remaining: n, m: newOrderedMap()}, nil
	default:
		return Value{}, nil, newErr(KindUnexpectedByte, pos, "unrecognized binary tag %q", tag)
	}
}

func readBinaryLengthPrefixedString(r *binReader) (string, int, *Error) {
	n, _, err := r.readU32()
	if err != nil {
		return "", 0, err
	}
	b, pos, err := r.readN(int(n))
	if err != nil {
		return "", 0, err
	}
	return string(b), pos, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// FormatBinary encodes v as the length-prefixed binary wire form.
func FormatBinary(v Value, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeBinary(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeBinary writes v to w as the binary wire form.
func EncodeBinary(w io.Writer, v Value, _ EncodeOptions) error {
	if _, err := w.Write(binaryHeader); err != nil {
		return wrapErr(KindSinkError, 0, err, "writing binary header")
	}
	enc := &binEncoder{w: w, visiting: make(map[*orderedMap]bool)}
	if err := enc.encode(v); err != nil {
		return err
	}
	return nil
}

type binEncoder struct {
	w        io.Writer
	visiting map[*orderedMap]bool
}

func (e *binEncoder) write(b []byte) *Error {
	if _, err := e.w.Write(b); err != nil {
		return wrapErr(KindSinkError, 0, err, "writing binary output")
	}
	return nil
}

func (e *binEncoder) encode(v Value) *Error {
	switch v.kind {
	case KindUndef:
		return e.write([]byte{'!'})
	case KindBoolean:
		if v.boolean {
			return e.write([]byte{'1'})
		}
		return e.write([]byte{'0'})
	case KindInteger:
		var b [5]byte
		b[0] = 'i'
		binary.BigEndian.PutUint32(b[1:], uint32(v.integer))
		return e.write(b[:])
	case KindReal:
		var b [9]byte
		b[0] = 'r'
		binary.BigEndian.PutUint64(b[1:], math.Float64bits(v.real))
		return e.write(b[:])
	case KindDate:
		var b [9]byte
		b[0] = 'd'
		binary.BigEndian.PutUint64(b[1:], math.Float64bits(v.date.Seconds()))
		return e.write(b[:])
	case KindUUID:
		var b [17]byte
		b[0] = 'u'
		copy(b[1:], v.uuid[:])
		return e.write(b[:])
	case KindBinary:
		return e.writeLengthTagged('b', v.binary)
	case KindString:
		return e.writeLengthTagged('s', []byte(v.str))
	case KindURI:
		return e.writeLengthTagged('l', []byte(v.str))
	case KindArray:
		if err := e.write([]byte{'['}); err != nil {
			return err
		}
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(v.array)))
		if err := e.write(n[:]); err != nil {
			return err
		}
		for _, elem := range v.array {
			if err := e.encode(elem); err != nil {
				return err
			}
		}
		return e.write([]byte{']'})
	case KindMap:
		if v.mapv != nil {
			if e.visiting[v.mapv] {
				return newErr(KindCycleDetected, 0, "map value references itself")
			}
			e.visiting[v.mapv] = true
			defer delete(e.visiting, v.mapv)
		}
		if err := e.write([]byte{'{'}); err != nil {
			return err
		}
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(v.Len()))
		if err := e.write(n[:]); err != nil {
			return err
		}
		if v.mapv != nil {
			for _, ent := range v.mapv.entries {
				if err := e.writeLengthTagged('k', []byte(ent.key)); err != nil {
					return err
				}
				if err := e.encode(ent.value); err != nil {
					return err
				}
			}
		}
		return e.write([]byte{'}'})
	default:
		return newErr(KindUnexpectedByte, 0, "unknown value kind %d", v.kind)
	}
}

func (e *binEncoder) writeLengthTagged(tag byte, data []byte) *Error {
	var head [5]byte
	head[0] = tag
	binary.BigEndian.PutUint32(head[1:], uint32(len(data)))
	if err := e.write(head[:]); err != nil {
		return err
	}
	return e.write(data)
}
