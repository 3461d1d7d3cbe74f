package llsd

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ParseXML decodes the XML wire form (spec §4.F): a fixed prolog wrapping
// exactly one value element in <llsd>...</llsd>.
func ParseXML(data []byte, opts DecodeOptions) (Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = nil // undeclared entities fail closed rather than resolving

	if err := xmlSkipToRoot(dec); err != nil {
		return Value{}, err
	}
	g := newGuard(opts)
	v, err := decodeXMLValue(dec, g)
	if err != nil {
		return Value{}, err
	}
	if err := xmlExpectRootClose(dec); err != nil {
		return Value{}, err
	}
	if err := g.checkBytes(int(dec.InputOffset())); err != nil {
		return Value{}, err
	}
	return v, nil
}

// xmlSkipToRoot consumes the prolog up to and including the <llsd> start
// tag, rejecting any DOCTYPE/directive or non-xml-declaration processing
// instruction along the way (spec §4.F: "External entities, DOCTYPE, and
// processing instructions other than the XML declaration are rejected").
func xmlSkipToRoot(dec *xml.Decoder) *Error {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return newErr(KindTruncated, int(dec.InputOffset()), "missing <llsd> root element")
			}
			return wrapErr(KindUnexpectedByte, int(dec.InputOffset()), err, "xml syntax error")
		}
		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target != "xml" {
				return newErr(KindForbiddenConstruct, int(dec.InputOffset()), "processing instruction <?%s?> not permitted", t.Target)
			}
		case xml.Directive:
			return newErr(KindForbiddenConstruct, int(dec.InputOffset()), "DOCTYPE/directive not permitted")
		case xml.Comment:
			continue
		case xml.CharData:
			continue
		case xml.StartElement:
			if t.Name.Local != "llsd" {
				return newErr(KindUnexpectedElement, int(dec.InputOffset()), "expected <llsd> root element, got <%s>", t.Name.Local)
			}
			return nil
		case xml.EndElement:
			return newErr(KindUnexpectedElement, int(dec.InputOffset()), "unexpected closing tag </%s> before root", t.Name.Local)
		}
	}
}

// xmlExpectRootClose consumes the closing </llsd> after a single root
// value has been decoded.
func xmlExpectRootClose(dec *xml.Decoder) *Error {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return newErr(KindTruncated, int(dec.InputOffset()), "missing closing </llsd>")
			}
			return wrapErr(KindUnexpectedByte, int(dec.InputOffset()), err, "xml syntax error")
		}
		switch t := tok.(type) {
		case xml.EndElement:
			if t.Name.Local != "llsd" {
				return newErr(KindUnexpectedElement, int(dec.InputOffset()), "expected closing </llsd>, got </%s>", t.Name.Local)
			}
			return nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return newErr(KindUnexpectedElement, int(dec.InputOffset()), "unexpected character data after root value")
			}
		case xml.Comment:
			continue
		default:
			return newErr(KindUnexpectedElement, int(dec.InputOffset()), "unexpected token after root value")
		}
	}
}

// xmlFrame is one pending container (<array> or <map>) on the decoder's
// explicit work stack (spec §9: "Recursive grammars -> explicit stacks").
type xmlFrame struct {
	kind        ValueKind
	arr         []Value
	m           *orderedMap
	haveKey     bool
	key         string
	elementName string
}

func attachXML(f *xmlFrame, v Value) {
	if f.kind == KindArray {
		f.arr = append(f.arr, v)
	} else {
		f.m.set(f.key, v)
		f.haveKey = false
	}
}

// decodeXMLValue runs the iterative XML value parser: a single loop over
// an explicit stack of in-progress <array>/<map> containers, dispatching
// each StartElement through decodeXMLElement rather than recursing.
func decodeXMLValue(dec *xml.Decoder, g *guard) (Value, *Error) {
	var stack []*xmlFrame
	var path []string

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return Value{}, newErr(KindTruncated, int(dec.InputOffset()), "unexpected end of input while decoding value")
			}
			return Value{}, wrapErr(KindUnexpectedByte, int(dec.InputOffset()), err, "xml syntax error")
		}
		if berr := g.checkBytes(int(dec.InputOffset())); berr != nil {
			return Value{}, berr
		}

		switch t := tok.(type) {
		case xml.ProcInst:
			return Value{}, newErr(KindForbiddenConstruct, int(dec.InputOffset()), "processing instruction <?%s?> not permitted here", t.Target)
		case xml.Directive:
			return Value{}, newErr(KindForbiddenConstruct, int(dec.InputOffset()), "DOCTYPE/directive not permitted")
		case xml.Comment:
			continue
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			return Value{}, newErrPath(KindUnexpectedElement, int(dec.InputOffset()), strings.Join(path, "/"), "unexpected character data %q", string(t))
		case xml.EndElement:
			if len(stack) == 0 {
				return Value{}, newErr(KindUnexpectedTerminator, int(dec.InputOffset()), "unexpected closing tag </%s>", t.Name.Local)
			}
			top := stack[len(stack)-1]
			if t.Name.Local != top.elementName {
				return Value{}, newErrPath(KindUnexpectedElement, int(dec.InputOffset()), strings.Join(path, "/"), "mismatched closing tag </%s>, expected </%s>", t.Name.Local, top.elementName)
			}
			g.leave()
			path = path[:len(path)-1]
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
			attachXML(stack[len(stack)-1], closed)
		case xml.StartElement:
			name := t.Name.Local

			if len(stack) > 0 && stack[len(stack)-1].kind == KindMap && !stack[len(stack)-1].haveKey {
				if name != "key" {
					return Value{}, newErrPath(KindUnexpectedElement, int(dec.InputOffset()), strings.Join(path, "/"), "expected <key>, got <%s>", name)
				}
				keyText, kerr := readXMLScalarBody(dec, g, name)
				if kerr != nil {
					return Value{}, kerr
				}
				if !validUTF8(keyText) {
					return Value{}, newErrPath(KindInvalidUTF8, int(dec.InputOffset()), strings.Join(path, "/"), "map key is not valid UTF-8")
				}
				top := stack[len(stack)-1]
				top.key = keyText
				top.haveKey = true
				continue
			}
			if name == "key" {
				return Value{}, newErrPath(KindUnexpectedElement, int(dec.InputOffset()), strings.Join(path, "/"), "<key> outside <map>")
			}

			path = append(path, name)
			val, opened, verr := decodeXMLElement(dec, g, name, t.Attr, path)
			if verr != nil {
				return Value{}, verr
			}
			if opened != nil {
				stack = append(stack, opened)
				continue
			}
			path = path[:len(path)-1]
			if len(stack) == 0 {
				return val, nil
			}
			attachXML(stack[len(stack)-1], val)
		}
	}
}

// decodeXMLElement handles one value element whose StartElement has just
// been consumed. Scalar elements read and consume their own matching
// EndElement; <array>/<map> instead return an *xmlFrame for the caller to
// push, leaving their EndElement to the main loop.
func decodeXMLElement(dec *xml.Decoder, g *guard, name string, attrs []xml.Attr, path []string) (Value, *xmlFrame, *Error) {
	offset := int(dec.InputOffset())
	switch name {
	case "undef":
		if _, err := readXMLScalarBody(dec, g, name); err != nil {
			return Value{}, nil, err
		}
		return Undef(), nil, nil
	case "array":
		if err := g.enter(offset); err != nil {
			return Value{}, nil, err
		}
		return Value{}, &xmlFrame{kind: KindArray, elementName: "array"}, nil
	case "map":
		if err := g.enter(offset); err != nil {
			return Value{}, nil, err
		}
		return Value{}, &xmlFrame{kind: KindMap, elementName: "map", m: newOrderedMap()}, nil
	case "boolean":
		text, err := readXMLScalarBody(dec, g, name)
		if err != nil {
			return Value{}, nil, err
		}
		b, ok := parseXMLBoolean(text)
		if !ok {
			return Value{}, nil, newErrPath(KindInvalidBoolean, offset, strings.Join(path, "/"), "invalid boolean text %q", text)
		}
		return Boolean(b), nil, nil
	case "integer":
		text, err := readXMLScalarBody(dec, g, name)
		if err != nil {
			return Value{}, nil, err
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return Integer(0), nil, nil
		}
		n, numErr := strconv.ParseInt(trimmed, 10, 32)
		if numErr != nil {
			return Value{}, nil, newErrPath(KindInvalidNumber, offset, strings.Join(path, "/"), "invalid integer %q", text)
		}
		return Integer(int32(n)), nil, nil
	case "real":
		text, err := readXMLScalarBody(dec, g, name)
		if err != nil {
			return Value{}, nil, err
		}
		trimmed := strings.TrimSpace(text)
		switch trimmed {
		case "":
			return Real(0), nil, nil
		case "nan":
			return Real(math.NaN()), nil, nil
		case "inf":
			return Real(math.Inf(1)), nil, nil
		case "-inf":
			return Real(math.Inf(-1)), nil, nil
		}
		f, numErr := strconv.ParseFloat(trimmed, 64)
		if numErr != nil {
			return Value{}, nil, newErrPath(KindInvalidNumber, offset, strings.Join(path, "/"), "invalid real %q", text)
		}
		return Real(f), nil, nil
	case "uuid":
		text, err := readXMLScalarBody(dec, g, name)
		if err != nil {
			return Value{}, nil, err
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return UUIDValue(ZeroUUID), nil, nil
		}
		u, uerr := ParseUUID([]byte(trimmed), offset)
		if uerr != nil {
			return Value{}, nil, uerr
		}
		return UUIDValue(u), nil, nil
	case "string":
		text, err := readXMLScalarBody(dec, g, name)
		if err != nil {
			return Value{}, nil, err
		}
		if !validUTF8(text) {
			return Value{}, nil, newErrPath(KindInvalidUTF8, offset, strings.Join(path, "/"), "string is not valid UTF-8")
		}
		return String(text), nil, nil
	case "uri":
		text, err := readXMLScalarBody(dec, g, name)
		if err != nil {
			return Value{}, nil, err
		}
		if !validUTF8(text) {
			return Value{}, nil, newErrPath(KindInvalidUTF8, offset, strings.Join(path, "/"), "uri is not valid UTF-8")
		}
		return URIValue(text), nil, nil
	case "date":
		text, err := readXMLScalarBody(dec, g, name)
		if err != nil {
			return Value{}, nil, err
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return DateValue(EpochDate), nil, nil
		}
		d, derr := ParseDate([]byte(trimmed), offset)
		if derr != nil {
			return Value{}, nil, derr
		}
		return DateValue(d), nil, nil
	case "binary":
		for _, a := range attrs {
			if a.Name.Local == "encoding" && a.Value != "base64" {
				return Value{}, nil, newErrPath(KindForbiddenConstruct, offset, strings.Join(path, "/"), "unsupported binary encoding %q", a.Value)
			}
		}
		text, err := readXMLScalarBody(dec, g, name)
		if err != nil {
			return Value{}, nil, err
		}
		b, berr := decodeBase64([]byte(text), offset)
		if berr != nil {
			return Value{}, nil, berr
		}
		return Binary(b), nil, nil
	default:
		return Value{}, nil, newErrPath(KindUnexpectedElement, offset, strings.Join(path, "/"), "unrecognized element <%s>", name)
	}
}

func parseXMLBoolean(text string) (value bool, ok bool) {
	switch strings.TrimSpace(text) {
	case "true", "1":
		return true, true
	case "false", "0", "":
		return false, true
	default:
		return false, false
	}
}

// readXMLScalarBody accumulates character data until the matching
// EndElement for name; a nested StartElement or a forbidden construct
// inside a scalar element is an error.
func readXMLScalarBody(dec *xml.Decoder, g *guard, name string) (string, *Error) {
	var buf bytes.Buffer
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", newErr(KindTruncated, int(dec.InputOffset()), "unexpected end of input inside <%s>", name)
			}
			return "", wrapErr(KindUnexpectedByte, int(dec.InputOffset()), err, "xml syntax error")
		}
		if berr := g.checkBytes(int(dec.InputOffset())); berr != nil {
			return "", berr
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.EndElement:
			if t.Name.Local != name {
				return "", newErr(KindUnexpectedElement, int(dec.InputOffset()), "mismatched closing tag </%s>, expected </%s>", t.Name.Local, name)
			}
			return buf.String(), nil
		case xml.StartElement:
			return "", newErr(KindUnexpectedElement, int(dec.InputOffset()), "unexpected <%s> inside <%s>", t.Name.Local, name)
		case xml.Comment:
			continue
		case xml.ProcInst:
			return "", newErr(KindForbiddenConstruct, int(dec.InputOffset()), "processing instruction not permitted inside <%s>", name)
		case xml.Directive:
			return "", newErr(KindForbiddenConstruct, int(dec.InputOffset()), "directive not permitted inside <%s>", name)
		}
	}
}

// FormatXML encodes v as the XML wire form.
func FormatXML(v Value, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeXML(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeXML writes v to w as the XML wire form. When opts.Pretty is set,
// containers are indented two spaces per level; otherwise the document is
// written on a single line.
func EncodeXML(w io.Writer, v Value, opts EncodeOptions) error {
	enc := &xmlEncoder{w: w, pretty: opts.Pretty, visiting: make(map[*orderedMap]bool)}
	if err := enc.write(`<?xml version="1.0" ?><llsd>`); err != nil {
		return err
	}
	if enc.pretty {
		if err := enc.write("\n"); err != nil {
			return err
		}
		enc.depth++
	}
	if err := enc.encode(v); err != nil {
		return err
	}
	if enc.pretty {
		enc.depth--
	}
	if err := enc.write("</llsd>"); err != nil {
		return err
	}
	return nil
}

type xmlEncoder struct {
	w        io.Writer
	pretty   bool
	depth    int
	visiting map[*orderedMap]bool
}

func (e *xmlEncoder) write(s string) *Error {
	if _, err := io.WriteString(e.w, s); err != nil {
		return wrapErr(KindSinkError, 0, err, "writing xml output")
	}
	return nil
}

func (e *xmlEncoder) indent() string {
	if !e.pretty {
		return ""
	}
	return strings.Repeat("  ", e.depth)
}

func (e *xmlEncoder) newline() string {
	if !e.pretty {
		return ""
	}
	return "\n"
}

func (e *xmlEncoder) writeElement(tag, body string) *Error {
	return e.write(e.indent() + "<" + tag + ">" + xmlEscapeString(body) + "</" + tag + ">" + e.newline())
}

func (e *xmlEncoder) encode(v Value) *Error {
	switch v.kind {
	case KindUndef:
		return e.write(e.indent() + "<undef/>" + e.newline())
	case KindBoolean:
		body := "false"
		if v.boolean {
			body = "true"
		}
		return e.writeElement("boolean", body)
	case KindInteger:
		return e.writeElement("integer", strconv.FormatInt(int64(v.integer), 10))
	case KindReal:
		return e.writeElement("real", formatReal(v.real))
	case KindUUID:
		return e.writeElement("uuid", v.uuid.String())
	case KindDate:
		return e.writeElement("date", v.date.Format())
	case KindBinary:
		return e.writeElement("binary", encodeBase64(v.binary))
	case KindString:
		return e.writeElement("string", v.str)
	case KindURI:
		return e.writeElement("uri", v.str)
	case KindArray:
		return e.encodeArray(v)
	case KindMap:
		return e.encodeMap(v)
	default:
		return newErr(KindUnexpectedByte, 0, "unknown value kind %d", v.kind)
	}
}

func (e *xmlEncoder) encodeArray(v Value) *Error {
	if err := e.write(e.indent() + "<array>" + e.newline()); err != nil {
		return err
	}
	e.depth++
	for _, elem := range v.array {
		if err := e.encode(elem); err != nil {
			return err
		}
	}
	e.depth--
	return e.write(e.indent() + "</array>" + e.newline())
}

func (e *xmlEncoder) encodeMap(v Value) *Error {
	if v.mapv != nil {
		if e.visiting[v.mapv] {
			return newErr(KindCycleDetected, 0, "map value references itself")
		}
		e.visiting[v.mapv] = true
		defer delete(e.visiting, v.mapv)
	}
	if err := e.write(e.indent() + "<map>" + e.newline()); err != nil {
		return err
	}
	e.depth++
	if v.mapv != nil {
		for _, ent := range v.mapv.entries {
			if err := e.write(e.indent() + "<key>" + xmlEscapeString(ent.key) + "</key>" + e.newline()); err != nil {
				return err
			}
			if err := e.encode(ent.value); err != nil {
				return err
			}
		}
	}
	e.depth--
	return e.write(e.indent() + "</map>" + e.newline())
}

// xmlEscapeString implements spec §4.F's emitter escaping rule: &, <, >
// always escaped; tab/newline/carriage-return passed through; every other
// ASCII control character emitted as a numeric character reference.
func xmlEscapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString("&amp;")
		case r == '<':
			b.WriteString("&lt;")
		case r == '>':
			b.WriteString("&gt;")
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "&#x%X;", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
