package llsd

import "encoding/base64"

// decodeBase64 decodes RFC 4648 base64 with standard '=' padding,
// tolerating surrounding/embedded ASCII whitespace (spec §4.B). offset
// anchors any KindInvalidBase64 error to the surrounding document; callers
// pass the position of the enclosing literal or element.
func decodeBase64(b []byte, offset int) ([]byte, *Error) {
	stripped := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			stripped = append(stripped, c)
		}
	}
	out, err := base64.StdEncoding.DecodeString(string(stripped))
	if err != nil {
		return nil, wrapErr(KindInvalidBase64, offset, err, "invalid base64 payload")
	}
	return out, nil
}

// encodeBase64 renders b as base64 with no embedded line breaks (spec
// §4.A, §4.B).
func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
