package geometry

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// hasBOM reports whether data starts with a UTF-8 or UTF-16 byte order mark.
func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) ||
		bytes.HasPrefix(data, bomUTF16LE) ||
		bytes.HasPrefix(data, bomUTF16BE)
}

// decodeText converts text mesh sources saved with a byte order mark, as
// some Windows exporters do, to plain UTF-8. Other input is returned as is.
func decodeText(data []byte) ([]byte, error) {
	if !hasBOM(data) {
		return data, nil
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	return out, err
}
