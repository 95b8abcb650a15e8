package analysis

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// lookupCharset resolves a charset label. Empty means UTF-8.
func lookupCharset(name string) (encoding.Encoding, error) {
	if strings.TrimSpace(name) == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	return enc, nil
}

// decode converts raw file bytes to a string. UTF-8 input is taken as is,
// minus a leading byte order mark; invalid sequences are left untouched so
// offsets stay faithful to the file.
func decode(enc encoding.Encoding, r io.Reader) (string, error) {
	if enc == unicode.UTF8 {
		b, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		return string(bytes.TrimPrefix(b, utf8BOM)), nil
	}
	b, err := io.ReadAll(transform.NewReader(r, enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return string(b), nil
}
