package gphoto

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/fly-io/camctl/pkg/native"
	"golang.org/x/text/encoding/unicode"
)

// untilNUL trims a fixed native buffer at its terminator.
func untilNUL(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// lossyString decodes a native buffer for display, replacing invalid
// UTF-8 with U+FFFD. The result never aliases b.
func lossyString(b []byte) string {
	b = untilNUL(b)
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}

// takeText copies a native text buffer into a Go string and releases the
// buffer. Invalid UTF-8 is CorruptedData and yields no text.
func takeText(drv native.Driver, t native.Text) (string, error) {
	defer t.Release()
	b := untilNUL(t.Bytes())
	if !utf8.Valid(b) {
		return "", newError(drv, native.ErrorCorruptedData)
	}
	return string(b), nil
}
