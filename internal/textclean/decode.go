package textclean

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// DecodeBytes turns raw bytes into text by trying UTF-8, UTF-16, GBK and
// Latin-1 in order. The final fallback decodes as UTF-8 with replacement
// characters so the caller always gets a string.
func DecodeBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	if utf8.Valid(b) {
		return string(b)
	}

	if s, ok := tryDecode(b, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)); ok {
		return s
	}
	if s, ok := tryDecode(b, simplifiedchinese.GBK); ok {
		return s
	}
	if s, ok := tryDecode(b, charmap.ISO8859_1); ok {
		return s
	}

	return string(bytes.ToValidUTF8(b, []byte("�")))
}

// tryDecode decodes with the given encoding, rejecting results that carry
// replacement characters (a sign the encoding did not actually match).
func tryDecode(b []byte, enc encoding.Encoding) (string, bool) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
