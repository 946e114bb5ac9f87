package textclean

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// mojibakeMarkers flags byte sequences typical of UTF-8 text that was
// decoded once too often as Latin-1 ("Ã©", "â€œ", "å…¬").
var mojibakeMarkers = regexp.MustCompile(`Ã[\x80-\xFF]|â€|å[\x80-\xBF]`)

// fixEncoding repairs double-encoded text, applies NFC normalization, and
// drops bytes that do not survive a UTF-8 round trip.
func fixEncoding(text string) string {
	if mojibakeMarkers.MatchString(text) {
		if fixed, ok := undoLatin1RoundTrip(text); ok {
			text = fixed
		}
	}
	text = norm.NFC.String(text)
	return strings.ToValidUTF8(text, "")
}

// undoLatin1RoundTrip re-encodes each code point below U+0100 as a single
// byte and re-decodes the result as UTF-8. Only applicable when every rune
// fits in Latin-1; anything else means the text was not double-encoded.
func undoLatin1RoundTrip(text string) (string, bool) {
	raw := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xFF {
			return "", false
		}
		raw = append(raw, byte(r))
	}
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}
