package textclean

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Line-level noise: page markers, rule runs, confidentiality banners.
var (
	rePageMarker    = regexp.MustCompile(`^第?\s*\d+\s*页`)
	rePageFraction  = regexp.MustCompile(`^\d+\s*/\s*\d+$`)
	reRuleRun       = regexp.MustCompile(`^[-─━—~～.·_ ]{8,}\s*\d*\s*$`)
	reConfidential  = regexp.MustCompile(`^（?(机密|秘密|内部|保密).*?）?\s*$`)
	reBareNumber    = regexp.MustCompile(`^\s*\d+\s*$`)
	reLonelyMarkers = map[string]bool{"页": true, "第 页": true, "第页": true}
)

// Cross-line repairs applied to the whole text.
var (
	reCommaJoin     = regexp.MustCompile(`,\s*\n+\s*([\x{4e00}-\x{9fa5}])`)
	reEnumJoin      = regexp.MustCompile(`、\s*\n+\s*([\x{4e00}-\x{9fa5}])`)
	reDashPageDown  = regexp.MustCompile(`[—–\-─━]+\s*\n+\s*\d+`)
	reNumDash       = regexp.MustCompile(`\d+\s*[—–\-─━]+`)
	reDashLine      = regexp.MustCompile(`(?m)^\s*[—–\-─━]+\s*$`)
	reNumberLine    = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	reInvisible     = regexp.MustCompile(`[\x{FFFC}\x{FFFD}\x{200B}-\x{200F}\x{2060}-\x{206F}\x{FEFF}\x{FFF0}-\x{FFFF}]`)
	rePunctLine     = regexp.MustCompile(`(?m)^\s*[。．.,，、]\s*$`)
	reTerminalBreak = regexp.MustCompile(`([。！？；])\s*\n+\s*`)
	reSoftBreak     = regexp.MustCompile(`([，、：；”’）】])\s*\n+\s*`)
	reCJKBreak      = regexp.MustCompile(`([\x{4e00}-\x{9fa5}])\n+([\x{4e00}-\x{9fa5}])`)
	reHyphenBreak   = regexp.MustCompile(`(\w+)[-─━—~～]\s*\n\s*(\w+)`)
	reHyphenSpace   = regexp.MustCompile(`(\w+)\s*[-─━—~～]\s+(\w+)`)
)

// removeLayoutNoise drops page furniture line by line, then repairs line
// breaks the layout engine introduced mid-sentence.
func removeLayoutNoise(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))

	for _, line := range lines {
		l := strings.TrimSpace(line)
		if l == "" {
			cleaned = append(cleaned, line)
			continue
		}
		if rePageMarker.MatchString(l) ||
			rePageFraction.MatchString(l) ||
			reRuleRun.MatchString(l) ||
			reConfidential.MatchString(l) ||
			(reBareNumber.MatchString(l) && utf8.RuneCountInString(l) <= 10) ||
			reLonelyMarkers[l] {
			continue
		}
		cleaned = append(cleaned, line)
	}
	text = strings.Join(cleaned, "\n")

	// Soft punctuation at end of line followed by a CJK start means the
	// break was layout, not meaning.
	text = reCommaJoin.ReplaceAllString(text, `, $1`)
	text = reEnumJoin.ReplaceAllString(text, `、$1`)

	// Cross-page page-number dashes.
	text = reDashPageDown.ReplaceAllString(text, "")
	text = reNumDash.ReplaceAllString(text, "")
	text = reDashLine.ReplaceAllString(text, "")
	text = reNumberLine.ReplaceAllString(text, "")

	text = reInvisible.ReplaceAllString(text, "")
	text = rePunctLine.ReplaceAllString(text, "")

	// Break repairs: terminal punctuation opens a paragraph, soft
	// punctuation joins with a space, CJK lines concatenate, hyphenated
	// words rejoin.
	text = reTerminalBreak.ReplaceAllString(text, "$1\n\n")
	text = reSoftBreak.ReplaceAllString(text, "$1 ")
	text = reCJKBreak.ReplaceAllString(text, "$1$2")
	text = reHyphenBreak.ReplaceAllString(text, "$1$2")
	text = reHyphenSpace.ReplaceAllString(text, "$1$2")

	return text
}

var (
	reLineSpaces = regexp.MustCompile(`[\s\x{00A0}\x{200B}\x{3000}]+`)
	reInlineTag  = regexp.MustCompile(`\[\w+:\s*\w+\]`)
)

// cleanLines normalizes each line's whitespace and drops short fragments
// that carry no letters (stray numbering, orphan punctuation).
func cleanLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = reLineSpaces.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if line == "" {
			out = append(out, "")
			continue
		}
		if utf8.RuneCountInString(line) < 10 && !containsWordRune(line) {
			continue
		}
		line = strings.Map(func(r rune) rune {
			if r != ' ' && !unicode.IsPrint(r) {
				return -1
			}
			return r
		}, line)
		line = strings.TrimSpace(reInlineTag.ReplaceAllString(line, ""))
		out = append(out, line)
	}
	return out
}

func containsWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || r == '_' {
			return true
		}
	}
	return false
}

// Terminal punctuation that closes a Chinese sentence.
var reParagraphEnd = regexp.MustCompile(`[。！？;；:：”’)]\s*$`)

// mergeParagraphs joins wrapped lines into paragraphs. A line ending in
// terminal punctuation closes the current paragraph; blank lines always do.
func mergeParagraphs(lines []string) []string {
	var paragraphs []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}

	for _, line := range lines {
		if line == "" {
			flush()
			paragraphs = append(paragraphs, "")
			continue
		}
		if len(current) > 0 && reParagraphEnd.MatchString(current[len(current)-1]) {
			current = append(current, line)
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return paragraphs
}
