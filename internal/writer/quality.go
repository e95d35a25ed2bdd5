package writer

import (
	"regexp"
	"strings"
	"unicode"
)

// minLengthCJK and minLengthDefault are the quality gate's length floors
// from §4.3 stage 1(a): predominantly-CJK content has a shorter viable
// length than Latin-script content.
const (
	minLengthCJK     = 10
	minLengthDefault = 20
)

var fillerPrefixes = []string{
	"ok", "okay", "sure", "let me", "好的", "我来", "明白", "收到",
}

var speculativePrefixes = []string{
	"maybe", "perhaps", "possibly", "probably", "i think", "i guess", "not sure",
	"可能", "也许", "或许", "大概",
}

var codePatternPrefixes = []string{"/", `\`, ".", "import ", "from ", "[", "(", "{"}

// codePatterns catches content that reads as code even without a path-like
// prefix: assignment/declaration syntax, shell-ish invocations.
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(func|def|class|const|let|var)\s+\w+`),
	regexp.MustCompile(`^\s*\w+\s*[:=]=?\s*\S`),
	regexp.MustCompile("^\\s*```"),
	regexp.MustCompile(`^\s*\$\s`),
}

// isPredominantlyCJK reports whether more than half of the content's
// non-space runes fall in the CJK Unicode ranges.
func isPredominantlyCJK(content string) bool {
	var cjk, other int
	for _, r := range content {
		if unicode.IsSpace(r) {
			continue
		}
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		} else {
			other++
		}
	}
	if cjk+other == 0 {
		return false
	}
	return cjk > other
}

// minLength returns the length floor applicable to content.
func minLength(content string) int {
	if isPredominantlyCJK(content) {
		return minLengthCJK
	}
	return minLengthDefault
}

func hasPrefix(lower string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// looksLikeCode reports whether content reads as source code or a file
// path rather than a natural-language note.
func looksLikeCode(content string) bool {
	for _, p := range codePatternPrefixes {
		if strings.HasPrefix(content, p) {
			return true
		}
	}
	for _, re := range codePatterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// qualityGate implements §4.3 stage 1. A non-empty reason means the note is
// rejected and no further pipeline stages run.
func qualityGate(content string) string {
	trimmed := strings.TrimSpace(content)
	lower := strings.ToLower(trimmed)

	if len([]rune(trimmed)) < minLength(trimmed) {
		return "too short"
	}
	if hasPrefix(lower, fillerPrefixes) {
		return "filler content"
	}
	if looksLikeCode(trimmed) {
		return "looks like code or a path"
	}
	if hasPrefix(lower, speculativePrefixes) {
		return "speculative, not a committed fact"
	}
	return ""
}
