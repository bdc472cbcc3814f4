package textutil

import (
	"strings"
	"unicode"
)

// NormalizeWord lowercases a single token and strips everything that is not a
// letter or digit. Returns "" when nothing survives.
func NormalizeWord(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// NormalizeText normalizes every whitespace separated token and joins the
// survivors with single spaces.
func NormalizeText(text string) string {
	return strings.Join(Words(text), " ")
}

// Words splits text on whitespace and returns the normalized, non-empty tokens.
func Words(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if norm := NormalizeWord(field); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

// EndsSentence reports whether the raw token closes a sentence.
func EndsSentence(word string) bool {
	trimmed := strings.TrimRightFunc(strings.TrimSpace(word), func(r rune) bool {
		return r == '"' || r == '\'' || r == ')' || r == '”' || r == '’'
	})
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	}
	return strings.HasSuffix(trimmed, "…")
}

// CountLetters returns the number of non-space runes in text.
func CountLetters(text string) int {
	count := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

// WordOverlap calculates the ratio of matching normalized words between two
// strings, using the smaller word set as the denominator.
func WordOverlap(a, b string) float64 {
	wordsA := Words(a)
	wordsB := Words(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	seen := make(map[string]int, len(wordsB))
	for _, wb := range wordsB {
		seen[wb]++
	}
	matches := 0
	for _, wa := range wordsA {
		if seen[wa] > 0 {
			seen[wa]--
			matches++
		}
	}

	denom := min(len(wordsA), len(wordsB))
	return float64(matches) / float64(denom)
}
