package search

import (
	"math"
	"strings"
	"unicode"
)

const (
	// ProximityWindow is the most words allowed between the first and last
	// word of a multi-word query.
	ProximityWindow = 10

	// charsPerWord approximates word count from a character distance.
	charsPerWord = 5
)

// LoosePhraseMatch reports whether the first and last words of phrase occur
// close together in text. Single-word phrases always match.
//
// The word distance is estimated from character offsets, and the two words are
// located independently, so reversed order still matches.
func LoosePhraseMatch(text, phrase string) bool {
	if text == "" {
		return false
	}

	q := strings.TrimSpace(phrase)
	if q == "" {
		return false
	}
	if strings.IndexFunc(q, unicode.IsSpace) == -1 {
		return true
	}

	words := strings.Fields(strings.ToLower(q))
	first := words[0]
	last := words[len(words)-1]

	lower := strings.ToLower(text)
	firstIdx := strings.Index(lower, first)
	lastIdx := strings.Index(lower, last)
	if firstIdx == -1 || lastIdx == -1 {
		return false
	}

	approxWordsBetween := math.Abs(float64(lastIdx-firstIdx) / charsPerWord)
	return approxWordsBetween <= ProximityWindow
}
