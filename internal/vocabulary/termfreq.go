package vocabulary

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/tokenizer"
)

// TermCounter reports how many times word occurs in doc.
type TermCounter func(doc, word string) int

// SubstringCount counts non-overlapping occurrences of word anywhere in the
// raw document text, so "cat" also matches inside "concatenate". The
// match is case-sensitive against the original text. This is the default
// policy and determines the published weights.
func SubstringCount(doc, word string) int {
	return strings.Count(doc, word)
}

// TokenCount counts only whole tokens equal to word, using the same
// analysis chain that produced the vocabulary.
func TokenCount(t *tokenizer.Tokenizer) TermCounter {
	return func(doc, word string) int {
		n := 0
		for _, tok := range t.Tokens(doc) {
			if tok.Term == word {
				n++
			}
		}
		return n
	}
}
