// Package tokenizer turns raw documents into vocabulary words. It runs a
// bleve analysis chain (regexp word tokenizer followed by a lowercase
// filter) and applies no stemming or stop-word removal.
package tokenizer

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	regexptokenizer "github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"

	apperrors "github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/errors"
)

// DefaultPattern matches runs of two or more word characters.
const DefaultPattern = `[\p{L}\p{N}_]{2,}`

// Token is a single normalised term and its position in the original text.
type Token struct {
	Term     string
	Position int
}

// Tokenizer extracts vocabulary words from documents. It is safe for
// concurrent use.
type Tokenizer struct {
	analyzer analysis.Analyzer
}

// New builds a Tokenizer for the given token pattern. An empty pattern
// selects DefaultPattern.
func New(pattern string) (*Tokenizer, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling token pattern %q: %w", pattern, err)
	}
	return &Tokenizer{
		analyzer: &analysis.DefaultAnalyzer{
			Tokenizer:    regexptokenizer.NewRegexpTokenizer(re),
			TokenFilters: []analysis.TokenFilter{lowercase.NewLowerCaseFilter()},
		},
	}, nil
}

// MustNew is like New but panics on an invalid pattern.
func MustNew(pattern string) *Tokenizer {
	t, err := New(pattern)
	if err != nil {
		panic(err)
	}
	return t
}

// Tokens returns the normalised token stream of text in order of
// appearance, duplicates included.
func (t *Tokenizer) Tokens(text string) []Token {
	stream := t.analyzer.Analyze([]byte(text))
	tokens := make([]Token, 0, len(stream))
	for i, tok := range stream {
		tokens = append(tokens, Token{
			Term:     string(tok.Term),
			Position: i,
		})
	}
	return tokens
}

// Vocabulary returns the distinct words across docs in order of first
// appearance. The index of a word in the result is its tokenizer id.
func (t *Tokenizer) Vocabulary(docs []string) ([]string, error) {
	seen := make(map[string]struct{})
	words := make([]string, 0)
	for i, doc := range docs {
		if !utf8.ValidString(doc) {
			return nil, fmt.Errorf("document %d: %w: invalid UTF-8", i, apperrors.ErrTokenization)
		}
		for _, tok := range t.Tokens(doc) {
			if _, ok := seen[tok.Term]; ok {
				continue
			}
			seen[tok.Term] = struct{}{}
			words = append(words, tok.Term)
		}
	}
	if len(words) == 0 {
		return nil, apperrors.ErrEmptyVocabulary
	}
	return words, nil
}
