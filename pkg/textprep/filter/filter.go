// Package filter decides which tokens contribute to a document's lemma list.
package filter

import (
	"strings"
	"unicode/utf8"

	"github.com/cognicore/textprep/pkg/textprep/pipeline"
)

// MinLemmaLen is exclusive: lemmas of this length or shorter are dropped.
const MinLemmaLen = 2

// Filter is a pure predicate over token attributes plus a configurable
// extra stop-list (empty by default).
type Filter struct {
	extra map[string]struct{}
}

// New creates a filter with the given extra stop lemmas.
func New(extraStops []string) *Filter {
	extra := make(map[string]struct{}, len(extraStops))
	for _, s := range extraStops {
		extra[strings.ToLower(s)] = struct{}{}
	}
	return &Filter{extra: extra}
}

// Keep reports whether a token contributes to the lemma list.
// All conditions must hold: not a stop word, not punctuation, not a
// pronoun, non-blank surface text, lemma longer than two characters,
// lemma not on the extra stop-list.
func (f *Filter) Keep(t pipeline.Token) bool {
	if t.IsStop || t.IsPunct || t.POS == pipeline.POSPronoun {
		return false
	}
	if strings.TrimSpace(t.Text) == "" {
		return false
	}
	if utf8.RuneCountInString(t.Lemma) <= MinLemmaLen {
		return false
	}
	if _, ok := f.extra[t.Lemma]; ok {
		return false
	}
	return true
}

// Lemmas returns the lemmas of all retained tokens, in source order,
// without deduplication. A document whose every token is filtered out
// yields an empty list.
func (f *Filter) Lemmas(tokens []pipeline.Token) []string {
	lemmas := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if f.Keep(t) {
			lemmas = append(lemmas, t.Lemma)
		}
	}
	return lemmas
}
