package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/james-bowman/nlp"
	"github.com/jdkato/prose/tag"
	"github.com/jdkato/prose/tokenize"
	"github.com/kljensen/snowball/english"
	"gonum.org/v1/gonum/mat"
)

// Native is the in-process pipeline: Treebank tokenization, perceptron
// POS tagging, Snowball lemmas and stop-word flags, and a hashing
// vectoriser for the document vector. The vector for a document depends
// only on that document's text, never on its batch.
type Native struct {
	name       string
	dims       int
	tokenizer  *tokenize.TreebankWordTokenizer
	tagger     *tag.PerceptronTagger
	vectoriser *nlp.HashingVectoriser
}

// NewNative builds a native pipeline producing vectors of the given
// dimensionality. The perceptron model is loaded once per variant.
func NewNative(name string, dims int) *Native {
	return &Native{
		name:       name,
		dims:       dims,
		tokenizer:  tokenize.NewTreebankWordTokenizer(),
		tagger:     tag.NewPerceptronTagger(),
		vectoriser: nlp.NewHashingVectoriser(dims),
	}
}

func (p *Native) Name() string { return p.name }

func (p *Native) Dims() int { return p.dims }

// Annotate tokenizes, tags and vectorizes one document.
func (p *Native) Annotate(ctx context.Context, text string) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := p.tokenizer.Tokenize(text)
	tagged := p.tagger.Tag(words)

	tokens := make([]Token, 0, len(tagged))
	for _, tt := range tagged {
		tokens = append(tokens, newToken(tt.Text, tt.Tag))
	}

	vec, err := p.vectorize(text)
	if err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}

	return &Doc{Tokens: tokens, Vector: vec}, nil
}

// vectorize hashes the document's terms into a fixed-length vector and
// L2-normalizes it. An empty document yields the zero vector.
func (p *Native) vectorize(text string) ([]float64, error) {
	m, err := p.vectoriser.Transform(text)
	if err != nil {
		return nil, err
	}

	vec := mat.Col(nil, 0, m)
	if len(vec) != p.dims {
		return nil, fmt.Errorf("got %d features, want %d", len(vec), p.dims)
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum > 0 {
		norm := math.Sqrt(sum)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func newToken(text, pennTag string) Token {
	lower := strings.ToLower(text)
	punct := punctTag(pennTag) || allPunct(text)
	return Token{
		Text:    text,
		Lemma:   english.Stem(lower, true),
		IsStop:  english.IsStopWord(lower),
		IsPunct: punct,
		POS:     coarseTag(pennTag, punct),
	}
}

// coarseTag maps Penn Treebank tags to the coarse tag set the filter
// understands. Only PRON and PUNCT carry meaning downstream; the rest
// are informational.
func coarseTag(pennTag string, punct bool) string {
	if punct {
		return POSPunct
	}
	switch {
	case pennTag == "PRP" || pennTag == "PRP$" || pennTag == "WP" || pennTag == "WP$":
		return POSPronoun
	case strings.HasPrefix(pennTag, "NN"):
		return "NOUN"
	case strings.HasPrefix(pennTag, "VB"):
		return "VERB"
	case strings.HasPrefix(pennTag, "JJ"):
		return "ADJ"
	case strings.HasPrefix(pennTag, "RB"):
		return "ADV"
	default:
		return "X"
	}
}

var pennPunctTags = map[string]struct{}{
	".": {}, ",": {}, ":": {}, "``": {}, "''": {},
	"(": {}, ")": {}, "-LRB-": {}, "-RRB-": {},
	"#": {}, "$": {}, "SYM": {},
}

func punctTag(pennTag string) bool {
	_, ok := pennPunctTags[pennTag]
	return ok
}

// allPunct catches tokens like "!!" that the tagger may leave with an
// unexpected tag.
func allPunct(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}
