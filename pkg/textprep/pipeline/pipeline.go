// Package pipeline defines the NLP annotation capability consumed by the
// rest of the toolkit. All linguistic semantics (tokenization, POS tagging,
// lemmatization, document vectors) live behind the Pipeline interface;
// callers only look at token attributes and the vector.
package pipeline

import (
	"context"
	"fmt"

	"github.com/cognicore/textprep/pkg/textprep/internalerr"
)

// Coarse part-of-speech tags consumed by the token filter.
const (
	POSPronoun = "PRON"
	POSPunct   = "PUNCT"
)

// Token is one unit of text as seen by a pipeline.
type Token struct {
	Text    string
	Lemma   string
	IsStop  bool
	IsPunct bool
	POS     string
}

// Doc is the annotated form of one document: its tokens in source order
// plus a fixed-length vector summarizing the whole document.
type Doc struct {
	Tokens []Token
	Vector []float64
}

// Pipeline annotates a single text.
type Pipeline interface {
	Name() string
	Dims() int
	Annotate(ctx context.Context, text string) (*Doc, error)
}

// BatchAnnotator is implemented by pipelines that can annotate several
// documents in one round trip. Implementations must return exactly one
// doc per input text, in input order.
type BatchAnnotator interface {
	AnnotateBatch(ctx context.Context, texts []string) ([]*Doc, error)
}

// Spec describes one model variant. When RemoteURL is set the variant is
// served by an external annotation server, otherwise the in-process
// pipeline is used.
type Spec struct {
	Name        string
	Dims        int
	RemoteURL   string
	RemoteModel string
}

// New constructs a pipeline for the given variant spec.
func New(spec Spec) (Pipeline, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("variant name required: %w", internalerr.ErrInvalidConfig)
	}
	if spec.Dims <= 0 {
		return nil, fmt.Errorf("variant %q: dims must be positive: %w", spec.Name, internalerr.ErrInvalidConfig)
	}
	if spec.RemoteURL != "" {
		return NewRemote(spec.Name, spec.Dims, spec.RemoteURL, spec.RemoteModel), nil
	}
	return NewNative(spec.Name, spec.Dims), nil
}
