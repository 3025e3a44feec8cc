// Package batch runs a pipeline over a document sequence in fixed-size
// windows. Windowing is a throughput/memory knob only: output length and
// order always match the input exactly.
package batch

import (
	"context"
	"fmt"

	"github.com/cognicore/textprep/pkg/textprep/filter"
	"github.com/cognicore/textprep/pkg/textprep/pipeline"
)

// DefaultSize is the annotation window size.
const DefaultSize = 500

// Processor drives one pipeline over many documents.
type Processor struct {
	pipe pipeline.Pipeline
	size int
}

// New creates a processor. A non-positive size falls back to DefaultSize.
func New(pipe pipeline.Pipeline, size int) *Processor {
	if size <= 0 {
		size = DefaultSize
	}
	return &Processor{pipe: pipe, size: size}
}

// LemmaLists produces one filtered lemma list per input text, aligned
// with the input order.
func (p *Processor) LemmaLists(ctx context.Context, texts []string, f *filter.Filter) ([][]string, error) {
	docs, err := p.annotate(ctx, texts)
	if err != nil {
		return nil, err
	}
	lists := make([][]string, len(docs))
	for i, doc := range docs {
		lists[i] = f.Lemmas(doc.Tokens)
	}
	return lists, nil
}

// Vectors produces one document vector per input text, unmodified from
// what the pipeline reports, aligned with the input order.
func (p *Processor) Vectors(ctx context.Context, texts []string) ([][]float64, error) {
	docs, err := p.annotate(ctx, texts)
	if err != nil {
		return nil, err
	}
	vectors := make([][]float64, len(docs))
	for i, doc := range docs {
		vectors[i] = doc.Vector
	}
	return vectors, nil
}

// annotate walks the input in windows. The first failing window aborts
// the whole run; there is no retry or partial output.
func (p *Processor) annotate(ctx context.Context, texts []string) ([]*pipeline.Doc, error) {
	out := make([]*pipeline.Doc, 0, len(texts))
	for start := 0; start < len(texts); start += p.size {
		end := start + p.size
		if end > len(texts) {
			end = len(texts)
		}
		docs, err := p.annotateWindow(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%s: batch %d-%d: %w", p.pipe.Name(), start, end, err)
		}
		out = append(out, docs...)
	}
	return out, nil
}

func (p *Processor) annotateWindow(ctx context.Context, window []string) ([]*pipeline.Doc, error) {
	if ba, ok := p.pipe.(pipeline.BatchAnnotator); ok {
		return ba.AnnotateBatch(ctx, window)
	}
	docs := make([]*pipeline.Doc, len(window))
	for i, text := range window {
		doc, err := p.pipe.Annotate(ctx, text)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}
