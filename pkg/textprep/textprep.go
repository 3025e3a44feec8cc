// Package textprep turns a table of labeled tweets into per-document
// lemma lists and embedding vectors, one set per model variant, exported
// as flat tables sharing a single per-run timestamp.
package textprep

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/textprep/pkg/textprep/batch"
	"github.com/cognicore/textprep/pkg/textprep/clean"
	"github.com/cognicore/textprep/pkg/textprep/config"
	"github.com/cognicore/textprep/pkg/textprep/export"
	"github.com/cognicore/textprep/pkg/textprep/filter"
	"github.com/cognicore/textprep/pkg/textprep/internalerr"
	"github.com/cognicore/textprep/pkg/textprep/pipeline"
	"github.com/cognicore/textprep/pkg/textprep/source"
)

// Runner orchestrates one end-to-end extraction run.
type Runner struct {
	cfg   *config.Config
	src   source.Source
	pipes []pipeline.Pipeline
	log   *zap.Logger
	now   func() time.Time
}

// Options configures a Runner. Source and Pipelines are built from the
// config when left nil; tests inject their own.
type Options struct {
	Config    *config.Config
	Source    source.Source
	Pipelines []pipeline.Pipeline
	Logger    *zap.Logger
	Now       func() time.Time
}

// New creates a Runner from the given options.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config required: %w", internalerr.ErrInvalidConfig)
	}
	cfg := opts.Config

	src := opts.Source
	if src == nil {
		var err error
		src, err = sourceFromConfig(cfg)
		if err != nil {
			return nil, err
		}
	}

	pipes := opts.Pipelines
	if pipes == nil {
		for _, v := range cfg.Variants {
			pipe, err := pipeline.New(pipeline.Spec{
				Name:        v.Name,
				Dims:        v.Dims,
				RemoteURL:   v.RemoteURL,
				RemoteModel: v.RemoteModel,
			})
			if err != nil {
				return nil, err
			}
			pipes = append(pipes, pipe)
		}
	}
	if len(pipes) == 0 {
		return nil, fmt.Errorf("at least one variant required: %w", internalerr.ErrInvalidConfig)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{cfg: cfg, src: src, pipes: pipes, log: logger, now: now}, nil
}

func sourceFromConfig(cfg *config.Config) (source.Source, error) {
	switch cfg.Input.Kind {
	case config.KindCSV:
		return &source.CSVSource{
			Path:        cfg.Input.Path,
			TextColumn:  cfg.Input.TextColumn,
			LabelColumn: cfg.Input.LabelColumn,
		}, nil
	case config.KindSQLite:
		return &source.SQLiteSource{
			Path:  cfg.Input.Path,
			Query: cfg.Input.Query,
		}, nil
	default:
		return nil, fmt.Errorf("input.kind %q: %w", cfg.Input.Kind, internalerr.ErrInvalidConfig)
	}
}

// RunResult describes what one run produced.
type RunResult struct {
	RunID        string
	Stamp        string
	Rows         int
	LemmaFile    string
	VectorFiles  map[string]string
	ManifestFile string
}

// Run executes the full extraction: load, clean, lemma extraction per
// variant, vector extraction per variant, export. Any failure aborts;
// no partial output is written.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	docs, err := r.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	r.log.Info("documents loaded", zap.Int("rows", len(docs)))

	texts := make([]string, len(docs))
	labels := make([]bool, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
		if !r.cfg.SkipClean {
			texts[i] = clean.Text(d.Text)
		}
		labels[i] = d.Inappropriate
	}

	f := filter.New(r.cfg.ExtraStops)

	// Stage 1: lemma extraction, independently per variant.
	variants := make([]string, len(r.pipes))
	lemmas := make(map[string][][]string, len(r.pipes))
	for i, pipe := range r.pipes {
		variants[i] = pipe.Name()
		proc := batch.New(pipe, r.cfg.BatchSize)
		lists, err := proc.LemmaLists(ctx, texts, f)
		if err != nil {
			return nil, fmt.Errorf("lemma extraction: %w", err)
		}
		lemmas[pipe.Name()] = lists
		r.log.Info("lemmas extracted", zap.String("variant", pipe.Name()), zap.Int("rows", len(lists)))
	}

	// The stamp is taken once lemma extraction completes and names every
	// file of this run.
	stamp := export.Stamp(r.now())
	runID := export.NewRunID()
	r.log.Info("run stamped", zap.String("run_id", runID), zap.String("stamp", stamp))

	// Stage 2: vector extraction, independently per variant.
	vectors := make(map[string][][]float64, len(r.pipes))
	for _, pipe := range r.pipes {
		proc := batch.New(pipe, r.cfg.BatchSize)
		input := texts
		if r.cfg.VectorSource == config.VectorFromLemmas {
			input = joinLemmas(lemmas[pipe.Name()])
		}
		vecs, err := proc.Vectors(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("vector extraction: %w", err)
		}
		vectors[pipe.Name()] = vecs
		r.log.Info("vectors extracted", zap.String("variant", pipe.Name()), zap.Int("rows", len(vecs)))
	}

	// Export.
	if err := os.MkdirAll(r.cfg.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	writer := &export.Writer{Dir: r.cfg.Output.Dir}
	res := &RunResult{
		RunID:       runID,
		Stamp:       stamp,
		Rows:        len(docs),
		VectorFiles: make(map[string]string, len(r.pipes)),
	}

	res.LemmaFile, err = writer.WriteLemmas(stamp, variants, lemmas, labels)
	if err != nil {
		return nil, err
	}

	manifest := export.Manifest{
		RunID: runID,
		Stamp: stamp,
		Input: r.cfg.Input.Path,
		Rows:  len(docs),
		Files: []export.ManifestFile{
			{Name: export.LemmaFileName(stamp), Kind: "lemmas", Rows: len(docs)},
		},
	}

	for _, variant := range variants {
		path, err := writer.WriteVectors(stamp, variant, vectors[variant], labels)
		if err != nil {
			return nil, err
		}
		res.VectorFiles[variant] = path
		manifest.Files = append(manifest.Files, export.ManifestFile{
			Name:    export.VectorFileName(variant, stamp),
			Kind:    "vectors",
			Variant: variant,
			Rows:    len(docs),
		})
	}

	res.ManifestFile, err = writer.WriteManifest(manifest)
	if err != nil {
		return nil, err
	}

	r.log.Info("run complete",
		zap.String("run_id", runID),
		zap.String("stamp", stamp),
		zap.Int("rows", len(docs)),
		zap.Int("variants", len(variants)))
	return res, nil
}

// joinLemmas renders each lemma list back into a plain string for the
// vectorization stage. Lemmas stay in-memory strings end to end; no
// serialization round-trip is needed to coerce them.
func joinLemmas(lists [][]string) []string {
	texts := make([]string, len(lists))
	for i, list := range lists {
		texts[i] = strings.Join(list, " ")
	}
	return texts
}
