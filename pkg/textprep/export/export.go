// Package export assigns the per-run timestamp and persists result tables.
//
// Every file of one run carries the same UTC stamp in its name, so files
// from one run are trivially correlated and files from different runs
// never collide. Tables are JSON lines: one record per input row, in
// input order, each carrying the passthrough label.
package export

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/textprep/pkg/textprep/internalerr"
)

// StampLayout formats the run timestamp embedded in filenames.
const StampLayout = "20060102T150405Z"

// Stamp renders the run timestamp for the given instant, in UTC.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

var entropy = ulid.Monotonic(rand.Reader, 0)

// NewRunID mints a ULID identifying one run in logs and the manifest.
func NewRunID() string {
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Writer persists the tables of one run into a directory.
type Writer struct {
	Dir string
}

// LemmaFileName returns the lemma table name for a stamp.
func LemmaFileName(stamp string) string {
	return fmt.Sprintf("lemmas_%s.jsonl", stamp)
}

// VectorFileName returns the vector table name for a variant and stamp.
// Vector tables stay separate per variant: their size dominates the
// lemma table's by roughly an order of magnitude.
func VectorFileName(variant, stamp string) string {
	return fmt.Sprintf("vectors_%s_%s.jsonl", variant, stamp)
}

// ManifestFileName returns the run manifest name for a stamp.
func ManifestFileName(stamp string) string {
	return fmt.Sprintf("run_%s.json", stamp)
}

// WriteLemmas writes the lemma table: row i holds one lemma array per
// variant plus the label of input row i. Returns the file path.
func (w *Writer) WriteLemmas(stamp string, variants []string, lists map[string][][]string, labels []bool) (string, error) {
	for _, variant := range variants {
		rows, ok := lists[variant]
		if !ok {
			return "", fmt.Errorf("no lemma lists for variant %q: %w", variant, internalerr.ErrRowMismatch)
		}
		if len(rows) != len(labels) {
			return "", fmt.Errorf("variant %q: %d lemma rows for %d labels: %w",
				variant, len(rows), len(labels), internalerr.ErrRowMismatch)
		}
	}

	path := filepath.Join(w.Dir, LemmaFileName(stamp))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create lemma table: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for i, label := range labels {
		record := make(map[string]any, len(variants)+1)
		for _, variant := range variants {
			record[variant] = lists[variant][i]
		}
		record["inappropriate"] = label
		if err := encoder.Encode(record); err != nil {
			return "", fmt.Errorf("encode lemma row %d: %w", i, err)
		}
	}

	return path, nil
}

// VectorRow is one record of a vector table.
type VectorRow struct {
	Vector        []float64 `json:"vector"`
	Inappropriate bool      `json:"inappropriate"`
}

// WriteVectors writes one variant's vector table. Returns the file path.
func (w *Writer) WriteVectors(stamp, variant string, vectors [][]float64, labels []bool) (string, error) {
	if len(vectors) != len(labels) {
		return "", fmt.Errorf("variant %q: %d vectors for %d labels: %w",
			variant, len(vectors), len(labels), internalerr.ErrRowMismatch)
	}

	path := filepath.Join(w.Dir, VectorFileName(variant, stamp))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create vector table: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for i, vec := range vectors {
		if err := encoder.Encode(VectorRow{Vector: vec, Inappropriate: labels[i]}); err != nil {
			return "", fmt.Errorf("encode vector row %d: %w", i, err)
		}
	}

	return path, nil
}

// Manifest records what one run produced.
type Manifest struct {
	RunID string         `json:"run_id"`
	Stamp string         `json:"stamp"`
	Input string         `json:"input"`
	Rows  int            `json:"rows"`
	Files []ManifestFile `json:"files"`
}

// ManifestFile describes one exported table.
type ManifestFile struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // "lemmas" or "vectors"
	Variant string `json:"variant,omitempty"`
	Rows    int    `json:"rows"`
}

// WriteManifest writes the run manifest. Returns the file path.
func (w *Writer) WriteManifest(m Manifest) (string, error) {
	path := filepath.Join(w.Dir, ManifestFileName(m.Stamp))
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
