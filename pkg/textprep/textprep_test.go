package textprep

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/textprep/pkg/textprep/config"
	"github.com/cognicore/textprep/pkg/textprep/export"
	"github.com/cognicore/textprep/pkg/textprep/pipeline"
)

// stubPipe lemmatizes by lowercasing words and vectorizes by word count,
// recording every text it is asked to vectorize-or-annotate.
type stubPipe struct {
	name   string
	dims   int
	inputs []string
}

func (p *stubPipe) Name() string { return p.name }
func (p *stubPipe) Dims() int    { return p.dims }

func (p *stubPipe) Annotate(ctx context.Context, text string) (*pipeline.Doc, error) {
	p.inputs = append(p.inputs, text)
	var tokens []pipeline.Token
	for _, w := range strings.Fields(text) {
		lower := strings.ToLower(w)
		tokens = append(tokens, pipeline.Token{
			Text:  w,
			Lemma: lower,
			POS:   "NOUN",
		})
	}
	vec := make([]float64, p.dims)
	vec[0] = float64(len(tokens))
	return &pipeline.Doc{Tokens: tokens, Vector: vec}, nil
}

func writeTweets(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tweets.csv")
	content := "text,inappropriate\n" +
		"really love these headphones,false\n" +
		"utterly terrible product,true\n" +
		",false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func testConfig(t *testing.T, inputPath string) *config.Config {
	cfg := &config.Config{
		Input:  config.Input{Kind: config.KindCSV, Path: inputPath},
		Output: config.Output{Dir: filepath.Join(t.TempDir(), "out")},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t, writeTweets(t))
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	pipes := []pipeline.Pipeline{
		&stubPipe{name: "small", dims: 4},
		&stubPipe{name: "medium", dims: 8},
		&stubPipe{name: "large", dims: 16},
	}

	runner, err := New(Options{
		Config:    cfg,
		Pipelines: pipes,
		Now:       func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Rows != 3 {
		t.Errorf("rows = %d, want 3", res.Rows)
	}
	if res.Stamp != export.Stamp(fixed) {
		t.Errorf("stamp = %q, want %q", res.Stamp, export.Stamp(fixed))
	}
	if res.RunID == "" {
		t.Error("run ID missing")
	}

	// Every output file of the run carries the same stamp.
	for _, path := range append([]string{res.LemmaFile, res.ManifestFile},
		res.VectorFiles["small"], res.VectorFiles["medium"], res.VectorFiles["large"]) {
		if path == "" {
			t.Fatal("missing output file")
		}
		if !strings.Contains(filepath.Base(path), res.Stamp) {
			t.Errorf("%s does not carry the run stamp", path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("stat %s: %v", path, err)
		}
	}

	// Lemma table: one row per input row, in order, label passed through.
	rows := readLines(t, res.LemmaFile)
	if len(rows) != 3 {
		t.Fatalf("lemma rows = %d, want 3", len(rows))
	}
	var row0 map[string]any
	if err := json.Unmarshal([]byte(rows[0]), &row0); err != nil {
		t.Fatalf("row 0: %v", err)
	}
	small, _ := row0["small"].([]any)
	if len(small) != 4 {
		t.Errorf("row 0 small lemmas = %v", row0["small"])
	}
	if row0["inappropriate"] != false {
		t.Errorf("row 0 label = %v", row0["inappropriate"])
	}
	var row2 map[string]any
	if err := json.Unmarshal([]byte(rows[2]), &row2); err != nil {
		t.Fatalf("row 2: %v", err)
	}
	if lem, _ := row2["small"].([]any); len(lem) != 0 {
		t.Errorf("empty doc should have empty lemma list, got %v", lem)
	}

	// Vector tables: per variant, aligned rows, labels preserved.
	for _, pipe := range pipes {
		vrows := readLines(t, res.VectorFiles[pipe.Name()])
		if len(vrows) != 3 {
			t.Errorf("%s vector rows = %d, want 3", pipe.Name(), len(vrows))
			continue
		}
		var vr export.VectorRow
		if err := json.Unmarshal([]byte(vrows[1]), &vr); err != nil {
			t.Fatalf("%s row 1: %v", pipe.Name(), err)
		}
		if !vr.Inappropriate {
			t.Errorf("%s row 1 label lost", pipe.Name())
		}
		if len(vr.Vector) != pipe.Dims() {
			t.Errorf("%s vector length = %d, want %d", pipe.Name(), len(vr.Vector), pipe.Dims())
		}
	}

	// Manifest ties the run together.
	var manifest export.Manifest
	data, err := os.ReadFile(res.ManifestFile)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if manifest.RunID != res.RunID || manifest.Stamp != res.Stamp {
		t.Errorf("manifest identity mismatch: %+v", manifest)
	}
	if len(manifest.Files) != 4 {
		t.Errorf("manifest files = %d, want 4", len(manifest.Files))
	}
}

// In "lemmas" mode the vector stage sees each variant's own joined lemma
// list, not the raw text — with no serialization round-trip in between.
func TestRunVectorsFromLemmas(t *testing.T) {
	cfg := testConfig(t, writeTweets(t))
	cfg.VectorSource = config.VectorFromLemmas

	pipe := &stubPipe{name: "small", dims: 4}
	runner, err := New(Options{Config: cfg, Pipelines: []pipeline.Pipeline{pipe}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 3 lemma-pass inputs then 3 vector-pass inputs.
	if len(pipe.inputs) != 6 {
		t.Fatalf("pipeline saw %d inputs, want 6", len(pipe.inputs))
	}
	if pipe.inputs[3] != "really love these headphones" {
		t.Errorf("vector input 0 = %q", pipe.inputs[3])
	}
	if pipe.inputs[5] != "" {
		t.Errorf("vector input for empty doc = %q, want empty string", pipe.inputs[5])
	}
}

func TestRunFailsOnBadInput(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.csv"))

	runner, err := New(Options{
		Config:    cfg,
		Pipelines: []pipeline.Pipeline{&stubPipe{name: "small", dims: 2}},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := runner.Run(context.Background()); err == nil {
		t.Error("expected run to abort on missing input")
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without config")
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return lines
}
