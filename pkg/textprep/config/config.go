package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/textprep/pkg/textprep/internalerr"
)

// Vector source modes: vectors computed from the raw (cleaned) document
// text, or from each variant's filtered lemma list.
const (
	VectorFromText   = "text"
	VectorFromLemmas = "lemmas"
)

// Input kinds.
const (
	KindCSV    = "csv"
	KindSQLite = "sqlite"
)

// Config holds the full run configuration.
type Config struct {
	Input        Input     `yaml:"input"`
	Output       Output    `yaml:"output"`
	BatchSize    int       `yaml:"batch_size"`
	ExtraStops   []string  `yaml:"extra_stopwords"`
	VectorSource string    `yaml:"vector_source"`
	SkipClean    bool      `yaml:"skip_html_clean"`
	Variants     []Variant `yaml:"variants"`
}

// Input describes where documents come from.
type Input struct {
	Kind        string `yaml:"kind"`
	Path        string `yaml:"path"`
	TextColumn  string `yaml:"text_column"`
	LabelColumn string `yaml:"label_column"`
	Query       string `yaml:"query"` // sqlite only
}

// Output describes where result tables go.
type Output struct {
	Dir string `yaml:"dir"`
}

// Variant describes one model variant. With RemoteURL set the variant is
// annotated by an external server, otherwise in process.
type Variant struct {
	Name        string `yaml:"name"`
	Dims        int    `yaml:"dims"`
	RemoteURL   string `yaml:"remote_url"`
	RemoteModel string `yaml:"remote_model"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Input.Kind == "" {
		c.Input.Kind = KindCSV
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "out"
	}
	if c.BatchSize == 0 {
		c.BatchSize = 500
	}
	if c.VectorSource == "" {
		c.VectorSource = VectorFromText
	}
	if len(c.Variants) == 0 {
		c.Variants = []Variant{
			{Name: "small", Dims: 96},
			{Name: "medium", Dims: 256},
			{Name: "large", Dims: 512},
		}
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return fmt.Errorf("input.path required: %w", internalerr.ErrInvalidConfig)
	}
	if c.Input.Kind != KindCSV && c.Input.Kind != KindSQLite {
		return fmt.Errorf("input.kind %q not one of %q, %q: %w",
			c.Input.Kind, KindCSV, KindSQLite, internalerr.ErrInvalidConfig)
	}
	if c.VectorSource != VectorFromText && c.VectorSource != VectorFromLemmas {
		return fmt.Errorf("vector_source %q not one of %q, %q: %w",
			c.VectorSource, VectorFromText, VectorFromLemmas, internalerr.ErrInvalidConfig)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative: %w", internalerr.ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Variants))
	for _, v := range c.Variants {
		if v.Name == "" {
			return fmt.Errorf("variant name required: %w", internalerr.ErrInvalidConfig)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("duplicate variant %q: %w", v.Name, internalerr.ErrInvalidConfig)
		}
		seen[v.Name] = struct{}{}
		if v.Dims <= 0 {
			return fmt.Errorf("variant %q: dims must be positive: %w", v.Name, internalerr.ErrInvalidConfig)
		}
	}
	return nil
}
