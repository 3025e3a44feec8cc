package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/textprep/pkg/textprep/internalerr"
)

// Default column names, matching the usual tweet dump layout.
const (
	DefaultTextColumn  = "text"
	DefaultLabelColumn = "inappropriate"
)

// CSVSource reads documents from a CSV file with a header row.
type CSVSource struct {
	Path        string
	TextColumn  string
	LabelColumn string
}

// Load reads the whole file. Any malformed row aborts the load;
// there is no row-skipping policy.
func (s *CSVSource) Load(ctx context.Context) ([]Document, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	textCol := s.TextColumn
	if textCol == "" {
		textCol = DefaultTextColumn
	}
	labelCol := s.LabelColumn
	if labelCol == "" {
		labelCol = DefaultLabelColumn
	}

	textIdx, labelIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case textCol:
			textIdx = i
		case labelCol:
			labelIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("column %q not found in header: %w", textCol, internalerr.ErrBadInput)
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("column %q not found in header: %w", labelCol, internalerr.ErrBadInput)
	}

	var docs []Document
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if len(record) <= textIdx || len(record) <= labelIdx {
			return nil, fmt.Errorf("row %d: too few columns: %w", row, internalerr.ErrBadInput)
		}
		label, err := strconv.ParseBool(strings.TrimSpace(record[labelIdx]))
		if err != nil {
			return nil, fmt.Errorf("row %d: label %q: %w", row, record[labelIdx], internalerr.ErrBadInput)
		}
		docs = append(docs, Document{Text: record[textIdx], Inappropriate: label})
	}

	return docs, nil
}
