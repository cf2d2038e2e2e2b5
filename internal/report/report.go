// Package report renders a BatchResult as console text, JSON, CSV or
// Parquet.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"FuturesSentinel/internal/model"
)

// Format names an output format.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts the Format names, case-insensitively. "text" is an
// alias for console.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatConsole, FormatJSON, FormatCSV, FormatParquet:
		return f, nil
	case "", "text":
		return FormatConsole, nil
	}
	return "", fmt.Errorf("unsupported report format %q (use console, json, csv or parquet)", s)
}

// Renderer writes one batch in a single format.
type Renderer interface {
	Render(w io.Writer, batch *model.BatchResult, sum Summary) error
	Extension() string
}

// NewRenderer returns the renderer for format.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatConsole:
		return ConsoleRenderer{}, nil
	case FormatJSON:
		return JSONRenderer{Indent: true}, nil
	case FormatCSV:
		return CSVRenderer{}, nil
	case FormatParquet:
		return ParquetRenderer{}, nil
	}
	return nil, fmt.Errorf("unsupported report format %q", format)
}

// Render writes batch to w using the default high-confidence threshold.
func Render(w io.Writer, batch *model.BatchResult, format Format) error {
	return RenderWithThreshold(w, batch, format, DefaultHighConfidence)
}

// RenderWithThreshold is Render with an explicit high-confidence threshold.
func RenderWithThreshold(w io.Writer, batch *model.BatchResult, format Format, highConfidence float64) error {
	r, err := NewRenderer(format)
	if err != nil {
		return err
	}
	return r.Render(w, batch, Summarize(batch, highConfidence))
}

// WriteFile renders batch into dir and returns the file path. The name is
// analysis_<as-of date>_<run id>.<ext>.
func WriteFile(dir string, batch *model.BatchResult, format Format, highConfidence float64) (string, error) {
	r, err := NewRenderer(format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	name := fmt.Sprintf("analysis_%s_%s.%s", batch.AsOf.Format("20060102"), batch.RunID, r.Extension())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := r.Render(f, batch, Summarize(batch, highConfidence)); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("render %s: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
