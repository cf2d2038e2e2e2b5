package report

import (
	"encoding/json"
	"io"

	"FuturesSentinel/internal/model"
)

// JSONRenderer writes {"summary": ..., "batch": ...}.
type JSONRenderer struct {
	Indent bool
}

func (JSONRenderer) Extension() string { return "json" }

// Document is the JSON report shape.
type Document struct {
	Summary Summary            `json:"summary"`
	Batch   *model.BatchResult `json:"batch"`
}

func (r JSONRenderer) Render(w io.Writer, batch *model.BatchResult, sum Summary) error {
	enc := json.NewEncoder(w)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(Document{Summary: sum, Batch: batch})
}
