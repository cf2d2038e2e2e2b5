package report

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"FuturesSentinel/internal/model"
)

// ParquetRenderer writes Rows as a Parquet file.
type ParquetRenderer struct{}

func (ParquetRenderer) Extension() string { return "parquet" }

func (ParquetRenderer) Render(w io.Writer, batch *model.BatchResult, _ Summary) error {
	return parquet.Write(w, Rows(batch))
}
