package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"FuturesSentinel/internal/model"
)

// CSVSource reads daily bars from <Dir>/<symbol>.csv with the columns
//
//	date,open,high,low,close,volume
//
// where date is YYYY-MM-DD or RFC3339. A header row is allowed.
type CSVSource struct {
	Dir string
}

// NewCSVSource creates a source over dir.
func NewCSVSource(dir string) *CSVSource { return &CSVSource{Dir: dir} }

func (s *CSVSource) Name() string { return "csv" }

// Ping fails with model.ErrSourceUnavailable when Dir is missing.
func (s *CSVSource) Ping(context.Context) error {
	info, err := os.Stat(s.Dir)
	if err != nil {
		return &model.FetchError{Source: s.Name(), Err: fmt.Errorf("%w: %w", model.ErrSourceUnavailable, err)}
	}
	if !info.IsDir() {
		return &model.FetchError{Source: s.Name(), Err: fmt.Errorf("%w: %s is not a directory", model.ErrSourceUnavailable, s.Dir)}
	}
	return nil
}

// Fetch implements BarSource. Rows are returned in file order; ordering
// problems are left for validation to report.
func (s *CSVSource) Fetch(ctx context.Context, symbol string, freq model.Frequency, asOf time.Time) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.ContainsAny(symbol, `/\`) || symbol == "" || symbol == "." || symbol == ".." {
		return nil, &model.FetchError{Symbol: symbol, Source: s.Name(), Err: errors.New("invalid symbol")}
	}
	f, err := os.Open(filepath.Join(s.Dir, symbol+".csv"))
	if err != nil {
		return nil, &model.FetchError{Symbol: symbol, Source: s.Name(), Err: err}
	}
	defer f.Close()

	bars, err := readBars(f, symbol)
	if err != nil {
		return nil, &model.FetchError{Symbol: symbol, Source: s.Name(), Err: err}
	}
	bars = model.TrimAfter(bars, asOf)
	if freq == model.FrequencyWeekly {
		bars = AggregateWeekly(bars)
	}
	return bars, nil
}

func readBars(r io.Reader, symbol string) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []model.Bar
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
			continue
		}
		bar, err := parseBarRow(row, symbol)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
}

func parseBarRow(row []string, symbol string) (model.Bar, error) {
	if len(row) < 6 {
		return model.Bar{}, fmt.Errorf("expected 6 columns, got %d", len(row))
	}
	ts, err := parseBarTime(strings.TrimSpace(row[0]))
	if err != nil {
		return model.Bar{}, err
	}
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return model.Bar{}, fmt.Errorf("bad number %q: %w", row[i+1], err)
		}
		vals[i] = v
	}
	return model.Bar{
		Symbol: symbol,
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func parseBarTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q", s)
	}
	return t, nil
}
