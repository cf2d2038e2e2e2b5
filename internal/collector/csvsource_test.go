package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesSentinel/internal/model"
)

func writeCSV(t *testing.T, dir, symbol, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(content), 0o644))
}

func TestCSVSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "RB", `date,open,high,low,close,volume
2024-01-02,3500,3520,3490,3510,1000
2024-01-03,3510,3530,3500,3525,1100
2024-01-04T15:00:00Z,3525,3540,3515,3530,900
`)
	s := NewCSVSource(dir)
	require.NoError(t, s.Ping(context.Background()))

	bars, err := s.Fetch(context.Background(), "RB", model.FrequencyDaily, time.Date(2024, 1, 3, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 3525.0, bars[1].Close)
	assert.Equal(t, "RB", bars[0].Symbol)
}

func TestCSVSource_Errors(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "BAD", "2024-01-02,3500,x,3490,3510,1000\n")
	s := NewCSVSource(dir)

	_, err := s.Fetch(context.Background(), "BAD", model.FrequencyDaily, time.Time{})
	var fe *model.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, err.Error(), "line 1")

	_, err = s.Fetch(context.Background(), "MISSING", model.FrequencyDaily, time.Time{})
	require.True(t, errors.As(err, &fe))
	assert.False(t, errors.Is(err, model.ErrSourceUnavailable))

	_, err = s.Fetch(context.Background(), "../etc/passwd", model.FrequencyDaily, time.Time{})
	assert.Error(t, err)
}

func TestCSVSource_MissingDirIsFatal(t *testing.T) {
	s := NewCSVSource(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, errors.Is(s.Ping(context.Background()), model.ErrSourceUnavailable))
}
