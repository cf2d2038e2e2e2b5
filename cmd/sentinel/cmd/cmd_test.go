package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesSentinel/internal/config"
	"FuturesSentinel/internal/recorder"
	"FuturesSentinel/internal/report"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, mutate func(*config.Config)) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Symbols = []string{"RB", "CU"}
	cfg.Orchestrator.RatePerSecond = 0
	cfg.Database.SQLitePath = filepath.Join(dir, "sentinel.db")
	cfg.Report.OutputDir = filepath.Join(dir, "reports")
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	return path, cfg
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "sentinel version dev\n", out)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "config.yaml")
	out, _, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")
	assert.FileExists(t, path)

	out, _, err = execute(t, "config", "validate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Source: mock (daily)")
}

func TestConfigValidateFails(t *testing.T) {
	path, _ := writeConfig(t, func(c *config.Config) { c.Orchestrator.Workers = 0 })
	_, _, err := execute(t, "config", "validate", "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orchestrator.workers")
}

func TestRunPrintsJSONAndPersists(t *testing.T) {
	path, cfg := writeConfig(t, nil)
	out, _, err := execute(t, "run", "-c", path, "--format", "json", "--as-of", "2026-03-06")
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, []string{"RB", "CU"}, doc.Batch.Symbols())
	assert.Equal(t, 2, doc.Summary.Succeeded)
	for _, e := range doc.Batch.Entries {
		require.NotNil(t, e.Result, e.Symbol)
		assert.Equal(t, "2026-03-06", e.Result.Timestamp.Format("2006-01-02"))
	}

	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	require.NoError(t, err)
	defer rec.Close()
	rows, err := rec.LatestResults(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	last, err := rec.LastRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, doc.Batch.RunID, last.RunID)
}

func TestRunAsOfDateIncludesThatDayOutsideUTC(t *testing.T) {
	prev := time.Local
	time.Local = time.FixedZone("CST", 8*3600)
	t.Cleanup(func() { time.Local = prev })

	csvDir := t.TempDir()
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	end := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	for i := 39; i >= 0; i-- {
		c := 3500.0 + float64(40-i)
		fmt.Fprintf(&b, "%s,%.1f,%.1f,%.1f,%.1f,1000\n", end.AddDate(0, 0, -i).Format(time.DateOnly), c, c+5, c-5, c)
	}
	require.NoError(t, os.WriteFile(filepath.Join(csvDir, "RB.csv"), []byte(b.String()), 0o644))

	path, _ := writeConfig(t, func(c *config.Config) {
		c.Symbols = []string{"RB"}
		c.DataSource.Kind = "csv"
		c.DataSource.CSVDir = csvDir
	})
	out, _, err := execute(t, "run", "-c", path, "--format", "json", "--as-of", "2026-03-06", "--no-save")
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	res := doc.Batch.Entries[0].Result
	require.NotNil(t, res)
	assert.Equal(t, end, res.Timestamp.UTC())
	assert.Equal(t, 40, res.Bars)

	out, _, err = execute(t, "run", "-c", path, "--format", "json", "--as-of", "2026-03-05T23:00:00Z", "--no-save")
	require.NoError(t, err)
	var earlier report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &earlier))
	require.NotNil(t, earlier.Batch.Entries[0].Result)
	assert.Equal(t, end.AddDate(0, 0, -1), earlier.Batch.Entries[0].Result.Timestamp.UTC())
}

func TestParseAsOf(t *testing.T) {
	got, err := parseAsOf("2026-03-06")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 6, 23, 59, 59, 999999999, time.UTC), got)

	got, err = parseAsOf("2026-03-06T08:00:00+08:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)))

	_, err = parseAsOf("06/03/2026")
	assert.Error(t, err)
}

func TestRunSymbolsFlagAndNoSave(t *testing.T) {
	path, cfg := writeConfig(t, nil)
	out, _, err := execute(t, "run", "-c", path, "--symbols", "AU", "--no-save")
	require.NoError(t, err)
	assert.Contains(t, out, "AU")

	_, err = os.Stat(cfg.Database.SQLitePath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunWritesParquet(t *testing.T) {
	path, cfg := writeConfig(t, nil)
	out, _, err := execute(t, "run", "-c", path, "--format", "parquet", "--output-dir", cfg.Report.OutputDir, "--no-save")
	require.NoError(t, err)
	assert.Contains(t, out, "report written:")

	matches, err := filepath.Glob(filepath.Join(cfg.Report.OutputDir, "analysis_*.parquet"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunRejectsBadFlags(t *testing.T) {
	path, _ := writeConfig(t, nil)

	_, _, err := execute(t, "run", "-c", path, "--format", "xml", "--no-save")
	assert.ErrorContains(t, err, "unsupported report format")

	_, _, err = execute(t, "run", "-c", path, "--format", "parquet", "--no-save")
	assert.ErrorContains(t, err, "--output-dir")

	_, _, err = execute(t, "run", "-c", path, "--as-of", "06/03/2026", "--no-save")
	assert.ErrorContains(t, err, "invalid --as-of")
}
