package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FuturesSentinel/internal/model"
)

const chartJSON = `{"chart":{"result":[{"timestamp":[1704204000,1704290400,1704376800,1704463200],
"indicators":{"quote":[{"open":[10,11,null,13],"high":[10.5,11.5,null,13.5],"low":[9.5,10.5,null,12.5],
"close":[10.2,11.2,null,13.2],"volume":[100,200,null,400]}]}}],"error":null}}`

func TestYahooSource_Fetch(t *testing.T) {
	var gotPath, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	s := NewYahooSource("")
	s.BaseURL = srv.URL

	asOf := time.Unix(1704376800, 0).UTC()
	bars, err := s.Fetch(context.Background(), "AU", model.FrequencyDaily, asOf)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/GC=F", gotPath)
	assert.Equal(t, "1d", gotInterval)
	// null row skipped, row after asOf trimmed
	require.Len(t, bars, 2)
	assert.Equal(t, 11.2, bars[1].Close)
	assert.Equal(t, "AU", bars[0].Symbol)
}

func TestYahooSource_WeeklyInterval(t *testing.T) {
	var gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotInterval = r.URL.Query().Get("interval")
		w.Write([]byte(chartJSON))
	}))
	defer srv.Close()

	s := NewYahooSource("")
	s.BaseURL = srv.URL
	_, err := s.Fetch(context.Background(), "SPX", model.FrequencyWeekly, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "1wk", gotInterval)
}

func TestYahooSource_HTTPErrorIsPerSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"chart":{"error":{"code":"Not Found"}}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewYahooSource("")
	s.BaseURL = srv.URL
	_, err := s.Fetch(context.Background(), "NOPE", model.FrequencyDaily, time.Now())

	var fe *model.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "NOPE", fe.Symbol)
	assert.Contains(t, err.Error(), "status 404")
	assert.False(t, errors.Is(err, model.ErrSourceUnavailable))
}

func TestYahooSource_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad","description":"No data found"}}}`))
	}))
	defer srv.Close()

	s := NewYahooSource("")
	s.BaseURL = srv.URL
	_, err := s.Fetch(context.Background(), "RB", model.FrequencyDaily, time.Now())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "No data found"))
}

func TestYahooSource_UnreachableHostIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewYahooSource("")
	s.BaseURL = url

	_, err := s.Fetch(context.Background(), "AU", model.FrequencyDaily, time.Now())
	assert.True(t, errors.Is(err, model.ErrSourceUnavailable))
	assert.True(t, errors.Is(s.Ping(context.Background()), model.ErrSourceUnavailable))
}

func TestYahooSource_PartialRowUsesClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1704204000,1704290400],
"indicators":{"quote":[{"open":[10,null],"high":[10.5,null],"low":[9.5,null],
"close":[10.2,11.2],"volume":[100,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	s := NewYahooSource("")
	s.BaseURL = srv.URL
	bars, err := s.Fetch(context.Background(), "AU", model.FrequencyDaily, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 2)

	b := bars[1]
	assert.Equal(t, 11.2, b.Open)
	assert.Equal(t, 11.2, b.High)
	assert.Equal(t, 11.2, b.Low)
	assert.Equal(t, 0.0, b.Volume)
	for _, bar := range bars {
		assert.LessOrEqual(t, bar.Low, bar.Close)
		assert.GreaterOrEqual(t, bar.High, bar.Close)
	}
}
