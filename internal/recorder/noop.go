package recorder

import (
	"context"

	"FuturesSentinel/internal/model"
)

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) SaveAnalysis(context.Context, *model.AnalysisResult) error { return nil }
func (n *NoopRecorder) RecordRun(context.Context, *model.BatchResult) error       { return nil }
func (n *NoopRecorder) LatestResults(context.Context, int) ([]AnalysisRow, error) { return nil, nil }
func (n *NoopRecorder) History(context.Context, string, int) ([]AnalysisRow, error) {
	return nil, nil
}
func (n *NoopRecorder) LastRun(context.Context) (*RunRecord, error) { return nil, nil }
func (n *NoopRecorder) SaveSeries(context.Context, string, []model.Bar, []model.IndicatorSet) error {
	return nil
}
func (n *NoopRecorder) Bars(context.Context, string, int) ([]model.Bar, error) { return nil, nil }
func (n *NoopRecorder) IndicatorHistory(context.Context, string, int) ([]model.IndicatorSet, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
