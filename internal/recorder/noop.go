package recorder

import (
	"context"

	"SwingScreener/internal/model"
)

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ context.Context, _ *model.ScanSummary) (int64, error) {
	return 0, nil
}

func (n *NoopRecorder) History(_ context.Context, _ string, _ int) ([]ScoreRecord, error) {
	return nil, nil
}

func (n *NoopRecorder) Close() error { return nil }
