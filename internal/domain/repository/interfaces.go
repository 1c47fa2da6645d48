package repository

import (
	"context"

	"SignalForge/internal/domain/models"
)

// DecisionRecorder persists decisions as best-effort, append-only audit records.
// Record never fails from the caller's point of view.
type DecisionRecorder interface {
	Record(ctx context.Context, entityType string, payload interface{})
}

// RecordSink is the storage backend behind a DecisionRecorder.
// Implementations must tolerate concurrent Append calls.
type RecordSink interface {
	Append(ctx context.Context, rec models.Record) error
	Close() error
}

// DecisionListener observes records after a successful append.
type DecisionListener interface {
	OnRecord(rec models.Record)
}

// ActionDispatcher forwards accepted signals to automated-action processing.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, sig models.WebhookSignal) error
}

type Metrics interface {
	RecordPrediction(recommendation string)
	RecordSignal(result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
