package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/internal/service/dispatch"
	"SignalForge/pkg/logger"
	"SignalForge/pkg/queue"
)

// SignalActionJob processes queued signals: it alerts on confident ones and records
// the dispatch. Order execution is not performed.
type SignalActionJob struct {
	recorder      domrepo.DecisionRecorder
	notifier      domsvc.Notifier
	minConfidence float64
	l             *logger.Logger
	now           func() time.Time
}

func NewSignalActionJob(recorder domrepo.DecisionRecorder, notifier domsvc.Notifier, minAlertConfidence float64, l *logger.Logger) *SignalActionJob {
	if l == nil {
		l = logger.Nop()
	}
	return &SignalActionJob{
		recorder:      recorder,
		notifier:      notifier,
		minConfidence: minAlertConfidence,
		l:             l.With(logger.String("job", "signal_action")),
		now:           time.Now,
	}
}

func (j *SignalActionJob) Name() string { return "signal_action" }

func (j *SignalActionJob) Type() string { return dispatch.JobTypeSignalAction }

func (j *SignalActionJob) Handle(ctx context.Context, payload interface{}) error {
	sig, err := queue.ParsePayload[models.WebhookSignal](payload)
	if err != nil {
		return fmt.Errorf("signal action payload: %w", err)
	}

	rec := models.ActionDispatch{
		SignalID:     sig.ID,
		Symbol:       sig.Symbol,
		Action:       sig.Action,
		Confidence:   sig.Confidence,
		DispatchedAt: j.now().UTC(),
	}
	if j.notifier != nil && sig.Confidence >= j.minConfidence {
		if err := j.notifier.Notify(ctx, signalAlert(*sig)); err != nil {
			j.l.Warn("signal alert failed", logger.String("id", sig.ID), logger.Error(err))
		} else {
			rec.Alerted = true
		}
	}

	j.recorder.Record(ctx, models.EntityActionDispatch, rec)
	return nil
}

func signalAlert(sig models.WebhookSignal) models.Alert {
	priority := models.PriorityNormal
	if sig.Confidence >= 0.9 {
		priority = models.PriorityHigh
	}
	body := fmt.Sprintf("source=%s confidence=%.2f at=%s", sig.Source, sig.Confidence, sig.Timestamp.Format(time.RFC3339))
	if sig.Price != nil {
		body += fmt.Sprintf(" price=%g", *sig.Price)
	}
	if sig.Quantity != nil {
		body += fmt.Sprintf(" qty=%g", *sig.Quantity)
	}
	return models.Alert{
		Type:     models.EntitySignal,
		Title:    fmt.Sprintf("%s %s signal", sig.Symbol, sig.Action),
		Body:     body,
		Priority: priority,
	}
}

var _ queue.Job = (*SignalActionJob)(nil)
