package dispatch

import (
	"context"
	"fmt"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/queue"
)

// JobTypeSignalAction is the queue message type for accepted signals.
const JobTypeSignalAction = "signal.action"

// QueueDispatcher hands accepted signals to the Redis job queue.
type QueueDispatcher struct {
	q queue.QueueService
}

func NewQueueDispatcher(q queue.QueueService) *QueueDispatcher {
	return &QueueDispatcher{q: q}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, sig models.WebhookSignal) error {
	if err := d.q.PublishMessage(ctx, JobTypeSignalAction, sig); err != nil {
		return &models.CollaboratorError{Collaborator: "action_queue", Err: fmt.Errorf("enqueue %s: %w", sig.ID, err)}
	}
	return nil
}

// Nop accepts and discards signals; used when actions are disabled.
type Nop struct{}

func (Nop) Dispatch(context.Context, models.WebhookSignal) error { return nil }

var (
	_ domrepo.ActionDispatcher = (*QueueDispatcher)(nil)
	_ domrepo.ActionDispatcher = Nop{}
)
