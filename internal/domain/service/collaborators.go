package service

import (
	"context"

	"SignalForge/internal/domain/models"
)

// SentimentAnalyzer turns free text into a sentiment score.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (models.SentimentAnalysis, error)
}

// Notifier delivers structured alerts to a chat-style channel.
type Notifier interface {
	Notify(ctx context.Context, alert models.Alert) error
}
