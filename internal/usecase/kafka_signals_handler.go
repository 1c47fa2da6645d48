package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	pkgkafka "SignalForge/pkg/kafka"
	"SignalForge/pkg/logger"
)

// KafkaSignalsHandler feeds signal messages from Kafka into intake. Malformed and
// invalid messages are logged and acknowledged; retrying cannot fix them.
type KafkaSignalsHandler struct {
	topic   string
	intake  *SignalIntake
	metrics domrepo.Metrics
	l       *logger.Logger
}

func NewKafkaSignalsHandler(topic string, intake *SignalIntake, metrics domrepo.Metrics, l *logger.Logger) *KafkaSignalsHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &KafkaSignalsHandler{topic: topic, intake: intake, metrics: metrics, l: l.With(logger.String("topic", topic))}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

// incoming message schema: same JSON object as the webhook surface
func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil || raw == nil {
		h.metrics.RecordError("consumer_unmarshal")
		h.l.Warn("signal message not a JSON object", logger.Error(err))
		return nil
	}
	if _, ok := raw["source"]; !ok {
		raw["source"] = models.SourceKafka
	}

	if _, err := h.intake.AcceptRaw(ctx, raw); err != nil {
		if errors.Is(err, models.ErrValidation) {
			h.l.Warn("signal message rejected", logger.Error(err))
			return nil
		}
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
