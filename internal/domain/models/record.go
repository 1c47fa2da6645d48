package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity types written to the decision store.
const (
	EntityPrediction     = "prediction"
	EntitySignal         = "webhook_signal"
	EntityActionDispatch = "action_dispatch"
)

// Record is one immutable audit row.
type Record struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	Symbol     string          `json:"symbol"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Decision is implemented by payloads that carry a stable identity.
// Recording the same decision twice yields one record.
type Decision interface {
	DecisionID() string
	DecisionSymbol() string
}

var decisionNamespace = uuid.MustParse("5b0e3c52-1d0b-4f8e-9a51-0c8f3f2a9d17")

// DecisionID derives a deterministic id from symbol, horizon and generation time.
func (p PredictionResult) DecisionID() string {
	key := fmt.Sprintf("%s|%s|%s|%d", EntityPrediction, p.Symbol, p.TimeHorizon, p.GeneratedAt.UnixNano())
	return uuid.NewSHA1(decisionNamespace, []byte(key)).String()
}

func (p PredictionResult) DecisionSymbol() string { return p.Symbol }

func (s WebhookSignal) DecisionID() string { return s.ID }

func (s WebhookSignal) DecisionSymbol() string { return s.Symbol }

// ActionDispatch records that an accepted signal went through automated-action processing.
type ActionDispatch struct {
	SignalID     string       `json:"signal_id"`
	Symbol       string       `json:"symbol"`
	Action       SignalAction `json:"action"`
	Confidence   float64      `json:"confidence"`
	Alerted      bool         `json:"alerted"`
	DispatchedAt time.Time    `json:"dispatched_at"`
}

func (a ActionDispatch) DecisionID() string {
	return uuid.NewSHA1(decisionNamespace, []byte(EntityActionDispatch+"|"+a.SignalID)).String()
}

func (a ActionDispatch) DecisionSymbol() string { return a.Symbol }
