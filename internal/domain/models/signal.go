package models

import "time"

type SignalAction string

const (
	ActionBuy   SignalAction = "buy"
	ActionSell  SignalAction = "sell"
	ActionClose SignalAction = "close"
)

// Valid reports whether a is one of the recognized actions.
func (a SignalAction) Valid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionClose:
		return true
	default:
		return false
	}
}

const (
	SourceExternal    = "external"
	SourceTradingView = "tradingview"
	SourceKafka       = "kafka"

	// DefaultSignalConfidence applies when an inbound signal carries none.
	DefaultSignalConfidence = 0.7
)

// PartialSignal is an inbound signal before validation; every field may be absent.
type PartialSignal struct {
	Symbol     *string
	Action     *string
	Source     *string
	Timestamp  *time.Time
	Price      *float64
	Quantity   *float64
	Confidence *float64
	Metadata   map[string]interface{}
}

// WebhookSignal is a validated, normalized externally reported trade suggestion.
type WebhookSignal struct {
	ID         string                 `json:"id"`
	Source     string                 `json:"source"`
	Timestamp  time.Time              `json:"timestamp"`
	Symbol     string                 `json:"symbol"`
	Action     SignalAction           `json:"action"`
	Price      *float64               `json:"price,omitempty"`
	Quantity   *float64               `json:"quantity,omitempty"`
	Confidence float64                `json:"confidence"`
	Metadata   map[string]interface{} `json:"metadata"`
}
