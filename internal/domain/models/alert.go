package models

type AlertPriority string

const (
	PriorityLow    AlertPriority = "low"
	PriorityNormal AlertPriority = "normal"
	PriorityHigh   AlertPriority = "high"
)

// Rank orders priorities for threshold checks.
func (p AlertPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// Alert is the structured message handed to the notification dispatcher.
type Alert struct {
	Type     string        `json:"type"`
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	Priority AlertPriority `json:"priority"`
}
