package queue

import "context"

// Job handles one message type.
type Job interface {
	Name() string
	Type() string
	// Handle receives the payload as decoded from the queue; use ParsePayload to type it.
	Handle(ctx context.Context, payload interface{}) error
}
