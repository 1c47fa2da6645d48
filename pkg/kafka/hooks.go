package kafka

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const traceHeader = "trace_id"

// ConsumerHook wraps message handling. A BeforeHandle error skips the handler and
// the message goes through error processing (DLQ, commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

// HookFuncs adapts plain functions; nil funcs are no-ops.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, error)
	After  func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, km)
}

func (h HookFuncs) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, km, err)
	}
}

// TraceHook carries the producer's trace id into the handler context, minting one when absent.
type TraceHook struct{}

func (TraceHook) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	tid := ExtractTraceID(km)
	if tid == "" {
		tid = uuid.NewString()
	}
	return WithTraceID(ctx, tid), nil
}

func (TraceHook) AfterHandle(context.Context, kafka.Message, error) {}

// HookChain runs hooks in order before handling and in reverse after.
// A panicking hook is converted into an error.
type HookChain []ConsumerHook

func (c HookChain) BeforeHandle(ctx context.Context, km kafka.Message) (out context.Context, err error) {
	out = ctx
	for _, h := range c {
		if h == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("hook panic: %v", r)
				}
			}()
			out, err = h.BeforeHandle(out, km)
		}()
		if err != nil {
			return ctx, err
		}
	}
	return out, nil
}

func (c HookChain) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] == nil {
			continue
		}
		func() {
			defer func() { _ = recover() }()
			c[i].AfterHandle(ctx, km, err)
		}()
	}
}

type ctxKey string

const ctxTraceID ctxKey = "kafka_trace_id"

func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxTraceID, traceID)
}

func TraceIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(ctxTraceID).(string)
	return s
}

func ExtractTraceID(km kafka.Message) string {
	for _, h := range km.Headers {
		if h.Key == traceHeader && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}
