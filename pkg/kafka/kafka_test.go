package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(50*time.Millisecond, 2*time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestEncode(t *testing.T) {
	b, err := Encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	b, err = Encode("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))
}

func TestTraceHook(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: traceHeader, Value: []byte("abc")}}}
	ctx, err := TraceHook{}.BeforeHandle(context.Background(), km)
	require.NoError(t, err)
	assert.Equal(t, "abc", TraceIDFrom(ctx))

	ctx, err = TraceHook{}.BeforeHandle(context.Background(), kafka.Message{})
	require.NoError(t, err)
	assert.NotEmpty(t, TraceIDFrom(ctx))
}

func TestHookChain(t *testing.T) {
	var order []string
	chain := HookChain{
		HookFuncs{
			Before: func(ctx context.Context, _ kafka.Message) (context.Context, error) {
				order = append(order, "a.before")
				return WithTraceID(ctx, "t1"), nil
			},
			After: func(context.Context, kafka.Message, error) { order = append(order, "a.after") },
		},
		HookFuncs{
			Before: func(ctx context.Context, _ kafka.Message) (context.Context, error) {
				order = append(order, "b.before:"+TraceIDFrom(ctx))
				return ctx, nil
			},
			After: func(context.Context, kafka.Message, error) { order = append(order, "b.after") },
		},
	}
	ctx, err := chain.BeforeHandle(context.Background(), kafka.Message{})
	require.NoError(t, err)
	chain.AfterHandle(ctx, kafka.Message{}, nil)
	assert.Equal(t, []string{"a.before", "b.before:t1", "b.after", "a.after"}, order)
}

func TestHookChain_PanicBecomesError(t *testing.T) {
	chain := HookChain{HookFuncs{Before: func(context.Context, kafka.Message) (context.Context, error) {
		panic("bad hook")
	}}}
	_, err := chain.BeforeHandle(context.Background(), kafka.Message{})
	require.Error(t, err)

	failing := HookChain{HookFuncs{Before: func(ctx context.Context, _ kafka.Message) (context.Context, error) {
		return ctx, errors.New("reject")
	}}}
	_, err = failing.BeforeHandle(context.Background(), kafka.Message{})
	assert.EqualError(t, err, "reject")
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)

	_, err = NewConsumer(nil)
	assert.Error(t, err)
}
