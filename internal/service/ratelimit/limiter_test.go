package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(2, 1, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
}

func TestLimiter_Disabled(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("k"))
	}
	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow("k"))
}

func TestLimiter_ForgetsRefilledBuckets(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(2, 1, WithClock(func() time.Time { return now }))

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		assert.True(t, l.Allow(ip))
	}
	assert.Equal(t, 3, l.Len())

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.Equal(t, 3, l.Len(), "nothing is swept before the buckets could refill")

	now = now.Add(2 * time.Second)
	assert.True(t, l.Allow("10.0.0.9"))
	assert.Equal(t, 1, l.Len(), "idle buckets are dropped once full again")
}

func TestLimiter_SweepKeepsActiveLimits(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(2, 1, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("hot"))
	assert.True(t, l.Allow("hot"))
	assert.True(t, l.Allow("cold"))

	now = now.Add(1900 * time.Millisecond)
	assert.True(t, l.Allow("hot"))
	now = now.Add(200 * time.Millisecond)
	assert.True(t, l.Allow("hot"))
	assert.False(t, l.Allow("hot"), "a recently drained bucket survives the sweep")
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_NoRefillNeverForgets(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(1, 0, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("k"))
	now = now.Add(24 * time.Hour)
	assert.False(t, l.Allow("k"))
	assert.Equal(t, 1, l.Len())
}
