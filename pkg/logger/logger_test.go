package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_FieldsAreStructured(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug")

	l.Info("scored",
		String("symbol", "AAPL"),
		Float64("overall", 0.72),
		Int("points", 20),
		Bool("notified", true),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "scored", entry["message"])
	assert.Equal(t, "AAPL", entry["symbol"])
	assert.Equal(t, 0.72, entry["overall"])
	assert.Equal(t, float64(20), entry["points"])
	assert.Equal(t, true, entry["notified"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_WithAddsComponentFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info").With(String("component", "recorder"))

	l.Warn("buffer full")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "recorder", entry["component"])
	assert.Equal(t, "warn", entry["level"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")
	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())
}

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, value.([]AggregatedLogEntry))
	return nil
}

func TestLogCollector_AggregatesRepeats(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		FlushInterval:  time.Hour,
		CountThreshold: 10,
		Topic:          "logs.errors",
		Service:        "signalforge",
		Publisher:      pub,
	})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "sink append failed", map[string]interface{}{"sink": "clickhouse"}, "recorder.go:10")
	}
	c.AddLog("error", "notify failed", nil, "notify.go:5")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "logs.errors", pub.topic)

	counts := map[string]int{}
	for _, e := range pub.batches[0] {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 3, counts["sink append failed"])
	assert.Equal(t, 1, counts["notify failed"])
}

func TestLogger_ErrorFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{FlushInterval: time.Hour, Publisher: pub})

	l.Error("store down", String("sink", "kafka"))
	l.Warn("not collected")
	assert.Equal(t, 1, l.collector.Pending())

	l.RemoveCollector()
	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "store down", pub.batches[0][0].Message)
}
