package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu       sync.Mutex
	failures int
	records  []models.Record
}

func (s *fakeSink) Append(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("store down")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeSink) Close() error { return nil }

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: map[string]int{}} }

func (m *fakeMetrics) RecordPrediction(string) {}
func (m *fakeMetrics) RecordSignal(string) {}
func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeListener struct {
	mu   sync.Mutex
	seen []string
}

func (l *fakeListener) OnRecord(rec models.Record) {
	l.mu.Lock()
	l.seen = append(l.seen, rec.ID)
	l.mu.Unlock()
}

func testSignal(id string) models.WebhookSignal {
	return models.WebhookSignal{
		ID:         id,
		Source:     models.SourceExternal,
		Timestamp:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Symbol:     "BTC",
		Action:     models.ActionBuy,
		Confidence: 0.7,
		Metadata:   map[string]interface{}{},
	}
}

func TestBufferedRecorder_Appends(t *testing.T) {
	sink := &fakeSink{}
	ln := &fakeListener{}
	r := NewBufferedRecorder(sink, newFakeMetrics(), nil, WithListener(ln))

	r.Record(context.Background(), models.EntitySignal, testSignal("sig-1"))

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.Equal(t, "sig-1", rec.ID)
	assert.Equal(t, "BTC", rec.Symbol)
	assert.Equal(t, models.EntitySignal, rec.EntityType)

	var decoded models.WebhookSignal
	require.NoError(t, json.Unmarshal(rec.Payload, &decoded))
	assert.Equal(t, models.ActionBuy, decoded.Action)
	assert.Equal(t, []string{"sig-1"}, ln.seen)
}

func TestBufferedRecorder_GeneratesIDForPlainPayload(t *testing.T) {
	sink := &fakeSink{}
	r := NewBufferedRecorder(sink, newFakeMetrics(), nil)

	r.Record(context.Background(), "note", map[string]string{"k": "v"})

	require.Len(t, sink.records, 1)
	assert.NotEmpty(t, sink.records[0].ID)
	assert.JSONEq(t, `{"k":"v"}`, string(sink.records[0].Payload))
}

func TestBufferedRecorder_UnencodablePayloadIsSwallowed(t *testing.T) {
	sink := &fakeSink{}
	m := newFakeMetrics()
	r := NewBufferedRecorder(sink, m, nil)

	assert.NotPanics(t, func() {
		r.Record(context.Background(), "bad", map[string]interface{}{"ch": make(chan int)})
	})
	assert.Zero(t, sink.count())
	assert.Equal(t, 1, m.errorCount("recorder_encode"))
}

func TestBufferedRecorder_DedupesByDecisionID(t *testing.T) {
	sink := &fakeSink{}
	m := newFakeMetrics()
	r := NewBufferedRecorder(sink, m, nil, WithDedupe(cache.NewMemoryCache(), time.Minute))

	sig := testSignal("sig-dup")
	r.Record(context.Background(), models.EntitySignal, sig)
	r.Record(context.Background(), models.EntitySignal, sig)

	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 1, m.errorCount("recorder_duplicate"))
}

func TestBufferedRecorder_RetriesAfterFailure(t *testing.T) {
	sink := &fakeSink{failures: 2}
	m := newFakeMetrics()
	ln := &fakeListener{}
	r := NewBufferedRecorder(sink, m, nil,
		WithBackoff(time.Millisecond, 5*time.Millisecond),
		WithListener(ln))
	r.Start()
	defer func() { _ = r.Stop(context.Background()) }()

	r.Record(context.Background(), models.EntitySignal, testSignal("sig-retry"))

	assert.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, m.errorCount("recorder_append"))
	assert.GreaterOrEqual(t, m.errorCount("recorder_retry"), 1)
}

func TestBufferedRecorder_DropsWhenBufferFull(t *testing.T) {
	sink := &fakeSink{failures: 100}
	m := newFakeMetrics()
	r := NewBufferedRecorder(sink, m, nil, WithBufferSize(1))

	r.Record(context.Background(), models.EntitySignal, testSignal("a"))
	r.Record(context.Background(), models.EntitySignal, testSignal("b"))

	assert.Equal(t, 1, r.Pending())
	assert.Equal(t, 1, m.errorCount("recorder_buffer_drop"))
	assert.Error(t, r.Check())
}

func TestBufferedRecorder_StopFlushesParked(t *testing.T) {
	sink := &fakeSink{failures: 1}
	r := NewBufferedRecorder(sink, newFakeMetrics(), nil)

	require.NoError(t, r.Check())
	r.Record(context.Background(), models.EntitySignal, testSignal("late"))
	require.Equal(t, 1, r.Pending())

	r.Start()
	require.NoError(t, r.Stop(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestBufferedRecorder_ConcurrentRecords(t *testing.T) {
	sink := NewMemorySink()
	r := NewBufferedRecorder(sink, newFakeMetrics(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record(context.Background(), "note", map[string]int{"n": 1})
		}()
	}
	wg.Wait()
	assert.Len(t, sink.Records(), 50)
}

type hangSink struct{}

func (hangSink) Append(ctx context.Context, _ models.Record) error {
	<-ctx.Done()
	return ctx.Err()
}

func (hangSink) Close() error { return nil }

type hangLocks struct{ cache.Service }

func (hangLocks) TryLock(ctx context.Context, _ string, _ time.Duration) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestBufferedRecorder_HungSinkDoesNotBlockCaller(t *testing.T) {
	m := newFakeMetrics()
	r := NewBufferedRecorder(hangSink{}, m, nil, WithAppendTimeout(50*time.Millisecond))

	done := make(chan struct{})
	go func() {
		r.Record(context.WithoutCancel(context.Background()), models.EntitySignal, testSignal("stuck"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a hung store")
	}
	assert.Equal(t, 1, r.Pending())
	assert.Equal(t, 1, m.errorCount("recorder_append"))
}

func TestBufferedRecorder_HungLocksFailOpen(t *testing.T) {
	sink := &fakeSink{}
	m := newFakeMetrics()
	r := NewBufferedRecorder(sink, m, nil,
		WithDedupe(hangLocks{}, time.Minute),
		WithAppendTimeout(50*time.Millisecond))

	start := time.Now()
	r.Record(context.WithoutCancel(context.Background()), models.EntitySignal, testSignal("slow-lock"))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, m.errorCount("recorder_dedupe"))
	assert.Equal(t, 1, sink.count())
}

func TestPredictionDecisionIDIsStable(t *testing.T) {
	p := models.PredictionResult{Symbol: "ETH", TimeHorizon: models.TimeframeShort, GeneratedAt: time.Unix(100, 0)}
	assert.Equal(t, p.DecisionID(), p.DecisionID())

	q := p
	q.GeneratedAt = time.Unix(101, 0)
	assert.NotEqual(t, p.DecisionID(), q.DecisionID())
}

type fakeExecer struct {
	query string
	args  []interface{}
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, q string, args ...interface{}) (sql.Result, error) {
	f.query, f.args = q, args
	return nil, f.err
}

func TestClickHouseSink_Append(t *testing.T) {
	db := &fakeExecer{}
	s := NewClickHouseSink(db, "signalforge.decisions")
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	err := s.Append(context.Background(), models.Record{
		ID: "r1", EntityType: models.EntityPrediction, Symbol: "BTC",
		Payload: json.RawMessage(`{"a":1}`), RecordedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO signalforge.decisions (id, entity_type, symbol, payload, recorded_at) VALUES (?, ?, ?, ?, ?)", db.query)
	assert.Equal(t, []interface{}{"r1", models.EntityPrediction, "BTC", `{"a":1}`, at}, db.args)

	db.err = errors.New("boom")
	assert.Error(t, s.Append(context.Background(), models.Record{}))
}

type fakePublisher struct {
	topic string
	key   []byte
	value interface{}
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func TestKafkaSink_KeysBySymbol(t *testing.T) {
	pub := &fakePublisher{}
	s := NewKafkaSink(pub, "decisions")
	rec := models.Record{ID: "r1", Symbol: "SOL"}

	require.NoError(t, s.Append(context.Background(), rec))
	assert.Equal(t, "decisions", pub.topic)
	assert.Equal(t, []byte("SOL"), pub.key)
	assert.Equal(t, rec, pub.value)
}

func TestTableForTF(t *testing.T) {
	table, err := tableForTF("market", models.TimeframeMedium)
	require.NoError(t, err)
	assert.Equal(t, "market.candles_5m", table)

	table, err = tableForTF("", models.TimeframeLong)
	require.NoError(t, err)
	assert.Equal(t, "candles_1h", table)

	_, err = tableForTF("market", models.Timeframe("weekly"))
	assert.Error(t, err)
}

func TestReverseCandles(t *testing.T) {
	cs := []models.Candle{{Close: 3}, {Close: 2}, {Close: 1}}
	reverseCandles(cs)
	assert.Equal(t, []float64{1, 2, 3}, []float64{cs[0].Close, cs[1].Close, cs[2].Close})
}
