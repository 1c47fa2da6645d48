package usecase

import (
	"context"
	"errors"
	"sync"

	"SignalForge/internal/domain/models"
)

type recorded struct {
	entityType string
	payload    interface{}
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *fakeRecorder) Record(_ context.Context, entityType string, payload interface{}) {
	r.mu.Lock()
	r.calls = append(r.calls, recorded{entityType, payload})
	r.mu.Unlock()
}

func (r *fakeRecorder) entries() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.calls...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []models.Alert
	err    error
}

func (n *fakeNotifier) Notify(_ context.Context, a models.Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
	return n.err
}

type fakeDispatcher struct {
	got chan models.WebhookSignal
	err error
}

func newFakeDispatcher(err error) *fakeDispatcher {
	return &fakeDispatcher{got: make(chan models.WebhookSignal, 8), err: err}
}

func (d *fakeDispatcher) Dispatch(_ context.Context, sig models.WebhookSignal) error {
	d.got <- sig
	return d.err
}

type fakeMetrics struct {
	mu      sync.Mutex
	signals map[string]int
	errors  map[string]int
	preds   map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{signals: map[string]int{}, errors: map[string]int{}, preds: map[string]int{}}
}

func (m *fakeMetrics) RecordPrediction(r string) { m.inc(m.preds, r) }
func (m *fakeMetrics) RecordSignal(r string) { m.inc(m.signals, r) }
func (m *fakeMetrics) RecordError(k string) { m.inc(m.errors, k) }
func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) inc(into map[string]int, k string) {
	m.mu.Lock()
	into[k]++
	m.mu.Unlock()
}

func (m *fakeMetrics) get(from map[string]int, k string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return from[k]
}

type fakeStore struct {
	candles []models.Candle
	err     error
	gotTF   models.Timeframe
	gotN    int
}

func (s *fakeStore) GetLatestNCandles(_ context.Context, _ string, n int, tf models.Timeframe) ([]models.Candle, error) {
	s.gotN, s.gotTF = n, tf
	return s.candles, s.err
}

type fakeAnalyzer struct {
	score float64
	err   error
}

func (a fakeAnalyzer) Analyze(context.Context, string) (models.SentimentAnalysis, error) {
	if a.err != nil {
		return models.SentimentAnalysis{}, a.err
	}
	return models.SentimentAnalysis{Sentiment: models.SentimentPositive, Score: a.score, Confidence: 1}, nil
}

var errDown = errors.New("collaborator down")
