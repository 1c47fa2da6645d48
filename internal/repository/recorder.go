package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/cache"
	"SignalForge/pkg/logger"

	"github.com/google/uuid"
)

// BufferedRecorder writes decisions to a RecordSink. A failed append is parked in a
// bounded buffer that a background loop retries with exponential backoff; when the
// buffer is full the record is dropped and counted. Record never returns an error.
type BufferedRecorder struct {
	sink    domrepo.RecordSink
	metrics domrepo.Metrics
	l       *logger.Logger

	locks     cache.Service
	dedupeTTL time.Duration

	buf           chan models.Record
	backoffMin    time.Duration
	backoffMax    time.Duration
	appendTimeout time.Duration

	listeners []domrepo.DecisionListener
	now       func() time.Time

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type RecorderOption func(*BufferedRecorder)

// WithDedupe claims each record id in the cache before appending.
func WithDedupe(locks cache.Service, ttl time.Duration) RecorderOption {
	return func(r *BufferedRecorder) {
		r.locks = locks
		if ttl > 0 {
			r.dedupeTTL = ttl
		}
	}
}

// WithBufferSize sets how many failed records wait for retry.
func WithBufferSize(n int) RecorderOption {
	return func(r *BufferedRecorder) {
		if n > 0 {
			r.buf = make(chan models.Record, n)
		}
	}
}

func WithBackoff(lo, hi time.Duration) RecorderOption {
	return func(r *BufferedRecorder) {
		if lo > 0 {
			r.backoffMin = lo
		}
		if hi >= r.backoffMin {
			r.backoffMax = hi
		}
	}
}

// WithListener registers an observer of successful appends.
func WithListener(l domrepo.DecisionListener) RecorderOption {
	return func(r *BufferedRecorder) {
		if l != nil {
			r.listeners = append(r.listeners, l)
		}
	}
}

// WithAppendTimeout bounds each dedupe claim and sink append.
func WithAppendTimeout(d time.Duration) RecorderOption {
	return func(r *BufferedRecorder) {
		if d > 0 {
			r.appendTimeout = d
		}
	}
}

func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *BufferedRecorder) { r.now = now }
}

func NewBufferedRecorder(sink domrepo.RecordSink, metrics domrepo.Metrics, l *logger.Logger, opts ...RecorderOption) *BufferedRecorder {
	if l == nil {
		l = logger.Nop()
	}
	r := &BufferedRecorder{
		sink:          sink,
		metrics:       metrics,
		l:             l.With(logger.String("component", "decision_recorder")),
		dedupeTTL:     24 * time.Hour,
		buf:           make(chan models.Record, 1000),
		backoffMin:    50 * time.Millisecond,
		backoffMax:    2 * time.Second,
		appendTimeout: 5 * time.Second,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the retry loop.
func (r *BufferedRecorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.wg.Add(1)
	go r.retryLoop()
}

// Stop ends the retry loop and gives each parked record one last attempt.
func (r *BufferedRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	close(r.stopCh)
	r.mu.Unlock()
	r.wg.Wait()

	lost := 0
	for {
		select {
		case rec := <-r.buf:
			if err := r.sink.Append(ctx, rec); err != nil {
				lost++
				continue
			}
			r.notify(rec)
		default:
			if lost > 0 {
				r.l.Warn("decisions lost on shutdown", logger.Int("count", lost))
			}
			return r.sink.Close()
		}
	}
}

// Pending reports how many records wait for retry.
func (r *BufferedRecorder) Pending() int { return len(r.buf) }

// Check fails while the retry buffer is full and new failures are being dropped.
func (r *BufferedRecorder) Check() error {
	if n := len(r.buf); n == cap(r.buf) {
		return fmt.Errorf("decision retry buffer full (%d pending)", n)
	}
	return nil
}

// Record persists payload under entityType. Failures are logged, counted and retried.
func (r *BufferedRecorder) Record(ctx context.Context, entityType string, payload interface{}) {
	start := r.now()
	rec, err := r.build(entityType, payload)
	if err != nil {
		r.metrics.RecordError("recorder_encode")
		r.l.Warn("decision not encodable", logger.String("entity_type", entityType), logger.Error(err))
		return
	}
	if !r.claim(ctx, rec) {
		return
	}

	actx, cancel := context.WithTimeout(ctx, r.appendTimeout)
	defer cancel()
	if err := r.sink.Append(actx, rec); err != nil {
		r.metrics.RecordError("recorder_append")
		r.l.Warn("decision append failed, buffering",
			logger.String("entity_type", rec.EntityType),
			logger.String("id", rec.ID),
			logger.Error(&models.CollaboratorError{Collaborator: "decision_store", Err: err}))
		r.park(rec)
		return
	}
	r.notify(rec)
	r.metrics.RecordLatency("record_append", r.now().Sub(start).Seconds())
}

func (r *BufferedRecorder) build(entityType string, payload interface{}) (models.Record, error) {
	rec := models.Record{EntityType: entityType, RecordedAt: r.now().UTC()}
	if d, ok := payload.(models.Decision); ok {
		rec.ID = d.DecisionID()
		rec.Symbol = d.DecisionSymbol()
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	switch p := payload.(type) {
	case json.RawMessage:
		rec.Payload = p
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return models.Record{}, err
		}
		rec.Payload = b
	}
	return rec, nil
}

// claim returns false when the record id was already taken. Lock errors fail open.
func (r *BufferedRecorder) claim(ctx context.Context, rec models.Record) bool {
	if r.locks == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, r.appendTimeout)
	defer cancel()
	ok, err := r.locks.TryLock(ctx, cache.Key("decision", rec.ID), r.dedupeTTL)
	if err != nil {
		r.metrics.RecordError("recorder_dedupe")
		r.l.Warn("dedupe lock unavailable", logger.String("id", rec.ID), logger.Error(err))
		return true
	}
	if !ok {
		r.metrics.RecordError("recorder_duplicate")
		r.l.Debug("duplicate decision skipped", logger.String("id", rec.ID))
	}
	return ok
}

func (r *BufferedRecorder) park(rec models.Record) {
	select {
	case r.buf <- rec:
	default:
		r.metrics.RecordError("recorder_buffer_drop")
		r.l.Warn("decision buffer full, dropping",
			logger.String("entity_type", rec.EntityType),
			logger.String("id", rec.ID))
	}
}

func (r *BufferedRecorder) notify(rec models.Record) {
	for _, ln := range r.listeners {
		ln.OnRecord(rec)
	}
}

func (r *BufferedRecorder) retryLoop() {
	defer r.wg.Done()
	backoff := r.backoffMin
	for {
		select {
		case <-r.stopCh:
			return
		case rec := <-r.buf:
			ctx, cancel := context.WithTimeout(context.Background(), r.appendTimeout)
			err := r.sink.Append(ctx, rec)
			cancel()
			if err == nil {
				backoff = r.backoffMin
				r.notify(rec)
				continue
			}
			r.metrics.RecordError("recorder_retry")
			r.park(rec)
			select {
			case <-time.After(backoff):
			case <-r.stopCh:
				return
			}
			if backoff *= 2; backoff > r.backoffMax {
				backoff = r.backoffMax
			}
		}
	}
}

var _ domrepo.DecisionRecorder = (*BufferedRecorder)(nil)
