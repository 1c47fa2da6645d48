package usecase

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/logger"

	"github.com/google/uuid"
)

type IntakeConfig struct {
	DefaultSource     string
	DefaultConfidence float64
	DispatchTimeout   time.Duration
}

// SignalIntake validates inbound signals, records every accepted one and hands it
// to action dispatch without waiting on the outcome.
type SignalIntake struct {
	cfg        IntakeConfig
	recorder   domrepo.DecisionRecorder
	dispatcher domrepo.ActionDispatcher
	metrics    domrepo.Metrics
	l          *logger.Logger
	now        func() time.Time
	newID      func() string

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

type IntakeOption func(*SignalIntake)

func WithIntakeClock(now func() time.Time) IntakeOption {
	return func(s *SignalIntake) { s.now = now }
}

func WithIDGenerator(fn func() string) IntakeOption {
	return func(s *SignalIntake) { s.newID = fn }
}

func NewSignalIntake(cfg IntakeConfig, recorder domrepo.DecisionRecorder, dispatcher domrepo.ActionDispatcher, metrics domrepo.Metrics, l *logger.Logger, opts ...IntakeOption) *SignalIntake {
	if cfg.DefaultSource == "" {
		cfg.DefaultSource = models.SourceExternal
	}
	if cfg.DefaultConfidence <= 0 || cfg.DefaultConfidence > 1 {
		cfg.DefaultConfidence = models.DefaultSignalConfidence
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 5 * time.Second
	}
	if l == nil {
		l = logger.Nop()
	}
	s := &SignalIntake{
		cfg:        cfg,
		recorder:   recorder,
		dispatcher: dispatcher,
		metrics:    metrics,
		l:          l.With(logger.String("component", "intake")),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AcceptRaw parses a decoded JSON object and accepts it.
func (s *SignalIntake) AcceptRaw(ctx context.Context, raw map[string]interface{}) (models.WebhookSignal, error) {
	p, err := ParsePartialSignal(raw)
	if err != nil {
		s.metrics.RecordSignal("rejected")
		return models.WebhookSignal{}, err
	}
	return s.Accept(ctx, p)
}

// Accept normalizes p. A *models.ValidationError means nothing was recorded.
func (s *SignalIntake) Accept(ctx context.Context, p models.PartialSignal) (models.WebhookSignal, error) {
	sig, err := s.normalize(p)
	if err != nil {
		s.metrics.RecordSignal("rejected")
		s.l.Debug("signal rejected", logger.Error(err))
		return models.WebhookSignal{}, err
	}
	s.metrics.RecordSignal("accepted")

	bg := context.WithoutCancel(ctx)
	s.recorder.Record(bg, models.EntitySignal, sig)
	if s.track() {
		go func() {
			defer s.inflight.Done()
			s.dispatch(bg, sig)
		}()
	} else {
		s.metrics.RecordError("action_dispatch_closed")
		s.l.Warn("intake closing, action not dispatched", logger.String("id", sig.ID))
	}

	s.l.Info("signal accepted",
		logger.String("id", sig.ID),
		logger.String("symbol", sig.Symbol),
		logger.String("action", string(sig.Action)),
		logger.String("source", sig.Source))
	return sig, nil
}

// Close stops new dispatches and waits for in-flight ones until ctx ends.
// Signals accepted afterwards are still recorded.
func (s *SignalIntake) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SignalIntake) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.inflight.Add(1)
	return true
}

func (s *SignalIntake) normalize(p models.PartialSignal) (models.WebhookSignal, error) {
	if p.Symbol == nil || strings.TrimSpace(*p.Symbol) == "" {
		return models.WebhookSignal{}, &models.ValidationError{Field: "symbol", Reason: "symbol is required"}
	}
	if p.Action == nil || strings.TrimSpace(*p.Action) == "" {
		return models.WebhookSignal{}, &models.ValidationError{Field: "action", Reason: "action is required"}
	}
	action := models.SignalAction(strings.ToLower(strings.TrimSpace(*p.Action)))
	if !action.Valid() {
		return models.WebhookSignal{}, &models.ValidationError{Field: "action", Reason: "action must be one of buy, sell, close"}
	}
	if p.Price != nil && (*p.Price < 0 || math.IsNaN(*p.Price) || math.IsInf(*p.Price, 0)) {
		return models.WebhookSignal{}, &models.ValidationError{Field: "price", Reason: "price must be a non-negative number"}
	}
	if p.Quantity != nil && (*p.Quantity < 0 || math.IsNaN(*p.Quantity) || math.IsInf(*p.Quantity, 0)) {
		return models.WebhookSignal{}, &models.ValidationError{Field: "quantity", Reason: "quantity must be a non-negative number"}
	}

	sig := models.WebhookSignal{
		ID:         s.newID(),
		Source:     s.cfg.DefaultSource,
		Timestamp:  s.now().UTC(),
		Symbol:     strings.TrimSpace(*p.Symbol),
		Action:     action,
		Price:      p.Price,
		Quantity:   p.Quantity,
		Confidence: s.cfg.DefaultConfidence,
		Metadata:   p.Metadata,
	}
	if p.Source != nil && strings.TrimSpace(*p.Source) != "" {
		sig.Source = strings.TrimSpace(*p.Source)
	}
	if p.Timestamp != nil && !p.Timestamp.IsZero() {
		sig.Timestamp = p.Timestamp.UTC()
	}
	if p.Confidence != nil && !math.IsNaN(*p.Confidence) {
		sig.Confidence = math.Max(0, math.Min(1, *p.Confidence))
	}
	if sig.Metadata == nil {
		sig.Metadata = map[string]interface{}{}
	}
	return sig, nil
}

func (s *SignalIntake) dispatch(ctx context.Context, sig models.WebhookSignal) {
	if s.dispatcher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
	defer cancel()
	if err := s.dispatcher.Dispatch(ctx, sig); err != nil {
		s.metrics.RecordError("action_dispatch")
		s.l.Warn("action dispatch failed", logger.String("id", sig.ID), logger.Error(err))
	}
}
