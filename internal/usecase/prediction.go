package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	domsvc "SignalForge/internal/domain/service"
	"SignalForge/internal/services/features"
	"SignalForge/internal/services/scoring"
	"SignalForge/pkg/logger"
)

// ErrNoFeatureStore is returned by PredictFromStore when no candle store is wired.
var ErrNoFeatureStore = errors.New("feature store not configured")

// HistoryRequest asks for a prediction over stored candles.
type HistoryRequest struct {
	Symbol     string
	Timeframe  models.Timeframe
	N          int
	NewsText   string
	NewsImpact float64
}

// PredictionService runs the scoring engine and fans the result out to the
// recorder and notifier. Both side effects are best-effort.
type PredictionService struct {
	engine   *scoring.Engine
	store    domrepo.FeatureStore
	analyzer domsvc.SentimentAnalyzer
	recorder domrepo.DecisionRecorder
	notifier domsvc.Notifier
	metrics  domrepo.Metrics
	l        *logger.Logger
}

func NewPredictionService(
	engine *scoring.Engine,
	store domrepo.FeatureStore,
	analyzer domsvc.SentimentAnalyzer,
	recorder domrepo.DecisionRecorder,
	notifier domsvc.Notifier,
	metrics domrepo.Metrics,
	l *logger.Logger,
) *PredictionService {
	if l == nil {
		l = logger.Nop()
	}
	return &PredictionService{
		engine:   engine,
		store:    store,
		analyzer: analyzer,
		recorder: recorder,
		notifier: notifier,
		metrics:  metrics,
		l:        l.With(logger.String("component", "prediction")),
	}
}

// Predict scores in. A returned result is complete regardless of what happens to
// persistence or alerting afterwards.
func (s *PredictionService) Predict(ctx context.Context, in models.PredictionInput) (models.PredictionResult, error) {
	start := time.Now()
	res, err := s.engine.Score(in)
	if err != nil {
		s.metrics.RecordError("predict_input")
		return models.PredictionResult{}, err
	}
	s.metrics.RecordPrediction(string(res.Recommendation))
	s.metrics.RecordLatency("predict", time.Since(start).Seconds())

	bg := context.WithoutCancel(ctx)
	s.recorder.Record(bg, models.EntityPrediction, res)
	s.alert(bg, res)

	s.l.Debug("prediction scored",
		logger.String("symbol", res.Symbol),
		logger.String("recommendation", string(res.Recommendation)),
		logger.Float64("overall", res.OverallScore),
		logger.Float64("confidence", res.Confidence))
	return res, nil
}

// PredictFromStore loads recent candles, derives indicators and optional news
// sentiment, then scores through Predict.
func (s *PredictionService) PredictFromStore(ctx context.Context, req HistoryRequest) (models.PredictionResult, error) {
	if s.store == nil {
		return models.PredictionResult{}, ErrNoFeatureStore
	}
	candles, err := s.store.GetLatestNCandles(ctx, req.Symbol, req.N, req.Timeframe)
	if err != nil {
		s.metrics.RecordError("feature_store")
		return models.PredictionResult{}, fmt.Errorf("load candles: %w", err)
	}

	sentiment := scoring.Neutral
	if req.NewsText != "" && s.analyzer != nil {
		a, err := s.analyzer.Analyze(ctx, req.NewsText)
		if err != nil {
			s.l.Warn("news sentiment unavailable", logger.String("symbol", req.Symbol), logger.Error(err))
		} else {
			sentiment = scoring.FromPolarity(a.Score)
		}
	}

	return s.Predict(ctx, features.BuildInput(req.Symbol, req.Timeframe, candles, sentiment, req.NewsImpact))
}

func (s *PredictionService) alert(ctx context.Context, res models.PredictionResult) {
	if s.notifier == nil || !res.Recommendation.Actionable() {
		return
	}
	priority := models.PriorityNormal
	if res.Recommendation == models.RecommendationStrongBuy || res.Recommendation == models.RecommendationStrongSell {
		priority = models.PriorityHigh
	}
	alert := models.Alert{
		Type:     models.EntityPrediction,
		Title:    fmt.Sprintf("%s %s", res.Symbol, res.Recommendation),
		Body:     fmt.Sprintf("direction=%s overall=%.3f confidence=%.3f risk=%s target=%.4f horizon=%s", res.Direction, res.OverallScore, res.Confidence, res.RiskLevel, res.TargetPrice, res.TimeHorizon),
		Priority: priority,
	}
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.metrics.RecordError("notify")
		s.l.Warn("prediction alert failed", logger.String("symbol", res.Symbol), logger.Error(err))
	}
}
