package sentiment

import (
	"context"
	"errors"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/domain/service"
	"SignalForge/pkg/cache"
)

// CachedAnalyzer memoizes results by text digest.
type CachedAnalyzer struct {
	inner service.SentimentAnalyzer
	cache cache.Service
	ttl   time.Duration
}

func NewCachedAnalyzer(inner service.SentimentAnalyzer, c cache.Service, ttl time.Duration) *CachedAnalyzer {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedAnalyzer{inner: inner, cache: c, ttl: ttl}
}

func (a *CachedAnalyzer) Analyze(ctx context.Context, text string) (models.SentimentAnalysis, error) {
	key := cache.Key("sentiment", cache.HashKey(text))

	var hit models.SentimentAnalysis
	err := a.cache.Get(ctx, key, &hit)
	if err == nil {
		return hit, nil
	}

	out, aerr := a.inner.Analyze(ctx, text)
	if aerr != nil {
		return out, aerr
	}
	// only cache when the cache itself is healthy
	if errors.Is(err, cache.ErrCacheMiss) {
		_ = a.cache.Set(ctx, key, out, a.ttl)
	}
	return out, nil
}

var _ service.SentimentAnalyzer = (*CachedAnalyzer)(nil)
