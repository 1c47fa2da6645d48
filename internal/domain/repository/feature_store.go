package repository

import (
	"context"

	"SignalForge/internal/domain/models"
)

// FeatureStore provides read-only access to stored candles.
type FeatureStore interface {
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf models.Timeframe) ([]models.Candle, error)
}
