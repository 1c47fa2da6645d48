package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/pkg/logger"
)

// Querier is the slice of *sql.DB the feature store needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// CHFeatureStore implements FeatureStore backed by ClickHouse candle tables.
type CHFeatureStore struct {
	db       Querier
	database string
	l        *logger.Logger
}

func NewCHFeatureStore(db Querier, database string, l *logger.Logger) *CHFeatureStore {
	if l == nil {
		l = logger.Nop()
	}
	return &CHFeatureStore{db: db, database: database, l: l.With(logger.String("component", "feature_store"))}
}

// GetLatestNCandles returns up to n most recent candles in chronological order.
func (s *CHFeatureStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf models.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	table, err := tableForTF(s.database, tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT bucket, symbol, open, high, low, close, vol
        FROM %s
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, table), symbol, n)
	if err != nil {
		s.l.Error("latest candles query failed",
			logger.String("table", table),
			logger.String("symbol", symbol),
			logger.Error(err))
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, n)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverseCandles(out)

	s.l.Debug("latest candles loaded",
		logger.String("table", table),
		logger.String("symbol", symbol),
		logger.Int("rows", len(out)),
		logger.Duration("duration_ms", time.Since(start)))
	return out, nil
}

func reverseCandles(cs []models.Candle) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}

func tableForTF(database string, tf models.Timeframe) (string, error) {
	var table string
	switch tf {
	case models.TimeframeShort:
		table = "candles_1m"
	case models.TimeframeMedium:
		table = "candles_5m"
	case models.TimeframeLong:
		table = "candles_1h"
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
	if database == "" {
		return table, nil
	}
	return database + "." + table, nil
}

var _ domrepo.FeatureStore = (*CHFeatureStore)(nil)
