package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexicalAnalyzer(t *testing.T) {
	a := NewLexicalAnalyzer()
	ctx := context.Background()

	tests := []struct {
		name  string
		text  string
		label models.SentimentLabel
		sign  float64
	}{
		{"positive", "Bitcoin shares surge after strong earnings beat!", models.SentimentPositive, 1},
		{"negative", "Markets crash as bankruptcy fears spread", models.SentimentNegative, -1},
		{"neutral", "The committee meets on Tuesday", models.SentimentNeutral, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Analyze(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.label, got.Sentiment)
			assert.GreaterOrEqual(t, got.Score, -1.0)
			assert.LessOrEqual(t, got.Score, 1.0)
			switch {
			case tt.sign > 0:
				assert.Greater(t, got.Score, 0.0)
			case tt.sign < 0:
				assert.Less(t, got.Score, 0.0)
			default:
				assert.Zero(t, got.Score)
				assert.Zero(t, got.Confidence)
			}
		})
	}
}

func TestLexicalAnalyzer_Confidence(t *testing.T) {
	got, err := NewLexicalAnalyzer().Analyze(context.Background(), "rally rally flat flat")
	require.NoError(t, err)
	assert.InDelta(t, 0.95, got.Score, 1e-9)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)
}

func TestHTTPAnalyzer_UsesService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, analyzePath, r.URL.Path)
		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)
		_ = json.NewEncoder(w).Encode(models.SentimentAnalysis{Sentiment: models.SentimentPositive, Score: 1.7, Confidence: 0.9})
	}))
	defer srv.Close()

	a := NewHTTPAnalyzer(srv.URL, time.Second, 0, nil, nil)
	got, err := a.Analyze(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, got.Sentiment)
	assert.Equal(t, 1.0, got.Score)
}

func TestHTTPAnalyzer_FallsBackOnFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewHTTPAnalyzer(srv.URL, time.Second, 1, nil, nil)
	got, err := a.Analyze(context.Background(), "stocks plunge")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, got.Sentiment)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

type countingAnalyzer struct{ calls int32 }

func (c *countingAnalyzer) Analyze(context.Context, string) (models.SentimentAnalysis, error) {
	atomic.AddInt32(&c.calls, 1)
	return models.SentimentAnalysis{Sentiment: models.SentimentPositive, Score: 0.4, Confidence: 0.5}, nil
}

func TestCachedAnalyzer(t *testing.T) {
	inner := &countingAnalyzer{}
	a := NewCachedAnalyzer(inner, cache.NewMemoryCache(), time.Minute)

	first, err := a.Analyze(context.Background(), "same text")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), "same text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.calls))

	_, err = a.Analyze(context.Background(), "other text")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&inner.calls))
}
