package sentiment

import (
	"context"
	"time"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/domain/service"
	xhttp "SignalForge/pkg/http"
	"SignalForge/pkg/logger"
)

const analyzePath = "/sentiment/analyze"

// HTTPAnalyzer calls an external text-analysis service and falls back to a local
// analyzer when the service is unset or failing.
type HTTPAnalyzer struct {
	baseURL  string
	client   *xhttp.Client
	fallback service.SentimentAnalyzer
	l        *logger.Logger
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func NewHTTPAnalyzer(baseURL string, timeout time.Duration, retries int, fallback service.SentimentAnalyzer, l *logger.Logger) *HTTPAnalyzer {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if fallback == nil {
		fallback = NewLexicalAnalyzer()
	}
	if l == nil {
		l = logger.Nop()
	}
	return &HTTPAnalyzer{
		baseURL:  baseURL,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithRetry(retries, 50*time.Millisecond)),
		fallback: fallback,
		l:        l.With(logger.String("component", "sentiment")),
	}
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, text string) (models.SentimentAnalysis, error) {
	if a.baseURL == "" {
		return a.fallback.Analyze(ctx, text)
	}
	var out models.SentimentAnalysis
	if err := a.client.PostJSON(ctx, a.baseURL+analyzePath, analyzeRequest{Text: text}, &out); err != nil {
		a.l.Warn("sentiment service unavailable, using fallback",
			logger.Error(&models.CollaboratorError{Collaborator: "sentiment", Err: err}))
		return a.fallback.Analyze(ctx, text)
	}
	out.Score = clampPolarity(out.Score)
	if out.Sentiment == "" {
		out.Sentiment = models.SentimentNeutral
	}
	return out, nil
}

var _ service.SentimentAnalyzer = (*HTTPAnalyzer)(nil)
