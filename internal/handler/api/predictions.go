package api

import (
	"context"

	"SignalForge/internal/domain/models"
	domrepo "SignalForge/internal/domain/repository"
	"SignalForge/internal/services/scoring"
	"SignalForge/internal/usecase"
	xhttp "SignalForge/pkg/http"
	xlogger "SignalForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Predictor is the scoring surface the prediction routes depend on.
type Predictor interface {
	Predict(ctx context.Context, in models.PredictionInput) (models.PredictionResult, error)
	PredictFromStore(ctx context.Context, req usecase.HistoryRequest) (models.PredictionResult, error)
}

// PredictionRequest is the body of POST /api/predictions.
type PredictionRequest struct {
	Symbol        string                 `json:"symbol" validate:"required,max=32"`
	Timeframe     string                 `json:"timeframe" default:"short" validate:"oneof=short medium long"`
	PriceHistory  []float64              `json:"price_history"`
	VolumeHistory []float64              `json:"volume_history"`
	Indicators    models.IndicatorBundle `json:"indicators"`
	Sentiment     *float64               `json:"sentiment"`
	NewsImpact    float64                `json:"news_impact"`
}

func (r *PredictionRequest) toInput() models.PredictionInput {
	in := models.PredictionInput{
		Symbol:        r.Symbol,
		Timeframe:     models.Timeframe(r.Timeframe),
		PriceHistory:  r.PriceHistory,
		VolumeHistory: r.VolumeHistory,
		Indicators:    r.Indicators,
		Sentiment:     scoring.Neutral,
		NewsImpact:    r.NewsImpact,
	}
	if r.Sentiment != nil {
		in.Sentiment = *r.Sentiment
	}
	return in
}

// HistoryPredictionRequest binds GET /api/predictions/:symbol.
type HistoryPredictionRequest struct {
	Symbol     string  `param:"symbol" validate:"required,max=32"`
	TF         string  `query:"tf"`
	N          int     `query:"n" default:"120" validate:"gte=2,lte=5000"`
	News       string  `query:"news"`
	NewsImpact float64 `query:"news_impact"`
}

type PredictionHandler struct {
	svc Predictor
	l   *xlogger.Logger
}

func NewPredictionHandler(svc Predictor, l *xlogger.Logger) *PredictionHandler {
	if l == nil {
		l = xlogger.Nop()
	}
	return &PredictionHandler{svc: svc, l: l.With(xlogger.String("handler", "predictions"))}
}

func (h *PredictionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/predictions")
	g.POST("", h.Create)
	g.GET("/:symbol", h.FromHistory)
}

func (h *PredictionHandler) Create(c echo.Context) error {
	req := &PredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.svc.Predict(c.Request().Context(), req.toInput())
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictionHandler) FromHistory(c echo.Context) error {
	req := &HistoryPredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.svc.PredictFromStore(c.Request().Context(), usecase.HistoryRequest{
		Symbol:     req.Symbol,
		Timeframe:  domrepo.NormalizeTimeframe(req.TF),
		N:          req.N,
		NewsText:   req.News,
		NewsImpact: req.NewsImpact,
	})
	if err != nil {
		return h.fail(c, "predict_history", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictionHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.l.Error("prediction failed", xlogger.String("op", op), xlogger.Error(err))
	} else {
		h.l.Debug("prediction rejected", xlogger.String("op", op), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

var _ Predictor = (*usecase.PredictionService)(nil)
