package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"SignalForge/internal/domain/models"
	"SignalForge/internal/service/ratelimit"
	"SignalForge/internal/usecase"
	xhttp "SignalForge/pkg/http"
	xlogger "SignalForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

const maxSignalBody = 64 << 10

// SignalAcceptor is the intake surface behind the webhook route.
type SignalAcceptor interface {
	AcceptRaw(ctx context.Context, raw map[string]interface{}) (models.WebhookSignal, error)
}

// SignalsHandler accepts externally reported signals over a webhook.
type SignalsHandler struct {
	intake SignalAcceptor
	rl     *ratelimit.Limiter
	l      *xlogger.Logger
}

func NewSignalsHandler(intake SignalAcceptor, rl *ratelimit.Limiter, l *xlogger.Logger) *SignalsHandler {
	if l == nil {
		l = xlogger.Nop()
	}
	return &SignalsHandler{intake: intake, rl: rl, l: l.With(xlogger.String("handler", "signals"))}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/webhooks/signals", h.Webhook)
}

func (h *SignalsHandler) Webhook(c echo.Context) error {
	remote := c.RealIP()
	if !h.rl.Allow(remote) {
		h.l.Warn("webhook rate limited", xlogger.String("remote", remote))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSignalBody))
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("unreadable body"))
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("body must be a JSON object"))
	}

	sig, err := h.intake.AcceptRaw(c.Request().Context(), raw)
	if err != nil {
		appErr := toAppError(err)
		if appErr.Status >= 500 {
			h.l.Error("signal intake failed", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.CreatedResponse(c, sig)
}

var _ SignalAcceptor = (*usecase.SignalIntake)(nil)
