package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler mounts one API surface on the server.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HealthCheck reports a dependency failure; nil means healthy.
type HealthCheck func() error

// systemHandler serves liveness, readiness and the metrics scrape.
type systemHandler struct {
	metricsPath string
	checks      map[string]HealthCheck
}

func (h *systemHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", h.ready)
	if h.metricsPath != "" {
		e.GET(h.metricsPath, echo.WrapHandler(promhttp.Handler()))
	}
}

func (h *systemHandler) ready(c echo.Context) error {
	failed := make(map[string]string)
	for name, check := range h.checks {
		if err := check(); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return DataResponse(c, http.StatusServiceUnavailable, failed)
	}
	return SuccessResponse(c, map[string]string{"status": "ready"})
}

// mount registers the system routes before hs; nil entries are skipped.
func mount(e *echo.Echo, system Handler, hs []Handler) {
	system.RegisterRoutes(e)
	for _, h := range hs {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}
