package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/ticketing/services/event-service/internal/logger"
	"github.com/baechuer/ticketing/services/event-service/internal/transport/http/response"
)

// Pinger checks one dependency, e.g. (*sql.DB).PingContext.
type Pinger func(ctx context.Context) error

const readyTimeout = 2 * time.Second

type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler takes the dependencies /readyz reports on, keyed by name.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Healthz is liveness only.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.Data(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	down := map[string]string{}
	for name, ping := range h.deps {
		if err := ping(ctx); err != nil {
			logger.Ctx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			down[name] = "unavailable"
		}
	}
	if len(down) > 0 {
		response.Fail(w, http.StatusServiceUnavailable, "not_ready", "dependencies unavailable",
			down, response.RequestIDFromRequest(r))
		return
	}
	response.Data(w, http.StatusOK, map[string]string{"status": "ready"})
}
