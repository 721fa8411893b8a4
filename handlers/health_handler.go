package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/cascade-control-plane/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker pings the backing store
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// CatalogCounter reports how many services are registered
type CatalogCounter interface {
	Count() int
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db      DatabaseChecker
	catalog CatalogCounter
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// process runs without a backing store.
func NewHealthHandler(db DatabaseChecker, catalogCounter CatalogCounter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		catalog: catalogCounter,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: returns 200 whenever the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Ready means the catalog holds at least one candidate and the backing
// store, when configured, answers a ping
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if h.catalog.Count() == 0 {
		checks["catalog"] = "empty"
		allHealthy = false
	} else {
		checks["catalog"] = "healthy"
	}

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			allHealthy = false
		} else {
			checks["database"] = "healthy"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
