package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/upb/cascade-control-plane/middleware"
	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/catalog"
	"github.com/upb/cascade-control-plane/services/envelope"
	"github.com/upb/cascade-control-plane/utils"
	"go.uber.org/zap"
)

// maxRequestBytes bounds how much of an inbound body is read
const maxRequestBytes = 1 << 20

// Dispatcher runs one cascade for a canonical query
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.EnvelopeRequest, snapshot catalog.Snapshot) *models.CascadeResult
}

// SnapshotProvider hands out frozen catalog views, one per dispatch
type SnapshotProvider interface {
	Snapshot() catalog.Snapshot
}

// DispatchHandler is the request/response front door.
// Thin handler: decode, dispatch, encode.
type DispatchHandler struct {
	dispatcher Dispatcher
	catalog    SnapshotProvider
	normalizer *envelope.Normalizer
	logger     *zap.Logger
}

// NewDispatchHandler creates a new DispatchHandler
func NewDispatchHandler(dispatcher Dispatcher, catalogProvider SnapshotProvider, normalizer *envelope.Normalizer, logger *zap.Logger) *DispatchHandler {
	return &DispatchHandler{
		dispatcher: dispatcher,
		catalog:    catalogProvider,
		normalizer: normalizer,
		logger:     logger,
	}
}

// HandleDispatch handles POST /v1/dispatch.
// A completed cascade is always a 200, including exhausted_candidates with
// no successful attempt; rendering that outcome is the caller's business.
func (h *DispatchHandler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		h.logger.Warn("failed to read request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Failed to read request body", nil)
		return
	}

	req, err := h.normalizer.ToEnvelopeRequest(models.TransportHTTP, body)
	if err != nil {
		h.logger.Warn("request normalization failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("processing dispatch",
		zap.String("request_id", requestID),
		zap.String("tenant_id", req.TenantID))

	result := h.dispatcher.Dispatch(ctx, req, h.catalog.Snapshot())

	h.logger.Info("dispatch served",
		zap.String("request_id", requestID),
		zap.String("dispatch_id", result.DispatchID.String()),
		zap.String("stop_reason", string(result.StopReason)),
		zap.Int("total_attempts", result.TotalAttempts))

	if err := utils.WriteOK(w, encodeCascadeResult(result)); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
