package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/upb/cascade-control-plane/middleware"
	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/envelope"
	"github.com/upb/cascade-control-plane/utils"
	"go.uber.org/zap"
)

// dispatchMethod is the one remote procedure this front door exposes
const dispatchMethod = "dispatch.query"

// JSON-RPC 2.0 error codes
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
)

// rpcRequest is an inbound JSON-RPC 2.0 call
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// rpcResponse is an outbound JSON-RPC 2.0 reply
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcErrorObject `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// rpcErrorObject is a JSON-RPC 2.0 error member
type rpcErrorObject struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RPCHandler is the remote-procedure front door. It decodes its own wire
// format and calls the same dispatcher with the same canonical query the
// request/response door builds, so the two doors behave identically.
type RPCHandler struct {
	dispatcher Dispatcher
	catalog    SnapshotProvider
	normalizer *envelope.Normalizer
	logger     *zap.Logger
}

// NewRPCHandler creates a new RPCHandler
func NewRPCHandler(dispatcher Dispatcher, catalogProvider SnapshotProvider, normalizer *envelope.Normalizer, logger *zap.Logger) *RPCHandler {
	return &RPCHandler{
		dispatcher: dispatcher,
		catalog:    catalogProvider,
		normalizer: normalizer,
		logger:     logger,
	}
}

// HandleRPC handles POST /rpc. A completed cascade is always a result,
// never a JSON-RPC error: exhausted_candidates is a legitimate outcome.
func (h *RPCHandler) HandleRPC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		h.writeError(w, nil, rpcParseError, "failed to read request body", nil)
		return
	}

	var call rpcRequest
	if err := json.Unmarshal(body, &call); err != nil {
		h.logger.Warn("malformed rpc call",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.writeError(w, nil, rpcParseError, "parse error", nil)
		return
	}

	if call.JSONRPC != "2.0" {
		h.writeError(w, call.ID, rpcInvalidRequest, "jsonrpc must be \"2.0\"", nil)
		return
	}

	if call.Method != dispatchMethod {
		h.writeError(w, call.ID, rpcMethodNotFound, "method not found", map[string]interface{}{
			"method": call.Method,
		})
		return
	}

	req, err := h.normalizer.ToEnvelopeRequest(models.TransportJSONRPC, call.Params)
	if err != nil {
		h.logger.Warn("rpc params normalization failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.writeError(w, call.ID, rpcInvalidParams, "invalid params", errorDetails(err))
		return
	}

	result := h.dispatcher.Dispatch(ctx, req, h.catalog.Snapshot())

	h.logger.Info("rpc dispatch served",
		zap.String("request_id", requestID),
		zap.String("dispatch_id", result.DispatchID.String()),
		zap.String("stop_reason", string(result.StopReason)),
		zap.Int("total_attempts", result.TotalAttempts))

	h.writeResult(w, call.ID, encodeCascadeResult(result))
}

// writeResult writes a JSON-RPC success reply
func (h *RPCHandler) writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	if err := utils.WriteJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}); err != nil {
		h.logger.Error("failed to write rpc result", zap.Error(err))
	}
}

// writeError writes a JSON-RPC error reply. Transport-level HTTP status
// stays 200; the error lives in the envelope.
func (h *RPCHandler) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string, data interface{}) {
	if err := utils.WriteJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		Error:   &rpcErrorObject{Code: code, Message: message, Data: data},
		ID:      id,
	}); err != nil {
		h.logger.Error("failed to write rpc error", zap.Error(err))
	}
}
