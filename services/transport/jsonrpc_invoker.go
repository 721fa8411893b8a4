package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/catalog"
	"go.uber.org/zap"
)

// rpcMethod is the remote-procedure name every catalog service exposes
const rpcMethod = "service.query"

// rpcRequest is a JSON-RPC 2.0 call envelope
type rpcRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  models.EnvelopeRequest `json:"params"`
	ID      uint64                 `json:"id"`
}

// rpcResponse is a JSON-RPC 2.0 reply envelope
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error object
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSONRPCInvoker speaks the remote-procedure transport: JSON-RPC 2.0 calls
// POSTed over HTTP. The result member becomes the raw payload.
type JSONRPCInvoker struct {
	client *http.Client
	logger *zap.Logger
	nextID atomic.Uint64
}

// NewJSONRPCInvoker creates a JSON-RPC invoker
func NewJSONRPCInvoker(logger *zap.Logger) *JSONRPCInvoker {
	return &JSONRPCInvoker{
		client: &http.Client{},
		logger: logger,
	}
}

// Transport returns the wire protocol this invoker speaks
func (i *JSONRPCInvoker) Transport() models.Transport {
	return models.TransportJSONRPC
}

// Invoke performs one bounded remote-procedure call
func (i *JSONRPCInvoker) Invoke(ctx context.Context, entry catalog.Entry, req models.EnvelopeRequest) (*Result, error) {
	startTime := time.Now()
	callID := i.nextID.Add(1)

	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  rpcMethod,
		Params:  req,
		ID:      callID,
	})
	if err != nil {
		return nil, NewInvokeError(entry.Name, ErrClassProtocolError, "failed to marshal call", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, entry.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewInvokeError(entry.Name, ErrClassUnreachable, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := i.client.Do(httpReq)
	if err != nil {
		class := classifyNetworkError(err)
		i.logger.Debug("jsonrpc invocation failed",
			zap.String("service", entry.Name),
			zap.String("class", string(class)),
			zap.Error(err))
		return nil, NewInvokeError(entry.Name, class, "call failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewInvokeError(entry.Name, classifyNetworkError(err), "failed to read response", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, NewInvokeError(entry.Name, ErrClassProtocolError, httpResp.Status, nil)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, NewInvokeError(entry.Name, ErrClassProtocolError, "malformed rpc envelope", err)
	}

	if rpcResp.Error != nil {
		i.logger.Debug("jsonrpc invocation returned error object",
			zap.String("service", entry.Name),
			zap.Int("code", rpcResp.Error.Code),
			zap.String("message", rpcResp.Error.Message))
		return nil, NewInvokeError(entry.Name, ErrClassProtocolError,
			fmt.Sprintf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message), nil)
	}

	return &Result{Body: rpcResp.Result, Latency: time.Since(startTime)}, nil
}
