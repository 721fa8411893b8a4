package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/catalog"
	"go.uber.org/zap"
)

// maxResponseBytes bounds how much of a downstream body is read
const maxResponseBytes = 4 << 20

// HTTPInvoker speaks the request/response transport: the canonical envelope
// request is POSTed as JSON and the raw body comes back as the payload.
type HTTPInvoker struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPInvoker creates an HTTP invoker. Per-call deadlines come from the
// caller's context, so the client itself carries no timeout.
func NewHTTPInvoker(logger *zap.Logger) *HTTPInvoker {
	return &HTTPInvoker{
		client: &http.Client{},
		logger: logger,
	}
}

// Transport returns the wire protocol this invoker speaks
func (i *HTTPInvoker) Transport() models.Transport {
	return models.TransportHTTP
}

// Invoke performs one bounded request/response call
func (i *HTTPInvoker) Invoke(ctx context.Context, entry catalog.Entry, req models.EnvelopeRequest) (*Result, error) {
	startTime := time.Now()

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, NewInvokeError(entry.Name, ErrClassProtocolError, "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, entry.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewInvokeError(entry.Name, ErrClassUnreachable, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := i.client.Do(httpReq)
	if err != nil {
		class := classifyNetworkError(err)
		i.logger.Debug("http invocation failed",
			zap.String("service", entry.Name),
			zap.String("class", string(class)),
			zap.Error(err))
		return nil, NewInvokeError(entry.Name, class, "request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewInvokeError(entry.Name, classifyNetworkError(err), "failed to read response", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		i.logger.Debug("http invocation returned non-2xx",
			zap.String("service", entry.Name),
			zap.Int("status", httpResp.StatusCode))
		return nil, NewInvokeError(entry.Name, ErrClassProtocolError, httpResp.Status, nil)
	}

	return &Result{Body: respBody, Latency: time.Since(startTime)}, nil
}
