package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubChecker struct {
	err error
}

func (c *stubChecker) HealthCheck(ctx context.Context) error {
	return c.err
}

type stubCounter struct {
	count int
}

func (c *stubCounter) Count() int {
	return c.count
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var wrapper struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wrapper))
	return wrapper.Data
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, &stubCounter{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHandleReadiness_Ready(t *testing.T) {
	handler := NewHealthHandler(&stubChecker{}, &stubCounter{count: 3}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler.HandleReadiness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["catalog"])
	assert.Equal(t, "healthy", resp.Checks["database"])
}

func TestHandleReadiness_EmptyCatalog(t *testing.T) {
	handler := NewHealthHandler(&stubChecker{}, &stubCounter{count: 0}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler.HandleReadiness(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "empty", resp.Checks["catalog"])
}

func TestHandleReadiness_DatabaseDown(t *testing.T) {
	handler := NewHealthHandler(&stubChecker{err: errors.New("connection refused")}, &stubCounter{count: 3}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler.HandleReadiness(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "unhealthy", resp.Checks["database"])
}

func TestHandleReadiness_NoDatabaseConfigured(t *testing.T) {
	handler := NewHealthHandler(nil, &stubCounter{count: 1}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	handler.HandleReadiness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.Equal(t, "healthy", resp.Status)
	_, hasDB := resp.Checks["database"]
	assert.False(t, hasDB)
}
