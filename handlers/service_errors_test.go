package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/cascade-control-plane/services"
	"github.com/upb/cascade-control-plane/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "not found maps to 404",
			err:        services.ErrServiceNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "not_found",
		},
		{
			name:       "validation maps to 400",
			err:        services.ErrEmptyQuery,
			wantStatus: http.StatusBadRequest,
			wantError:  "bad_request",
		},
		{
			name:       "external maps to 502",
			err:        services.ErrRankingProviderUnavailable,
			wantStatus: http.StatusBadGateway,
			wantError:  "bad_gateway",
		},
		{
			name:       "config maps to 500",
			err:        services.ErrInvalidDispatchConfig,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
		{
			name:       "internal maps to 500",
			err:        services.ErrInternal,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
		{
			name:       "unknown error maps to 500",
			err:        errors.New("something odd"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			HandleServiceError(rec, tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp utils.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestHandleServiceError_NilIsNoop(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleServiceError(rec, nil, zap.NewNop())

	assert.Empty(t, rec.Body.Bytes())
}

func TestHandleServiceError_ValidationDetails(t *testing.T) {
	err := services.NewDomainError(services.ErrorTypeValidation, "invalid request", nil).
		WithDetail("fields", map[string]string{"query": "required"})

	rec := httptest.NewRecorder()
	HandleServiceError(rec, err, zap.NewNop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Details, "fields")
}

func TestErrorDetails(t *testing.T) {
	domainErr := services.NewDomainError(services.ErrorTypeValidation, "bad", nil).WithDetail("k", "v")
	assert.Equal(t, "v", errorDetails(domainErr)["k"])

	assert.Nil(t, errorDetails(nil))
	assert.Nil(t, errorDetails(errors.New("plain")))
}
