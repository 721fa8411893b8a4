package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/catalog"
	"go.uber.org/zap"
)

func rpcEntry(endpoint string) catalog.Entry {
	return catalog.Entry{
		Name:      "rpc-svc",
		Endpoint:  endpoint,
		Transport: models.TransportJSONRPC,
	}
}

func TestJSONRPCInvoker_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		assert.Equal(t, "2.0", call.JSONRPC)
		assert.Equal(t, "service.query", call.Method)
		assert.Equal(t, "find flights", call.Params.Query)
		assert.NotZero(t, call.ID)

		resp := rpcResponse{
			JSONRPC: "2.0",
			Result:  json.RawMessage(`{"flights": [{"code": "AV123"}], "count": 1, "currency": "USD"}`),
			ID:      call.ID,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	invoker := NewJSONRPCInvoker(zap.NewNop())
	result, err := invoker.Invoke(context.Background(), rpcEntry(server.URL), models.EnvelopeRequest{
		TenantID: "t1",
		Query:    "find flights",
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"flights": [{"code": "AV123"}], "count": 1, "currency": "USD"}`, string(result.Body))
}

func TestJSONRPCInvoker_CallIDsIncrease(t *testing.T) {
	var seen []uint64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&call)
		seen = append(seen, call.ID)
		_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", Result: json.RawMessage(`{}`), ID: call.ID})
	}))
	defer server.Close()

	invoker := NewJSONRPCInvoker(zap.NewNop())
	for i := 0; i < 3; i++ {
		_, err := invoker.Invoke(context.Background(), rpcEntry(server.URL), models.EnvelopeRequest{Query: "q"})
		require.NoError(t, err)
	}

	require.Len(t, seen, 3)
	assert.Less(t, seen[0], seen[1])
	assert.Less(t, seen[1], seen[2])
}

func TestJSONRPCInvoker_ErrorObjectIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc": "2.0", "error": {"code": -32000, "message": "backend exploded"}, "id": 1}`))
	}))
	defer server.Close()

	invoker := NewJSONRPCInvoker(zap.NewNop())
	_, err := invoker.Invoke(context.Background(), rpcEntry(server.URL), models.EnvelopeRequest{Query: "q"})

	require.Error(t, err)
	assert.Equal(t, ErrClassProtocolError, ClassOf(err))
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestJSONRPCInvoker_MalformedEnvelopeIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a json-rpc envelope"))
	}))
	defer server.Close()

	invoker := NewJSONRPCInvoker(zap.NewNop())
	_, err := invoker.Invoke(context.Background(), rpcEntry(server.URL), models.EnvelopeRequest{Query: "q"})

	require.Error(t, err)
	assert.Equal(t, ErrClassProtocolError, ClassOf(err))
}

func TestJSONRPCInvoker_Non2xxIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	invoker := NewJSONRPCInvoker(zap.NewNop())
	_, err := invoker.Invoke(context.Background(), rpcEntry(server.URL), models.EnvelopeRequest{Query: "q"})

	require.Error(t, err)
	assert.Equal(t, ErrClassProtocolError, ClassOf(err))
}

func TestJSONRPCInvoker_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	invoker := NewJSONRPCInvoker(zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := invoker.Invoke(ctx, rpcEntry(server.URL), models.EnvelopeRequest{Query: "q"})

	require.Error(t, err)
	assert.Equal(t, ErrClassTimeout, ClassOf(err))
}

func TestJSONRPCInvoker_Transport(t *testing.T) {
	assert.Equal(t, models.TransportJSONRPC, NewJSONRPCInvoker(zap.NewNop()).Transport())
}
