package rpc

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

func testConfig() Config {
	return Config{
		ConnectTimeoutSeconds: 1,
		ReadTimeoutSeconds:    5,
		RetryMax:              2,
		BackoffMillis:         1,
	}
}

func newTestClient() *Client {
	return New(testConfig(), "0xc0ffee", "0xt0pic", zap.NewNop())
}

func TestCountLogs_CountsResultArray(t *testing.T) {
	var gotBody logsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[{"logIndex":"0x0"},{"logIndex":"0x1"},{"logIndex":"0x2"}]}`))
	}))
	defer srv.Close()

	cnt, err := newTestClient().CountLogs(context.Background(), srv.URL, 10, 255)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cnt)

	// Envelope shape: fixed method, hex-encoded bounds, one-element topics.
	assert.Equal(t, "eth_getLogs", gotBody.Method)
	require.Len(t, gotBody.Params, 1)
	assert.Equal(t, "0xa", gotBody.Params[0].FromBlock)
	assert.Equal(t, "0xff", gotBody.Params[0].ToBlock)
	assert.Equal(t, "0xc0ffee", gotBody.Params[0].Address)
	assert.Equal(t, []string{"0xt0pic"}, gotBody.Params[0].Topics)
}

func TestCountLogs_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[]}`))
	}))
	defer srv.Close()

	cnt, err := newTestClient().CountLogs(context.Background(), srv.URL, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cnt)
}

func TestCountLogs_ProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "explicit error payload", body: `{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"query returned more than 10000 results"}}`},
		{name: "missing result", body: `{"jsonrpc":"2.0","id":1}`},
		{name: "result not an array", body: `{"jsonrpc":"2.0","id":1,"result":"0x0"}`},
		{name: "undecodable body", body: `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient().CountLogs(context.Background(), srv.URL, 0, 99)
			require.Error(t, err)

			var ce *CallError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, KindProtocol, ce.Kind)
			assert.Equal(t, uint64(0), ce.From)
			assert.Equal(t, uint64(99), ce.To)
		})
	}
}

func TestCountLogs_TransientStatusIsRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[{}]}`))
	}))
	defer srv.Close()

	cnt, err := newTestClient().CountLogs(context.Background(), srv.URL, 0, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
	assert.Equal(t, 2, attempts)
}

func TestCountLogs_ExhaustedRetriesAreTransport(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient().CountLogs(context.Background(), srv.URL, 0, 99)
	require.Error(t, err)

	var ce *CallError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindTransport, ce.Kind)
	// Initial attempt plus RetryMax retries.
	assert.Equal(t, 3, attempts)
}

func TestCountLogs_ConnectionRefusedIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	_, err := newTestClient().CountLogs(context.Background(), srv.URL, 0, 99)
	require.Error(t, err)

	var ce *CallError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindTransport, ce.Kind)
}
