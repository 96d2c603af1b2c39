package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asterex/pkg/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := core.DefaultConfig().WithBaseURL(server.URL)
	client := NewClient(cfg, zerolog.Nop())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDoSendsRawQueryVerbatim(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	})

	rawQuery := "symbol=BTCUSDT&side=BUY&type=MARKET&quantity=0.001&timestamp=1700000000000&signature=abc"
	resp, err := client.Do(context.Background(), http.MethodGet, "/fapi/v1/order", rawQuery, nil)
	require.NoError(t, err)

	assert.True(t, resp.IsSuccess())
	assert.Equal(t, rawQuery, gotQuery)
}

func TestDoSendsHeaders(t *testing.T) {
	var gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-MBX-APIKEY")
		w.Write([]byte(`{}`))
	})

	_, err := client.Do(context.Background(), http.MethodGet, "/fapi/v1/account", "",
		map[string]string{"X-MBX-APIKEY": "testkey"})
	require.NoError(t, err)
	assert.Equal(t, "testkey", gotKey)
}

func TestDoReturnsErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	resp, err := client.Do(context.Background(), http.MethodGet, "/fapi/v1/ticker/price", "symbol=NOPE", nil)
	require.NoError(t, err)

	assert.False(t, resp.IsSuccess())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	require.NoError(t, resp.Unmarshal(&body))
	assert.Equal(t, -1121, body.Code)
	assert.Equal(t, "Invalid symbol.", body.Msg)
}

func TestDoAfterClose(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	require.NoError(t, client.Close())

	_, err := client.Do(context.Background(), http.MethodGet, "/fapi/v1/ping", "", nil)
	assert.ErrorIs(t, err, core.ErrClientClosed)
}

func TestDoRejectsUnknownMethod(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := client.Do(context.Background(), "TRACE", "/fapi/v1/ping", "", nil)
	assert.Error(t, err)
}
