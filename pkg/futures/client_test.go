package futures

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asterex/pkg/core"
)

var testClock = func() time.Time { return time.UnixMilli(1700000000000) }

func testCreds() *core.Credentials {
	return &core.Credentials{APIKey: "testkey", SecretKey: "testsecret"}
}

// newTestClient points a real client at an httptest server and counts the
// requests that actually reach it.
func newTestClient(t *testing.T, creds *core.Credentials, handler http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := core.DefaultConfig().
		WithBaseURL(server.URL).
		WithCredentials(creds)
	client, err := New(cfg, WithClock(testClock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, &calls
}

func TestDispatchClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "429 is transient rate limit",
			status: http.StatusTooManyRequests,
			body:   `{"code":-1003,"msg":"Too many requests."}`,
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsTransient(err))
				assert.False(t, core.IsAuthenticationError(err))
			},
		},
		{
			name:   "401 is authentication",
			status: http.StatusUnauthorized,
			body:   `{"code":-2015,"msg":"Invalid API-key, IP, or permissions for action."}`,
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsAuthenticationError(err))
				assert.False(t, core.IsTransient(err))
			},
		},
		{
			name:   "403 is authentication",
			status: http.StatusForbidden,
			body:   `{"code":-2014,"msg":"API-key format invalid."}`,
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsAuthenticationError(err))
			},
		},
		{
			name:   "400 with code is a request error carrying code and msg",
			status: http.StatusBadRequest,
			body:   `{"code":-1121,"msg":"Invalid symbol."}`,
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsRequestError(err))
				assert.False(t, core.IsTransient(err))

				var apiErr *core.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, -1121, apiErr.Code)
				assert.Equal(t, "Invalid symbol.", apiErr.Message)
			},
		},
		{
			name:   "insufficient margin is a request error",
			status: http.StatusBadRequest,
			body:   `{"code":-2019,"msg":"Margin is insufficient."}`,
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsRequestError(err))
			},
		},
		{
			name:   "5xx is transient",
			status: http.StatusBadGateway,
			body:   `upstream error`,
			check: func(t *testing.T, err error) {
				assert.True(t, core.IsTransient(err))
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, calls := newTestClient(t, testCreds(), func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := client.TickerPrice(context.Background(), "BTCUSDT")
			require.Error(t, err)
			tc.check(t, err)
			assert.Equal(t, int64(1), calls.Load(), "exactly one network call, no retries")
		})
	}
}

func TestMissingCredentialsMakesNoNetworkCall(t *testing.T) {
	client, calls := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.Account(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
	assert.Equal(t, int64(0), calls.Load())
}

func TestMalformedSuccessBody(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.TickerPrice(context.Background(), "BTCUSDT")
	require.Error(t, err)

	var apiErr *core.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, core.ErrorTypeMalformedResponse, apiErr.Type)
}

func TestNetworkErrorClassification(t *testing.T) {
	cfg := core.DefaultConfig().WithBaseURL("http://127.0.0.1:1")
	client, err := New(cfg)
	require.NoError(t, err)
	defer client.Close()

	pingErr := client.Ping(context.Background())
	require.Error(t, pingErr)
	assert.True(t, core.IsNetworkError(pingErr) || core.IsTransient(pingErr))
}

func TestSignedRequestShape(t *testing.T) {
	var gotQuery, gotKey string
	client, _ := newTestClient(t, testCreds(), func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-MBX-APIKEY")
		w.Write([]byte(`[]`))
	})

	_, err := client.Balances(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "testkey", gotKey)

	// The signature is the last parameter and verifies over everything
	// before it, byte for byte.
	idx := strings.LastIndex(gotQuery, "&signature=")
	require.Greater(t, idx, 0)
	payload, sig := gotQuery[:idx], gotQuery[idx+len("&signature="):]

	mac := hmac.New(sha256.New, []byte("testsecret"))
	mac.Write([]byte(payload))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), sig)

	assert.Contains(t, payload, "recvWindow=5000")
	assert.Contains(t, payload, "timestamp=1700000000000")
}

func TestPublicRequestIsUnsigned(t *testing.T) {
	var gotQuery, gotKey string
	client, _ := newTestClient(t, testCreds(), func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-MBX-APIKEY")
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"43250.10","time":1700000000000}`))
	})

	_, err := client.TickerPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Empty(t, gotKey)
	assert.Equal(t, "symbol=BTCUSDT", gotQuery)
}

func TestCircuitBreakerOpensAfterRepeatedServerErrors(t *testing.T) {
	client, calls := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 5; i++ {
		err := client.Ping(context.Background())
		require.Error(t, err)
	}

	err := client.Ping(context.Background())
	assert.ErrorIs(t, err, core.ErrCircuitBreakerOpen)
	assert.Equal(t, int64(5), calls.Load())
}

func TestRequestErrorsDoNotTripBreaker(t *testing.T) {
	client, calls := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	for i := 0; i < 10; i++ {
		_, err := client.TickerPrice(context.Background(), "NOPE")
		require.Error(t, err)
		assert.True(t, core.IsRequestError(err))
	}
	assert.Equal(t, int64(10), calls.Load())
}

func TestClosedClient(t *testing.T) {
	client, calls := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	require.NoError(t, client.Close())

	err := client.Ping(context.Background())
	assert.ErrorIs(t, err, core.ErrClientClosed)
	assert.Equal(t, int64(0), calls.Load())
}

func TestServerTime(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/time", r.URL.Path)
		w.Write([]byte(`{"serverTime":1700000000123}`))
	})

	ts, err := client.ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000123), ts)
}
