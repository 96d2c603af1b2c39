// Package futures implements the REST client for the Aster perpetual
// futures API. Public market-data endpoints need no credentials; private
// account and trading endpoints are authenticated with an HMAC-SHA256
// signature over the canonical query string.
package futures

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"asterex/internal/circuitbreaker"
	"asterex/internal/keyring"
	"asterex/internal/ratelimit"
	"asterex/internal/transport"
	"asterex/pkg/core"
	"asterex/pkg/sign"
)

// orderBucket is the rate limit bucket for order placement.
const orderBucket = "orders"

// paramError reports a missing or invalid request parameter. These are
// detected before any network activity and classify as configuration errors.
func paramError(format string, args ...any) error {
	return core.NewAPIError(core.ErrorTypeConfiguration, 0, fmt.Sprintf(format, args...))
}

// Transport is the HTTP layer the client dispatches through. It is an
// interface so tests can substitute a recording fake.
type Transport interface {
	Do(ctx context.Context, method, path, rawQuery string, headers map[string]string) (*transport.Response, error)
	Close() error
}

// Client is the futures REST client. All methods perform exactly one HTTP
// round trip; nothing is retried or cached, and no background goroutines
// are started.
type Client struct {
	config    *core.Config
	transport Transport
	limiter   *ratelimit.Limiter
	breaker   *circuitbreaker.Breaker
	ring      *keyring.KeyRing
	logger    zerolog.Logger
	norm      *Normalizer
	clock     func() time.Time
	closed    atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithKeyRing supplies a credential ring. When set, signed requests use the
// ring's active key instead of the config credentials, and throttle errors
// rotate it.
func WithKeyRing(ring *keyring.KeyRing) Option {
	return func(c *Client) { c.ring = ring }
}

// WithTransport overrides the HTTP layer. Used by tests.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithClock overrides the time source used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.clock = now }
}

// New creates a futures client from the given configuration.
func New(config *core.Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, core.WrapError(core.ErrorTypeConfiguration, err, "invalid config")
	}

	c := &Client{
		config: config,
		limiter: ratelimit.New(config.RequestWeightPerMinute, time.Minute),
		logger:  zerolog.Nop(),
		norm:    NewNormalizer(),
		clock:   time.Now,
	}
	c.limiter.SetBucketLimit(orderBucket, config.OrdersPerMinute, time.Minute)

	if config.CircuitBreakerEnabled {
		c.breaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		})
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = transport.NewClient(config, c.logger)
	}
	return c, nil
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.transport.Close()
}

// credentials returns the active credential pair: the key ring when present,
// the config credentials otherwise.
func (c *Client) credentials() *core.Credentials {
	if c.ring != nil {
		if key := c.ring.Current(); key != nil {
			return key.Credentials()
		}
		return nil
	}
	return c.config.Credentials
}

// call describes one endpoint invocation for dispatch.
type call struct {
	method  string
	path    string
	params  *core.Params
	signed  bool
	weight  int
	isOrder bool
}

// dispatch runs the full per-request flow: breaker admission, limiter wait,
// signing for private endpoints, a single HTTP round trip, and error
// classification. The returned bytes are the raw 2xx response body.
func (c *Client) dispatch(ctx context.Context, req call) ([]byte, error) {
	if c.closed.Load() {
		return nil, core.ErrClientClosed
	}
	if c.breaker != nil && !c.breaker.Allow() {
		return nil, core.ErrCircuitBreakerOpen
	}

	if err := c.limiter.WaitN(ctx, req.weight); err != nil {
		return nil, core.WrapError(core.ErrorTypeTimeout, err, "rate limiter wait")
	}
	if req.isOrder {
		if err := c.limiter.WaitBucket(ctx, orderBucket); err != nil {
			return nil, core.WrapError(core.ErrorTypeTimeout, err, "order rate limiter wait")
		}
	}

	params := req.params
	if params == nil {
		params = core.NewParams()
	}

	var headers map[string]string
	if req.signed {
		creds := c.credentials()
		signer := sign.New(creds,
			sign.WithRecvWindow(c.config.RecvWindow),
			sign.WithClock(c.clock),
		)
		signed, err := signer.Sign(params)
		if err != nil {
			return nil, err
		}
		params = signed
		headers = map[string]string{sign.APIKeyHeader: creds.APIKey}
	}

	resp, err := c.transport.Do(ctx, req.method, req.path, params.Encode(), headers)
	if err != nil {
		c.recordOutcome(false)
		return nil, c.classifyTransportError(err, req)
	}

	if !resp.IsSuccess() {
		apiErr := c.classifyResponse(resp)
		c.recordOutcome(!core.IsTransient(apiErr) && !core.IsNetworkError(apiErr))
		if c.ring != nil && req.signed {
			c.ring.OnError(apiErr)
		}
		c.logger.Warn().
			Str("method", req.method).
			Str("path", req.path).
			Int("status", resp.StatusCode).
			Int("code", apiErr.Code).
			Msg("request rejected")
		return nil, apiErr
	}

	c.recordOutcome(true)
	if c.ring != nil && req.signed {
		c.ring.MarkUsed()
	}
	return resp.Body, nil
}

func (c *Client) recordOutcome(success bool) {
	if c.breaker != nil {
		c.breaker.Record(success)
	}
}

// classifyTransportError maps connection-level failures: deadline and
// cancellation become timeouts, everything else is a network error.
func (c *Client) classifyTransportError(err error, req call) error {
	if errors.Is(err, core.ErrClientClosed) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return core.WrapError(core.ErrorTypeTimeout,
			err, fmt.Sprintf("%s %s timed out", req.method, req.path))
	}
	if errors.Is(err, context.Canceled) {
		return core.WrapError(core.ErrorTypeTimeout,
			err, fmt.Sprintf("%s %s canceled", req.method, req.path))
	}
	return core.WrapError(core.ErrorTypeNetwork,
		err, fmt.Sprintf("%s %s failed", req.method, req.path))
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// classifyResponse builds the APIError for a non-2xx response. The HTTP
// status sets the baseline category; a decodable {code, msg} body refines
// 4xx classification and is carried verbatim.
func (c *Client) classifyResponse(resp *transport.Response) *core.APIError {
	errType := core.ClassifyStatus(resp.StatusCode)

	var body wireAPIError
	if err := sonic.Unmarshal(resp.Body, &body); err == nil && body.Code != 0 {
		if errType == core.ErrorTypeBadRequest || errType == core.ErrorTypeNotFound {
			errType = mapServerErrorCode(body.Code)
		}
		return core.NewAPIErrorWithCode(errType, resp.StatusCode, body.Code, body.Msg)
	}
	return core.NewAPIError(errType, resp.StatusCode, resp.Status)
}

// mapServerErrorCode refines a 4xx rejection using the exchange error code.
func mapServerErrorCode(code int) core.ErrorType {
	switch code {
	case -1003, -1015:
		return core.ErrorTypeRateLimit
	case -1021, -1022:
		return core.ErrorTypeAuthentication
	case -2018, -2019, -2010:
		return core.ErrorTypeInsufficientFunds
	case -2011, -2013, -2014:
		return core.ErrorTypeInvalidOrder
	default:
		switch {
		case code <= -1100 && code > -1200:
			return core.ErrorTypeBadRequest
		case code <= -2000 && code > -3000:
			return core.ErrorTypeInvalidOrder
		default:
			return core.ErrorTypeBadRequest
		}
	}
}

// getJSON dispatches a GET and decodes the 2xx body into out. A body that
// does not decode is reported as a malformed response.
func (c *Client) getJSON(ctx context.Context, req call, out any) error {
	body, err := c.dispatch(ctx, req)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return core.WrapError(core.ErrorTypeMalformedResponse,
			err, fmt.Sprintf("decode %s response", req.path))
	}
	return nil
}

// Ping checks connectivity to the REST endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.dispatch(ctx, call{method: http.MethodGet, path: "/fapi/v1/ping", weight: 1})
	return err
}

// ServerTime returns the exchange server time.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	var data wireServerTime
	if err := c.getJSON(ctx, call{method: http.MethodGet, path: "/fapi/v1/time", weight: 1}, &data); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(data.ServerTime), nil
}
