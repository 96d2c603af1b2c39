package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// API endpoints for the Aster futures REST and websocket surfaces.
const (
	// MainnetBaseURL is the production REST endpoint.
	MainnetBaseURL = "https://fapi.asterdex.com"
	// TestnetBaseURL is the test environment REST endpoint.
	TestnetBaseURL = "https://testnet.asterdex.com"
	// MainnetStreamURL is the production websocket endpoint.
	MainnetStreamURL = "wss://fstream.asterdex.com/ws"
	// TestnetStreamURL is the test environment websocket endpoint.
	TestnetStreamURL = "wss://testnet-stream.asterdex.com/ws"
)

// DefaultRecvWindow is the conventional tolerance for request timestamp
// staleness accepted by the server.
const DefaultRecvWindow = 5000 * time.Millisecond

// Credentials holds the API authentication credential pair. The secret key
// is used only as a signing key and is never transmitted or logged.
type Credentials struct {
	// APIKey is the public API key identifier, sent as a request header.
	APIKey string `json:"api_key"`
	// SecretKey is the private key used for signing requests.
	SecretKey string `json:"secret_key"`
}

// Validate checks that both keys are present. It is called before any
// network activity so missing credentials surface as a configuration error,
// never as a generic HTTP failure.
func (c *Credentials) Validate() error {
	if c == nil {
		return ErrNoCredentials
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}
	return nil
}

// Config contains all configuration options for an API client.
// There is no ambient or process-wide state: every client receives its
// configuration explicitly at construction time.
type Config struct {
	// Testnet selects the test environment base URLs.
	Testnet bool `json:"testnet"`
	// BaseURL overrides the environment-selected REST endpoint when set.
	BaseURL string `json:"base_url" validate:"omitempty,url"`
	// StreamURL overrides the environment-selected websocket endpoint when set.
	StreamURL string `json:"stream_url" validate:"omitempty,url"`
	// Credentials are required only for signed (private) endpoints.
	Credentials *Credentials `json:"credentials,omitempty"`

	// RecvWindow is the server-side tolerance for request timestamp staleness.
	RecvWindow time.Duration `json:"recv_window" validate:"min=0"`
	// Timeout is the maximum duration for a single HTTP request.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`

	// RequestWeightPerMinute is the documented general weight budget.
	// The client-side limiter is best-effort; the server remains authoritative.
	RequestWeightPerMinute int `json:"request_weight_per_minute" validate:"min=1"`
	// OrdersPerMinute is the documented order placement budget.
	OrdersPerMinute int `json:"orders_per_minute" validate:"min=1"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with the documented defaults:
// 10s timeout, 5s receive window, 2400 weight/minute, 1200 orders/minute,
// circuit breaker with 5 failures/2 successes/30s timeout.
func DefaultConfig() *Config {
	return &Config{
		Testnet:    false,
		RecvWindow: DefaultRecvWindow,
		Timeout:    10 * time.Second,

		RequestWeightPerMinute: 2400,
		OrdersPerMinute:        1200,

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// RestBaseURL resolves the REST endpoint: an explicit override wins,
// otherwise the environment selects mainnet or testnet.
func (c *Config) RestBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	if c.Testnet {
		return TestnetBaseURL
	}
	return MainnetBaseURL
}

// WebsocketURL resolves the websocket endpoint the same way as RestBaseURL.
func (c *Config) WebsocketURL() string {
	if c.StreamURL != "" {
		return c.StreamURL
	}
	if c.Testnet {
		return TestnetStreamURL
	}
	return MainnetStreamURL
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithTestnet enables or disables the test environment and returns the config for chaining.
func (c *Config) WithTestnet(testnet bool) *Config {
	c.Testnet = testnet
	return c
}

// WithBaseURL overrides the REST endpoint and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRecvWindow sets the receive window and returns the config for chaining.
func (c *Config) WithRecvWindow(window time.Duration) *Config {
	c.RecvWindow = window
	return c
}

// WithRateLimit sets the weight and order budgets and returns the config for chaining.
func (c *Config) WithRateLimit(weightPerMinute, ordersPerMinute int) *Config {
	c.RequestWeightPerMinute = weightPerMinute
	c.OrdersPerMinute = ordersPerMinute
	return c
}
