package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.Testnet)
	assert.Equal(t, DefaultRecvWindow, cfg.RecvWindow)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 2400, cfg.RequestWeightPerMinute)
	assert.Equal(t, 1200, cfg.OrdersPerMinute)
}

func TestConfigURLResolution(t *testing.T) {
	cases := []struct {
		name     string
		cfg      *Config
		wantRest string
		wantWS   string
	}{
		{
			name:     "mainnet default",
			cfg:      DefaultConfig(),
			wantRest: MainnetBaseURL,
			wantWS:   MainnetStreamURL,
		},
		{
			name:     "testnet",
			cfg:      DefaultConfig().WithTestnet(true),
			wantRest: TestnetBaseURL,
			wantWS:   TestnetStreamURL,
		},
		{
			name:     "explicit override wins",
			cfg:      DefaultConfig().WithTestnet(true).WithBaseURL("http://127.0.0.1:9000"),
			wantRest: "http://127.0.0.1:9000",
			wantWS:   TestnetStreamURL,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantRest, tc.cfg.RestBaseURL())
			assert.Equal(t, tc.wantWS, tc.cfg.WebsocketURL())
		})
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.BaseURL = "not a url"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CircuitBreakerFailThreshold = 0
	assert.Error(t, cfg.Validate())
}

func TestCredentialsValidate(t *testing.T) {
	var nilCreds *Credentials
	assert.ErrorIs(t, nilCreds.Validate(), ErrNoCredentials)

	assert.ErrorIs(t, (&Credentials{SecretKey: "s"}).Validate(), ErrMissingAPIKey)
	assert.ErrorIs(t, (&Credentials{APIKey: "k"}).Validate(), ErrMissingSecretKey)
	assert.NoError(t, (&Credentials{APIKey: "k", SecretKey: "s"}).Validate())
}

func TestConfigChaining(t *testing.T) {
	creds := &Credentials{APIKey: "k", SecretKey: "s"}
	cfg := DefaultConfig().
		WithCredentials(creds).
		WithTimeout(3 * time.Second).
		WithRecvWindow(2 * time.Second).
		WithRateLimit(1000, 300)

	require.NoError(t, cfg.Validate())
	assert.Same(t, creds, cfg.Credentials)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 2*time.Second, cfg.RecvWindow)
	assert.Equal(t, 1000, cfg.RequestWeightPerMinute)
	assert.Equal(t, 300, cfg.OrdersPerMinute)
}
