package sign

import (
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

func orderParams() *core.Params {
	return core.NewParams().
		Set("symbol", "BTCUSDT").
		Set("side", "BUY").
		Set("type", "MARKET").
		Set("quantity", 0.001)
}

func TestSignGoldenVector(t *testing.T) {
	s := New(testCreds(), WithClock(testClock))

	query, err := s.QueryString(orderParams())
	require.NoError(t, err)

	assert.Equal(t,
		"symbol=BTCUSDT&side=BUY&type=MARKET&quantity=0.001"+
			"&timestamp=1700000000000"+
			"&signature=3cc0b158aa7e4a3fed901e87286269650bf8a04b258cae72e8221a9e6ce0e58c",
		query)
}

func TestSignGoldenVectorWithRecvWindow(t *testing.T) {
	s := New(testCreds(), WithClock(testClock), WithRecvWindow(5*time.Second))

	p := core.NewParams().
		Set("symbol", "ETHUSDT").
		Set("side", "SELL").
		Set("type", "LIMIT").
		Set("timeInForce", "GTC").
		Set("quantity", 0.5).
		Set("price", 2000)

	query, err := s.QueryString(p)
	require.NoError(t, err)

	assert.Equal(t,
		"symbol=ETHUSDT&side=SELL&type=LIMIT&timeInForce=GTC&quantity=0.5&price=2000"+
			"&recvWindow=5000&timestamp=1700000000000"+
			"&signature=f9bc65c095afa286ea503a6714d30c0ce43cd2938a012629914d4aaea1e720ac",
		query)
}

func TestSignDeterministic(t *testing.T) {
	s := New(testCreds(), WithClock(testClock))

	first, err := s.QueryString(orderParams())
	require.NoError(t, err)
	second, err := s.QueryString(orderParams())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSignSensitivity(t *testing.T) {
	base, err := New(testCreds(), WithClock(testClock)).Sign(orderParams())
	require.NoError(t, err)
	baseSig, _ := base.Get("signature")

	t.Run("parameter change", func(t *testing.T) {
		p := orderParams().Set("quantity", 0.002)
		signed, err := New(testCreds(), WithClock(testClock)).Sign(p)
		require.NoError(t, err)
		got, _ := signed.Get("signature")
		assert.NotEqual(t, baseSig, got)
	})

	t.Run("secret change", func(t *testing.T) {
		creds := &core.Credentials{APIKey: "testkey", SecretKey: "othersecret"}
		signed, err := New(creds, WithClock(testClock)).Sign(orderParams())
		require.NoError(t, err)
		got, _ := signed.Get("signature")
		assert.Equal(t, "cf817e7f66e6cb61b4d1e555d3e5201d6e8738d8e0f8adb3828e9f0b9d76020b", got)
		assert.NotEqual(t, baseSig, got)
	})

	t.Run("timestamp change", func(t *testing.T) {
		later := func() time.Time { return time.UnixMilli(1700000000001) }
		signed, err := New(testCreds(), WithClock(later)).Sign(orderParams())
		require.NoError(t, err)
		got, _ := signed.Get("signature")
		assert.NotEqual(t, baseSig, got)
	})
}

func TestSignDoesNotMutateCaller(t *testing.T) {
	p := orderParams()
	before := p.Encode()

	_, err := New(testCreds(), WithClock(testClock)).Sign(p)
	require.NoError(t, err)

	assert.Equal(t, before, p.Encode())
	assert.False(t, p.Has("timestamp"))
	assert.False(t, p.Has("signature"))
}

func TestSignatureIsLastParameter(t *testing.T) {
	signed, err := New(testCreds(), WithClock(testClock), WithRecvWindow(time.Second)).Sign(orderParams())
	require.NoError(t, err)

	keys := signed.Keys()
	assert.Equal(t, "signature", keys[len(keys)-1])
}

func TestSignMissingCredentials(t *testing.T) {
	cases := []struct {
		name  string
		creds *core.Credentials
		want  error
	}{
		{"nil credentials", nil, core.ErrNoCredentials},
		{"missing api key", &core.Credentials{SecretKey: "s"}, core.ErrMissingAPIKey},
		{"missing secret", &core.Credentials{APIKey: "k"}, core.ErrMissingSecretKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.creds).Sign(orderParams())
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, core.IsConfigurationError(err))
		})
	}
}
