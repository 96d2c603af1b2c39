package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{404, ErrorTypeNotFound},
		{400, ErrorTypeBadRequest},
		{418, ErrorTypeBadRequest},
		{200, ErrorTypeUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyStatus(tc.status), "status %d", tc.status)
	}
}

func TestErrorHelpers(t *testing.T) {
	auth := NewAPIError(ErrorTypeAuthentication, 401, "invalid signature")
	assert.True(t, IsAuthenticationError(auth))
	assert.False(t, IsTransient(auth))
	assert.False(t, IsRequestError(auth))

	rate := NewAPIError(ErrorTypeRateLimit, 429, "too many requests")
	assert.True(t, IsTransient(rate))
	assert.False(t, IsAuthenticationError(rate))

	srv := NewAPIError(ErrorTypeServerError, 502, "bad gateway")
	assert.True(t, IsTransient(srv))

	bad := NewAPIErrorWithCode(ErrorTypeBadRequest, 400, -1121, "Invalid symbol.")
	assert.True(t, IsRequestError(bad))
	assert.False(t, IsTransient(bad))
	assert.Equal(t, -1121, bad.Code)

	net := WrapError(ErrorTypeNetwork, errors.New("connection refused"), "request failed")
	assert.True(t, IsNetworkError(net))
	assert.False(t, IsTransient(net))
}

func TestConfigurationSentinels(t *testing.T) {
	assert.True(t, IsConfigurationError(ErrMissingSecretKey))
	assert.True(t, IsConfigurationError(fmt.Errorf("sign: %w", ErrMissingAPIKey)))
	assert.True(t, IsConfigurationError(NewAPIError(ErrorTypeConfiguration, 0, "no credentials")))
	assert.False(t, IsConfigurationError(errors.New("other")))
}

func TestAPIErrorMessageCarriesServerCode(t *testing.T) {
	err := NewAPIErrorWithCode(ErrorTypeBadRequest, 400, -1121, "Invalid symbol.")
	assert.Contains(t, err.Error(), "-1121")
	assert.Contains(t, err.Error(), "Invalid symbol.")
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := WrapError(ErrorTypeTimeout, cause, "request timed out")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsTransient(err))
}
