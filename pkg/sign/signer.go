// Package sign implements the signed-request authenticator for the exchange
// REST API. Private endpoints authenticate each request by an HMAC-SHA256
// digest of the canonical query string; the server recomputes the digest over
// the exact bytes it receives, so parameter order and encoding must match
// bit-for-bit between client and server.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"asterex/pkg/core"
)

// Header names used by authenticated requests.
const (
	// APIKeyHeader carries the public API key on signed requests.
	APIKeyHeader = "X-MBX-APIKEY"
)

// Parameter names appended by the signer.
const (
	timestampParam  = "timestamp"
	recvWindowParam = "recvWindow"
	signatureParam  = "signature"
)

// Signer produces signed request parameter sets for private endpoints.
// It holds the credential pair and a clock; the secret key is used only as
// HMAC key material and is never logged or transmitted.
type Signer struct {
	creds      *core.Credentials
	recvWindow time.Duration
	now        func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithRecvWindow sets the recvWindow parameter appended to signed requests.
// A zero window omits the parameter.
func WithRecvWindow(window time.Duration) Option {
	return func(s *Signer) { s.recvWindow = window }
}

// WithClock overrides the time source. Tests use a fixed clock to make
// signatures deterministic.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// New creates a Signer for the given credentials. Credential validation is
// deferred to Sign so a client without credentials can still serve public
// endpoints.
func New(creds *core.Credentials, opts ...Option) *Signer {
	s := &Signer{
		creds: creds,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// APIKey returns the public key identifier to send in the request header.
func (s *Signer) APIKey() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.APIKey
}

// Sign validates credentials, then returns a clone of params extended with
// recvWindow (when configured), timestamp in milliseconds, and the signature
// as the final parameter. The caller's parameter set is never mutated.
//
// The signature is the lowercase hex HMAC-SHA256 of the canonical query
// string, keyed by the secret key. Signing performs no network activity;
// missing credentials surface as a configuration error before any request
// is attempted.
func (s *Signer) Sign(params *core.Params) (*core.Params, error) {
	if err := s.creds.Validate(); err != nil {
		return nil, err
	}

	signed := params.Clone()
	if s.recvWindow > 0 && !signed.Has(recvWindowParam) {
		signed.Set(recvWindowParam, s.recvWindow.Milliseconds())
	}
	if !signed.Has(timestampParam) {
		signed.Set(timestampParam, s.now().UnixMilli())
	}

	mac := hmac.New(sha256.New, []byte(s.creds.SecretKey))
	mac.Write([]byte(signed.Encode()))
	signed.Set(signatureParam, hex.EncodeToString(mac.Sum(nil)))
	return signed, nil
}

// QueryString signs the parameters and returns the final encoded query
// string ready to be sent on the wire.
func (s *Signer) QueryString(params *core.Params) (string, error) {
	signed, err := s.Sign(params)
	if err != nil {
		return "", err
	}
	return signed.Encode(), nil
}
