// Package keyring manages a ring of API credential pairs with rotation.
// Accounts that provision several keys can rotate to the next key when the
// active one is rate limited or rejected.
package keyring

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"asterex/pkg/core"
)

// APIKey is one credential pair in the ring.
type APIKey struct {
	ID         string
	Key        string
	Secret     string
	Disabled   bool
	LastUsed   time.Time
	ErrorCount int
}

// Credentials returns the pair in the form the signer consumes.
func (k *APIKey) Credentials() *core.Credentials {
	return &core.Credentials{APIKey: k.Key, SecretKey: k.Secret}
}

// String renders the key with the secret omitted and the key masked.
func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{ID:%s, Key:%s}", k.ID, maskKey(k.Key))
}

// RotationStrategy selects when the ring advances to the next key.
type RotationStrategy int

// Rotation strategies.
const (
	// RotationManual only rotates on an explicit Rotate call.
	RotationManual RotationStrategy = iota
	// RotationOnError rotates whenever the active key sees any API error.
	RotationOnError
	// RotationOnThrottle rotates on rate-limit and authentication errors only.
	RotationOnThrottle
)

// KeyRing holds the keys and the index of the active one.
type KeyRing struct {
	mu       sync.RWMutex
	keys     []*APIKey
	current  int
	strategy RotationStrategy
	logger   zerolog.Logger
}

// New creates a KeyRing over copies of the given keys.
func New(keys []*APIKey, strategy RotationStrategy) *KeyRing {
	copies := make([]*APIKey, len(keys))
	for i, k := range keys {
		dup := *k
		copies[i] = &dup
	}
	return &KeyRing{
		keys:     copies,
		strategy: strategy,
		logger:   zerolog.Nop(),
	}
}

// SetLogger attaches a logger for rotation events.
func (r *KeyRing) SetLogger(logger zerolog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Current returns the active enabled key, or nil when every key is disabled.
func (r *KeyRing) Current() *APIKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.keys) == 0 {
		return nil
	}
	for i := 0; i < len(r.keys); i++ {
		idx := (r.current + i) % len(r.keys)
		if !r.keys[idx].Disabled {
			return r.keys[idx]
		}
	}
	return nil
}

// Rotate advances to the next enabled key.
func (r *KeyRing) Rotate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotateLocked()
}

func (r *KeyRing) rotateLocked() {
	if len(r.keys) == 0 {
		return
	}
	start := r.current
	for {
		r.current = (r.current + 1) % len(r.keys)
		if !r.keys[r.current].Disabled || r.current == start {
			r.logger.Debug().Str("key", maskKey(r.keys[r.current].Key)).Msg("keyring rotated")
			return
		}
	}
}

// OnError records an API error against the active key and rotates according
// to the strategy. Rate-limit and authentication failures always satisfy
// RotationOnThrottle; RotationOnError rotates on anything.
func (r *KeyRing) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return
	}
	r.keys[r.current].ErrorCount++

	switch r.strategy {
	case RotationOnError:
		r.rotateLocked()
	case RotationOnThrottle:
		if core.IsTransient(err) || core.IsAuthenticationError(err) {
			r.rotateLocked()
		}
	}
}

// MarkUsed stamps the active key with the current time.
func (r *KeyRing) MarkUsed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return
	}
	r.keys[r.current].LastUsed = time.Now()
}

// Disable takes a key out of rotation by ID.
func (r *KeyRing) Disable(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.keys {
		if key.ID == id {
			key.Disabled = true
			return
		}
	}
}

// Enable returns a key to rotation and clears its error count.
func (r *KeyRing) Enable(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range r.keys {
		if key.ID == id {
			key.Disabled = false
			key.ErrorCount = 0
			return
		}
	}
}

// Add appends a key unless one with the same ID already exists.
func (r *KeyRing) Add(key *APIKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.keys {
		if existing.ID == key.ID {
			return
		}
	}
	dup := *key
	r.keys = append(r.keys, &dup)
}

// Remove deletes a key by ID.
func (r *KeyRing) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, key := range r.keys {
		if key.ID == id {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			if r.current >= len(r.keys) {
				r.current = 0
			}
			return
		}
	}
}

// Len returns the number of keys in the ring, disabled ones included.
func (r *KeyRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
