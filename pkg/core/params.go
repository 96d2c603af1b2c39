package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Params is an ordered mapping of request parameter names to string values.
// The exchange recomputes the request signature over the exact byte sequence
// it receives, so Encode must reproduce the order in which parameters were
// set. A plain map would serialize in arbitrary (or sorted) order and
// invalidate signatures.
type Params struct {
	keys   []string
	values map[string]string
}

// NewParams creates an empty ordered parameter set.
func NewParams() *Params {
	return &Params{values: make(map[string]string)}
}

// Set stores a parameter, converting common scalar types to their canonical
// string form. Setting an existing key replaces its value but keeps its
// original position. Returns the receiver for chaining.
func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = formatParamValue(value)
	return p
}

// Get returns the value for key and whether it is present.
func (p *Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether the key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Len returns the number of parameters.
func (p *Params) Len() int {
	return len(p.keys)
}

// Keys returns the parameter names in insertion order.
func (p *Params) Keys() []string {
	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// Clone returns a deep copy preserving insertion order. Signing works on a
// clone so the caller's parameter set is never mutated.
func (p *Params) Clone() *Params {
	clone := &Params{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]string, len(p.values)),
	}
	copy(clone.keys, p.keys)
	for k, v := range p.values {
		clone.values[k] = v
	}
	return clone
}

// Encode serializes the parameters as key=value pairs joined by "&" in
// insertion order, with values URL-encoded. This is the canonical query
// string both client and server must agree on bit-for-bit.
func (p *Params) Encode() string {
	if p.Len() == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.values[k]))
	}
	return b.String()
}

// String returns the encoded query string.
func (p *Params) String() string {
	return p.Encode()
}

// ParseQuery parses a canonical query string back into an ordered parameter
// set. It is the inverse of Encode for any parameter set Encode produced.
func ParseQuery(query string) (*Params, error) {
	params := NewParams()
	if query == "" {
		return params, nil
	}
	for _, pair := range strings.Split(query, "&") {
		key, rawValue, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed query pair %q", pair)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("unescape %q: %w", rawValue, err)
		}
		params.Set(key, value)
	}
	return params, nil
}

func formatParamValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
