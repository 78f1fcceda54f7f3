package appconfig

import (
	"context"
	"net/http"
	"strings"
	"unicode"
)

// DefaultHeaderPrefix is prepended to the kebab-cased key when overrides are
// read from request headers, e.g. X-Androfit-Accent-Dark.
const DefaultHeaderPrefix = "X-Androfit-"

// Lookup is a read-only key to string source of overrides. An empty string
// means the key is absent.
type Lookup interface {
	Get(key string) string
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(key string) string

// Get calls f(key). A nil f has no overrides.
func (f LookupFunc) Get(key string) string {
	if f == nil {
		return ""
	}
	return f(key)
}

// MapLookup serves overrides from a plain map.
type MapLookup map[string]string

// Get returns the value stored for key.
func (m MapLookup) Get(key string) string {
	return m[key]
}

// HeaderLookup reads overrides from HTTP request headers.
type HeaderLookup struct {
	Header http.Header
	Prefix string
}

// Get returns the header value for key. The zero Prefix means
// DefaultHeaderPrefix.
func (h HeaderLookup) Get(key string) string {
	if h.Header == nil {
		return ""
	}
	prefix := h.Prefix
	if prefix == "" {
		prefix = DefaultHeaderPrefix
	}
	return h.Header.Get(HeaderName(prefix, key))
}

// HeaderName maps a camelCase key to its canonical header name under prefix.
func HeaderName(prefix, key string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(key) + 4)
	b.WriteString(prefix)
	for i, r := range key {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteByte('-')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return http.CanonicalHeaderKey(b.String())
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying cfg.
func NewContext(ctx context.Context, cfg AppConfig) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the AppConfig stored in ctx, or the compiled-in
// defaults when none was resolved for this request.
func FromContext(ctx context.Context) AppConfig {
	if cfg, ok := ctx.Value(contextKey{}).(AppConfig); ok {
		return cfg
	}
	return builtin
}
