package security

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// HeadersConfig describes the response headers added to every request.
type HeadersConfig struct {
	// CSPDirectives are joined into Content-Security-Policy.
	CSPDirectives []string

	// HSTSMaxAge is only sent on TLS connections. Zero disables HSTS.
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool

	// Fixed headers sent as-is.
	Fixed map[string]string
}

// DefaultHeadersConfig returns headers for a same-origin page that loads
// only its own script and stylesheet and talks back over HTTP and websockets.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSPDirectives: []string{
			"default-src 'self'",
			"script-src 'self'",
			"style-src 'self'",
			"img-src 'self' data:",
			"connect-src 'self' ws: wss:",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		},
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		Fixed: map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "strict-origin-when-cross-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
	}
}

// HeadersMiddleware applies security headers to responses. Header values
// are rendered once at construction.
type HeadersMiddleware struct {
	names  []string
	values map[string]string
	hsts   string
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{values: make(map[string]string, len(config.Fixed)+1)}
	for name, value := range config.Fixed {
		if value != "" {
			h.values[http.CanonicalHeaderKey(name)] = value
		}
	}
	if len(config.CSPDirectives) > 0 {
		h.values["Content-Security-Policy"] = strings.Join(config.CSPDirectives, "; ")
	}
	for name := range h.values {
		h.names = append(h.names, name)
	}
	sort.Strings(h.names)

	if config.HSTSMaxAge > 0 {
		h.hsts = "max-age=" + strconv.Itoa(int(config.HSTSMaxAge/time.Second))
		if config.HSTSIncludeSubdomains {
			h.hsts += "; includeSubDomains"
		}
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for _, name := range h.names {
			headers.Set(name, h.values[name])
		}
		if r.TLS != nil && h.hsts != "" {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware lets browsers cache embedded assets for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
