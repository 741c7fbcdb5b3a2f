package security

import (
	"net/http"
	"strconv"
	"time"
)

// HeadersConfig lists the response headers added to every API reply. Empty
// values are not sent.
type HeadersConfig struct {
	CSP                 string
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CrossOriginResource string
	CacheControl        string

	// HSTS is sent on TLS connections only. Zero disables it.
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
}

// DefaultHeadersConfig suits a JSON API that never serves documents.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CrossOriginResource:   "same-origin",
		CacheControl:          "no-store",
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
	}
}

type HeadersMiddleware struct {
	static [][2]string
	hsts   string
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	h := &HeadersMiddleware{}
	for _, kv := range [][2]string{
		{"X-Content-Type-Options", config.XContentTypeOptions},
		{"X-Frame-Options", config.XFrameOptions},
		{"Content-Security-Policy", config.CSP},
		{"Referrer-Policy", config.ReferrerPolicy},
		{"Cross-Origin-Resource-Policy", config.CrossOriginResource},
		{"Cache-Control", config.CacheControl},
	} {
		if kv[1] != "" {
			h.static = append(h.static, kv)
		}
	}
	if secs := int64(config.HSTSMaxAge / time.Second); secs > 0 {
		h.hsts = "max-age=" + strconv.FormatInt(secs, 10)
		if config.HSTSIncludeSubdomains {
			h.hsts += "; includeSubDomains"
		}
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		for _, kv := range h.static {
			hdr.Set(kv[0], kv[1])
		}
		if h.hsts != "" && r.TLS != nil {
			hdr.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}
