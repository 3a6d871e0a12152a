package middleware

import (
	"net/http"
	"strings"

	"github.com/trackly/trackly-home/internal/httputil"
	"github.com/trackly/trackly-home/pkg/domain"
)

// DevOrigins are always allowed so local frontends work without configuration.
var DevOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

const (
	corsAllowMethods = "GET,POST,OPTIONS"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsMaxAge       = "86400"
)

// OriginAllowList is a set of exact origins.
type OriginAllowList map[string]struct{}

// NewOriginAllowList builds the allow-list from configured origins plus
// DevOrigins. Entries are trimmed and trailing slashes removed.
func NewOriginAllowList(origins ...string) OriginAllowList {
	list := make(OriginAllowList)
	for _, o := range append(origins, DevOrigins...) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			list[o] = struct{}{}
		}
	}
	return list
}

// Allowed reports whether origin is in the list. Matching is exact.
func (l OriginAllowList) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := l[origin]
	return ok
}

// CORS enforces the origin allow-list. Allowed origins are reflected with
// credentials; any other origin, or none, gets 403 and no
// Access-Control-Allow-Origin header. Preflight requests end here.
func CORS(allowed OriginAllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if !allowed.Allowed(origin) {
				httputil.Error(w, domain.CodeForbidden, "Origin not allowed")
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", corsMaxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
