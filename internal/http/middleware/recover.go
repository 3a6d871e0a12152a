package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/trackly/trackly-home/internal/httputil"
	"github.com/trackly/trackly-home/pkg/domain"
)

// Recover turns a handler panic into a 500 INTERNAL_ERROR response.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					httputil.Error(w, domain.CodeInternal, "An internal error occurred. Please try again.")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
