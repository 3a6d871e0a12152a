package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/trackly/trackly-home/internal/httputil"
	"github.com/trackly/trackly-home/pkg/domain"
)

type contextKey string

// CallerKey is the context key for the authenticated caller.
const CallerKey contextKey = "caller"

// IdentityVerifier exchanges a bearer token for the caller's identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Caller, error)
}

// Auth creates middleware that requires an `Authorization: Bearer <token>`
// header accepted by the verifier.
func Auth(verifier IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httputil.Error(w, domain.CodeUnauthorized, "Missing authorization header")
				return
			}

			caller, err := verifier.Verify(r.Context(), token)
			if err != nil || caller == nil {
				httputil.Error(w, domain.CodeUnauthorized, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetCaller extracts the authenticated caller from the request context.
func GetCaller(ctx context.Context) (*domain.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(*domain.Caller)
	return caller, ok
}
