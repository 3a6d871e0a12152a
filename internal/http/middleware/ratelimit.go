package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/trackly/trackly-home/internal/config"
	"github.com/trackly/trackly-home/internal/httputil"
	"github.com/trackly/trackly-home/pkg/domain"
)

// Limiter names returned by CreateRateLimiters.
const (
	LimiterInvite    = "invite"
	LimiterHousehold = "household"
)

// RateLimitConfig holds rate limiting configuration for a specific endpoint type.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates a limiter keyed by client IP and endpoint, so routes
// sharing a limiter still get separate budgets.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
				)
			}
			httputil.Error(w, domain.CodeRateLimited, "Too many requests. Please try again later.")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters builds the per-minute limiters named by the Limiter*
// constants. A disabled config or a non-positive limit yields a no-op.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	perMinute := map[string]int{
		LimiterInvite:    cfg.InviteRequestsPerMinute,
		LimiterHousehold: cfg.HouseholdRequestsPerMinute,
	}

	limiters := make(map[string]func(http.Handler) http.Handler, len(perMinute))
	for name, n := range perMinute {
		if !cfg.Enabled || n <= 0 {
			limiters[name] = NoRateLimit()
			continue
		}
		limiters[name] = RateLimit(RateLimitConfig{Requests: n, Window: time.Minute, Logger: logger})
	}
	return limiters
}
