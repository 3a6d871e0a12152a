package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/trackly/trackly-home/internal/config"
	"github.com/trackly/trackly-home/internal/household"
	"github.com/trackly/trackly-home/internal/http/features/households"
	"github.com/trackly/trackly-home/internal/http/features/invites"
	"github.com/trackly/trackly-home/internal/http/features/roles"
	"github.com/trackly/trackly-home/internal/http/features/webhooks"
	"github.com/trackly/trackly-home/internal/http/middleware"
	"github.com/trackly/trackly-home/internal/httputil"
	"github.com/trackly/trackly-home/internal/metrics"
	"github.com/trackly/trackly-home/pkg/domain"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger           *slog.Logger
	InviteService    *household.InviteService
	RoleService      *household.RoleService
	HouseholdService *household.HouseholdService
	Verifier         middleware.IdentityVerifier
	Metrics          *metrics.Metrics
	AllowedOrigins   []string
	RateLimitConfig  config.RateLimitConfig
	SecurityHeaders  config.SecurityHeadersConfig
	Validation       config.ValidationConfig
	EmailWebhookKey  []byte // Derived MAC key; the webhook is not mounted when empty
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, domain.CodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusMethodNotAllowed, httputil.ErrorBody{Error: httputil.ErrorDetail{
			Message: "Method not allowed",
			Code:    domain.CodeInvalidRequest,
			Status:  http.StatusMethodNotAllowed,
		}})
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	// Browser-facing JSON endpoints: origin check, then bearer auth.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CORS(middleware.NewOriginAllowList(cfg.AllowedOrigins...)))
		r.Use(middleware.Auth(cfg.Verifier))

		invites.NewHandler(cfg.Logger, cfg.InviteService).RegisterRoutes(r, rateLimiters[middleware.LimiterInvite])
		roles.NewHandler(cfg.Logger, cfg.RoleService).RegisterRoutes(r)
		households.NewHandler(cfg.Logger, cfg.HouseholdService).RegisterRoutes(r, rateLimiters[middleware.LimiterHousehold])
	})

	// Server-to-server delivery callbacks: signature check instead of origin and bearer.
	if len(cfg.EmailWebhookKey) > 0 {
		var recorder webhooks.EventRecorder
		if cfg.Metrics != nil {
			recorder = cfg.Metrics
		}
		webhooks.NewHandler(cfg.Logger, cfg.EmailWebhookKey, recorder).RegisterRoutes(r)
	}

	return r
}
