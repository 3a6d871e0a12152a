// Package home assembles the Trackly Home household service: stores,
// services, and the HTTP router.
//
// Setup:
//
//  1. Apply the schema (trackly-home migrate up, or repository.Migrate)
//  2. Create a Home instance and serve its handler
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/trackly_home?sslmode=disable")
//
//	app, err := home.New(home.Config{
//	    DB:        db,
//	    JWTSecret: os.Getenv("JWT_SECRET"),
//	    SiteURL:   "https://home.trackly.app",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if migrations haven't been run
//	}
//
//	http.ListenAndServe(":8080", app.Handler())
//
// With a nil DB the service runs on an in-memory store, which is meant for
// local development and tests.
package home

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/trackly/trackly-home/internal/config"
	"github.com/trackly/trackly-home/internal/household"
	httpserver "github.com/trackly/trackly-home/internal/http"
	"github.com/trackly/trackly-home/internal/http/features/webhooks"
	"github.com/trackly/trackly-home/internal/http/middleware"
	"github.com/trackly/trackly-home/internal/metrics"
	"github.com/trackly/trackly-home/pkg/auth"
	"github.com/trackly/trackly-home/pkg/domain"
	"github.com/trackly/trackly-home/pkg/repository"
	"github.com/trackly/trackly-home/pkg/repository/memstore"
)

// Mailer delivers invite emails. A nil Mailer means invites are shared by
// link only.
type Mailer = household.Mailer

// InviteEmail is the message handed to a Mailer.
type InviteEmail = household.InviteEmail

// RateLimitConfig holds per-IP limits for invite and household endpoints.
type RateLimitConfig = config.RateLimitConfig

// SecurityHeadersConfig holds response security headers.
type SecurityHeadersConfig = config.SecurityHeadersConfig

// MinJWTSecretLength is the shortest accepted identity provider secret.
const MinJWTSecretLength = 32

// Config holds the configuration for a Home instance.
type Config struct {
	// DB is the Postgres connection. When nil an in-memory store is used.
	DB *sql.DB

	// JWTSecret verifies access tokens issued by the identity provider
	// (required, min 32 chars).
	JWTSecret string

	// JWTIssuer and JWTAudience are checked when set.
	JWTIssuer   string
	JWTAudience string

	// JWTLeeway is the allowed clock skew for token expiry.
	JWTLeeway time.Duration

	// SiteURL is the public web app; invite links point at SiteURL/join
	// (required). It is also an allowed browser origin.
	SiteURL string

	// AllowedOrigins are extra browser origins allowed to call the API.
	AllowedOrigins []string

	// Mailer sends invite emails (optional).
	Mailer Mailer

	// EmailWebhookSecret enables the signed delivery webhook (optional).
	EmailWebhookSecret string

	RateLimit          RateLimitConfig
	SecurityHeaders    SecurityHeadersConfig
	MaxRequestBodySize int64

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// Home is a wired household service instance.
type Home struct {
	config   Config
	verifier *auth.IdentityVerifier
	metrics  *metrics.Metrics
	memory   *memstore.Store
	handler  http.Handler
}

// New creates a Home instance. When cfg.DB is set, New returns an error if
// the schema has not been migrated.
func New(cfg Config) (*Home, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	h := &Home{
		config:  cfg,
		metrics: metrics.New(),
		verifier: auth.NewIdentityVerifier(auth.IdentityConfig{
			JWTSecret: []byte(cfg.JWTSecret),
			Issuer:    cfg.JWTIssuer,
			Audience:  cfg.JWTAudience,
			Leeway:    cfg.JWTLeeway,
		}),
	}

	var stores household.Stores
	if cfg.DB != nil {
		if err := validateSchema(context.Background(), cfg.DB); err != nil {
			return nil, err
		}
		stores = postgresStores(cfg.DB)
	} else {
		h.memory = memstore.New()
		stores = household.Stores{
			Invites:     h.memory.Invites(),
			Memberships: h.memory.Memberships(),
			Households:  h.memory.Households(),
			Profiles:    h.memory.Profiles(),
		}
	}

	var webhookKey []byte
	if cfg.EmailWebhookSecret != "" {
		key, err := auth.DeriveKey(cfg.EmailWebhookSecret, webhooks.KeyInfo)
		if err != nil {
			return nil, fmt.Errorf("home: %w", err)
		}
		webhookKey = key
	}

	opts := []household.Option{
		household.WithLogger(cfg.Logger),
		household.WithDispatchObserver(h.observeDispatch),
	}

	h.handler = httpserver.NewRouter(httpserver.RouterConfig{
		Logger:           cfg.Logger,
		InviteService:    household.NewInviteService(stores, cfg.Mailer, cfg.SiteURL, opts...),
		RoleService:      household.NewRoleService(stores.Memberships, opts...),
		HouseholdService: household.NewHouseholdService(stores, opts...),
		Verifier:         h.verifier,
		Metrics:          h.metrics,
		AllowedOrigins:   append([]string{cfg.SiteURL}, cfg.AllowedOrigins...),
		RateLimitConfig:  cfg.RateLimit,
		SecurityHeaders:  cfg.SecurityHeaders,
		Validation:       config.ValidationConfig{MaxRequestBodySize: cfg.MaxRequestBodySize},
		EmailWebhookKey:  webhookKey,
	})

	return h, nil
}

func postgresStores(db *sql.DB) household.Stores {
	return household.Stores{
		Invites:     repository.NewInvitesRepository(db),
		Memberships: repository.NewMembershipsRepository(db),
		Households:  repository.NewHouseholdsRepository(db),
		Profiles:    repository.NewProfilesRepository(db),
	}
}

func (h *Home) observeDispatch(r household.DispatchResult) {
	switch {
	case r.Sent:
		h.metrics.InviteEmail("sent")
	case r.Err != nil:
		h.metrics.InviteEmail("failed")
	default:
		h.metrics.InviteEmail("skipped")
	}
}

// Handler returns the service's http.Handler, including /health and
// /metrics.
//
// Routes (all POST, JSON, bearer auth, origin allow-list):
//
//	/create-invite     - Invite an email address to a household
//	/accept-invite     - Redeem an invite token
//	/list-invites      - Pending invites of a managed household
//	/manage-roles      - Promote or demote a member
//	/create-household  - Create a household owned by the caller
//	/list-members      - Members of the caller's household
//	/my-household      - The caller's current household
//	/email-events      - Signed delivery webhook (if configured)
func (h *Home) Handler() http.Handler {
	return h.handler
}

// Routes registers the service on an http.ServeMux under prefix:
//
//	mux := http.NewServeMux()
//	app.Routes(mux, "/api/household")
func (h *Home) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, h.handler))
}

// AuthMiddleware returns middleware that validates identity provider tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(app.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (h *Home) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(h.verifier)
}

// IssueToken signs a development access token for caller. Production tokens
// come from the identity provider.
func (h *Home) IssueToken(caller domain.Caller, ttl time.Duration) (string, error) {
	return h.verifier.IssueAccessToken(caller, ttl)
}

// InMemory reports whether the instance runs without a database.
func (h *Home) InMemory() bool {
	return h.memory != nil
}

// GetCaller extracts the authenticated caller from a request.
// Use after AuthMiddleware:
//
//	caller, ok := home.GetCaller(r)
func GetCaller(r *http.Request) (*domain.Caller, bool) {
	return middleware.GetCaller(r.Context())
}

func validateConfig(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("home: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("home: JWTSecret must be at least %d characters", MinJWTSecretLength)
	}
	if cfg.SiteURL == "" {
		return errors.New("home: SiteURL is required")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(ctx context.Context, db *sql.DB) error {
	requiredTables := []string{"profiles", "households", "household_members", "invites"}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRowContext(ctx, query, table).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("home: missing table '%s' - run migrations first (trackly-home migrate up)", table)
		}
		if err != nil {
			return fmt.Errorf("home: failed to check schema: %w", err)
		}
	}

	return nil
}
