package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
)

// ErrInvalidToken is returned for any access token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// IdentityConfig holds access token verification settings.
type IdentityConfig struct {
	JWTSecret []byte
	// Issuer and Audience are checked only when set.
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// AccessTokenClaims are the claims the identity provider puts in access tokens.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// IdentityVerifier exchanges bearer tokens for caller identities. Tokens are
// HS256 JWTs signed by the hosted identity provider with a shared secret.
type IdentityVerifier struct {
	config IdentityConfig
	parser *jwt.Parser
}

// NewIdentityVerifier creates a verifier for the given configuration.
func NewIdentityVerifier(config IdentityConfig) *IdentityVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	return &IdentityVerifier{
		config: config,
		parser: jwt.NewParser(opts...),
	}
}

// Verify validates an access token and returns the caller it identifies.
func (v *IdentityVerifier) Verify(_ context.Context, tokenString string) (*domain.Caller, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.config.JWTSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return &domain.Caller{UserID: userID, Email: claims.Email}, nil
}

// IssueAccessToken signs a token for caller. Production tokens come from the
// identity provider; this is used by the dev CLI and tests.
func (v *IdentityVerifier) IssueAccessToken(caller domain.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID.String(),
			Issuer:    v.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: caller.Email,
		Role:  "authenticated",
	}
	if v.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.config.JWTSecret)
}
