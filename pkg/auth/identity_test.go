package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
)

func newTestVerifier() *IdentityVerifier {
	return NewIdentityVerifier(IdentityConfig{
		JWTSecret: []byte("test-secret-at-least-32-bytes-long!!"),
		Issuer:    "trackly-test",
		Audience:  "authenticated",
	})
}

func TestIdentityVerifier_RoundTrip(t *testing.T) {
	v := newTestVerifier()
	caller := domain.Caller{UserID: uuid.New(), Email: "alex@example.com"}

	token, err := v.IssueAccessToken(caller, time.Minute)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	got, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID != caller.UserID {
		t.Errorf("UserID = %s, want %s", got.UserID, caller.UserID)
	}
	if got.Email != caller.Email {
		t.Errorf("Email = %q, want %q", got.Email, caller.Email)
	}
}

func TestIdentityVerifier_Rejects(t *testing.T) {
	v := newTestVerifier()
	secret := []byte("test-secret-at-least-32-bytes-long!!")

	sign := func(claims AccessTokenClaims, key []byte, method jwt.SigningMethod) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	valid := func() AccessTokenClaims {
		return AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    "trackly-test",
				Audience:  jwt.ClaimStrings{"authenticated"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
	}

	expired := valid()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := valid()
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := valid()
	wrongAudience.Audience = jwt.ClaimStrings{"anon"}

	badSubject := valid()
	badSubject.Subject = "not-a-uuid"

	noExpiry := valid()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.jwt"},
		{name: "empty", token: ""},
		{name: "wrong key", token: sign(valid(), []byte("another-secret-that-is-long-enough"), jwt.SigningMethodHS256)},
		{name: "wrong method", token: sign(valid(), secret, jwt.SigningMethodHS512)},
		{name: "expired", token: sign(expired, secret, jwt.SigningMethodHS256)},
		{name: "wrong issuer", token: sign(wrongIssuer, secret, jwt.SigningMethodHS256)},
		{name: "wrong audience", token: sign(wrongAudience, secret, jwt.SigningMethodHS256)},
		{name: "non-uuid subject", token: sign(badSubject, secret, jwt.SigningMethodHS256)},
		{name: "missing expiry", token: sign(noExpiry, secret, jwt.SigningMethodHS256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), tt.token); err != ErrInvalidToken {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
