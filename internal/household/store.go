// Package household implements household creation, invites, and role management.
package household

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
)

// InviteStore persists invites. Only token hashes ever reach it.
type InviteStore interface {
	Create(ctx context.Context, inv *domain.Invite) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error)
	MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error
	ListPending(ctx context.Context, householdID uuid.UUID, now time.Time) ([]*domain.Invite, error)
}

// MembershipStore persists household memberships.
type MembershipStore interface {
	Get(ctx context.Context, householdID, userID uuid.UUID) (*domain.Membership, error)
	GetForUser(ctx context.Context, userID uuid.UUID) (*domain.Membership, error)
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	Upsert(ctx context.Context, m *domain.Membership) error
	ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]*domain.Membership, error)
	CountManagers(ctx context.Context, householdID uuid.UUID) (int, error)
	// ChangeRole must atomically reject owner targets (ErrOwnerImmutable)
	// and demotions of the last owner/admin (ErrLastManager).
	ChangeRole(ctx context.Context, householdID, userID uuid.UUID, role domain.Role) error
}

// HouseholdStore persists households.
type HouseholdStore interface {
	CreateWithOwner(ctx context.Context, h *domain.Household) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Household, error)
}

// ProfileStore updates profiles created by the login flow.
type ProfileStore interface {
	SetOnboardingStatus(ctx context.Context, userID uuid.UUID, status domain.OnboardingStatus) error
	DisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// Stores groups the store dependencies of the household services.
type Stores struct {
	Invites     InviteStore
	Memberships MembershipStore
	Households  HouseholdStore
	Profiles    ProfileStore
}
