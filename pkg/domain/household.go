package domain

import (
	"time"

	"github.com/google/uuid"
)

// Household is the tenant that owns tasks and memberships.
type Household struct {
	ID          uuid.UUID
	Name        string
	OwnerUserID uuid.UUID
	CreatedAt   time.Time
}

// Membership represents a user's role in a household.
type Membership struct {
	HouseholdID uuid.UUID
	UserID      uuid.UUID
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OnboardingStatus tracks whether a user has joined a household yet.
type OnboardingStatus string

const (
	OnboardingNew         OnboardingStatus = "new"
	OnboardingInHousehold OnboardingStatus = "in_household"
)

// Profile is the user-facing profile row. It is created at login elsewhere;
// this service only flips OnboardingStatus.
type Profile struct {
	UserID           uuid.UUID
	DisplayName      string
	OnboardingStatus OnboardingStatus
}

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID uuid.UUID
	Email  string
}
