package domain

import (
	"time"

	"github.com/google/uuid"
)

// InviteStatus is computed from an invite row at read time.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusExpired  InviteStatus = "expired"
)

// Invite is a single-use, time-limited credential for joining a household.
// Only the hash of the raw token is ever stored.
type Invite struct {
	ID              uuid.UUID
	HouseholdID     uuid.UUID
	Email           string
	TokenHash       string
	ExpiresAt       time.Time
	InvitedByUserID uuid.UUID
	AcceptedAt      *time.Time
	CreatedAt       time.Time
}

// IsAccepted returns true once the invite has been redeemed.
func (i *Invite) IsAccepted() bool {
	return i.AcceptedAt != nil
}

// IsExpired returns true if now is past the expiry.
func (i *Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Status derives the lifecycle state. Accepted wins over expired.
func (i *Invite) Status(now time.Time) InviteStatus {
	if i.IsAccepted() {
		return InviteStatusAccepted
	}
	if i.IsExpired(now) {
		return InviteStatusExpired
	}
	return InviteStatusPending
}
