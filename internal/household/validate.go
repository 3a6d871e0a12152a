package household

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
)

// parseID validates a required UUID field.
func parseID(field, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, domain.MissingField(field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, domain.NewError(domain.CodeInvalidRequest, "Invalid "+field)
	}
	return id, nil
}

func requireCaller(caller *domain.Caller) error {
	if caller == nil || caller.UserID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	return nil
}

// callerMembership loads the caller's membership, mapping a missing row to
// NOT_HOUSEHOLD_MEMBER.
func callerMembership(ctx context.Context, ms MembershipStore, householdID, userID uuid.UUID) (*domain.Membership, error) {
	m, err := ms.Get(ctx, householdID, userID)
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, domain.ErrNotHouseholdMember
	}
	if err != nil {
		return nil, domain.DatabaseError(err)
	}
	return m, nil
}

// requireManager loads the caller's membership and requires owner or admin.
func requireManager(ctx context.Context, ms MembershipStore, householdID, userID uuid.UUID) (*domain.Membership, error) {
	m, err := callerMembership(ctx, ms, householdID, userID)
	if err != nil {
		return nil, err
	}
	if !m.Role.CanManage() {
		return nil, domain.ErrNotAdmin
	}
	return m, nil
}
