package household

import (
	"context"
	"errors"

	"github.com/trackly/trackly-home/pkg/domain"
)

// ChangeRoleInput is the manage-roles request.
type ChangeRoleInput struct {
	HouseholdID  string `json:"household_id"`
	TargetUserID string `json:"target_user_id"`
	NewRole      string `json:"new_role"`
}

// ChangeRoleResult confirms the applied role.
type ChangeRoleResult struct {
	Success bool        `json:"success"`
	NewRole domain.Role `json:"new_role"`
}

// RoleService changes member roles within a household.
type RoleService struct {
	memberships MembershipStore
	opts        options
}

// NewRoleService creates a new role service.
func NewRoleService(memberships MembershipStore, opts ...Option) *RoleService {
	return &RoleService{memberships: memberships, opts: buildOptions(opts)}
}

// ChangeRole sets the target member's role. The owner's role never changes,
// and a demotion that would leave the household without an owner or admin is
// rejected. Both rules are checked here and again atomically by the store.
func (s *RoleService) ChangeRole(ctx context.Context, caller *domain.Caller, in ChangeRoleInput) (*ChangeRoleResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	householdID, err := parseID("household_id", in.HouseholdID)
	if err != nil {
		return nil, err
	}
	targetID, err := parseID("target_user_id", in.TargetUserID)
	if err != nil {
		return nil, err
	}
	newRole, ok := domain.ParseRole(in.NewRole)
	if !ok || !domain.Assignable(newRole) {
		return nil, domain.ErrInvalidRole
	}

	callerMember, err := callerMembership(ctx, s.memberships, householdID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !callerMember.Role.CanAssign(newRole) {
		return nil, domain.ErrNotAdmin
	}

	target, err := s.memberships.Get(ctx, householdID, targetID)
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.DatabaseError(err)
	}
	if target.Role == domain.RoleOwner {
		return nil, domain.ErrCannotChangeOwner
	}

	if target.Role.IsDemotion(newRole) {
		managers, err := s.memberships.CountManagers(ctx, householdID)
		if err != nil {
			return nil, domain.DatabaseError(err)
		}
		if managers <= 1 {
			return nil, domain.ErrLastAdmin
		}
	}

	err = s.memberships.ChangeRole(ctx, householdID, targetID, newRole)
	switch {
	case errors.Is(err, domain.ErrOwnerImmutable):
		return nil, domain.ErrCannotChangeOwner
	case errors.Is(err, domain.ErrLastManager):
		return nil, domain.ErrLastAdmin
	case errors.Is(err, domain.ErrMembershipNotFound):
		return nil, domain.ErrUserNotFound
	case err != nil:
		return nil, domain.DatabaseError(err)
	}

	s.opts.logger.Info("role changed",
		"household_id", householdID,
		"target_user_id", targetID,
		"changed_by", caller.UserID,
		"from", target.Role,
		"to", newRole,
	)

	return &ChangeRoleResult{Success: true, NewRole: newRole}, nil
}
