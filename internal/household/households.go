package household

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/auth"
	"github.com/trackly/trackly-home/pkg/domain"
)

// MaxHouseholdNameLength is the longest accepted household name, in characters.
const MaxHouseholdNameLength = 80

// unknownDisplayName is shown for members without a profile.
const unknownDisplayName = "Unknown"

// CreateHouseholdInput is the create-household request.
type CreateHouseholdInput struct {
	Name string `json:"name"`
}

// CreateHouseholdResult names the new household.
type CreateHouseholdResult struct {
	HouseholdID uuid.UUID `json:"household_id"`
}

// Member is a household member as listed to other members.
type Member struct {
	UserID      uuid.UUID   `json:"user_id"`
	Role        domain.Role `json:"role"`
	DisplayName string      `json:"display_name"`
}

// CurrentHousehold is the caller's household and their role in it.
type CurrentHousehold struct {
	HouseholdID uuid.UUID   `json:"household_id"`
	Name        string      `json:"name"`
	OwnerUserID uuid.UUID   `json:"owner_user_id"`
	Role        domain.Role `json:"role"`
}

// HouseholdService creates households and reads their membership.
type HouseholdService struct {
	households  HouseholdStore
	memberships MembershipStore
	profiles    ProfileStore
	opts        options
}

// NewHouseholdService creates a new household service.
func NewHouseholdService(stores Stores, opts ...Option) *HouseholdService {
	return &HouseholdService{
		households:  stores.Households,
		memberships: stores.Memberships,
		profiles:    stores.Profiles,
		opts:        buildOptions(opts),
	}
}

// CreateHousehold creates a household owned by the caller. A user may belong
// to one household at a time.
func (s *HouseholdService) CreateHousehold(ctx context.Context, caller *domain.Caller, in CreateHouseholdInput) (*CreateHouseholdResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	name := auth.CleanName(in.Name)
	if name == "" {
		return nil, domain.MissingField("name")
	}
	if auth.NameLength(name) > MaxHouseholdNameLength {
		return nil, domain.NewError(domain.CodeInvalidRequest, "Household name is too long")
	}

	exists, err := s.memberships.ExistsForUser(ctx, caller.UserID)
	if err != nil {
		return nil, domain.DatabaseError(err)
	}
	if exists {
		return nil, domain.ErrAlreadyInHousehold
	}

	h := &domain.Household{
		ID:          uuid.New(),
		Name:        name,
		OwnerUserID: caller.UserID,
		CreatedAt:   s.opts.now(),
	}
	err = s.households.CreateWithOwner(ctx, h)
	if errors.Is(err, domain.ErrAlreadyMember) {
		return nil, domain.ErrAlreadyInHousehold
	}
	if err != nil {
		return nil, domain.DatabaseError(err)
	}

	s.opts.logger.Info("household created", "household_id", h.ID, "owner_user_id", caller.UserID)

	return &CreateHouseholdResult{HouseholdID: h.ID}, nil
}

// ListMembers lists a household's members for any member of it.
func (s *HouseholdService) ListMembers(ctx context.Context, caller *domain.Caller, householdIDValue string) ([]Member, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	householdID, err := parseID("household_id", householdIDValue)
	if err != nil {
		return nil, err
	}

	if _, err := callerMembership(ctx, s.memberships, householdID, caller.UserID); err != nil {
		return nil, err
	}

	memberships, err := s.memberships.ListByHousehold(ctx, householdID)
	if err != nil {
		return nil, domain.DatabaseError(err)
	}

	ids := make([]uuid.UUID, len(memberships))
	for i, m := range memberships {
		ids[i] = m.UserID
	}
	names, err := s.profiles.DisplayNames(ctx, ids)
	if err != nil {
		return nil, domain.DatabaseError(err)
	}

	members := make([]Member, 0, len(memberships))
	for _, m := range memberships {
		name := names[m.UserID]
		if name == "" {
			name = unknownDisplayName
		}
		members = append(members, Member{UserID: m.UserID, Role: m.Role, DisplayName: name})
	}
	return members, nil
}

// CurrentHousehold returns the caller's household.
func (s *HouseholdService) CurrentHousehold(ctx context.Context, caller *domain.Caller) (*CurrentHousehold, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	m, err := s.memberships.GetForUser(ctx, caller.UserID)
	if errors.Is(err, domain.ErrMembershipNotFound) {
		return nil, domain.ErrHouseholdNotFound
	}
	if err != nil {
		return nil, domain.DatabaseError(err)
	}

	h, err := s.households.GetByID(ctx, m.HouseholdID)
	if errors.Is(err, domain.ErrHouseholdMissing) {
		return nil, domain.ErrHouseholdNotFound
	}
	if err != nil {
		return nil, domain.DatabaseError(err)
	}

	return &CurrentHousehold{
		HouseholdID: h.ID,
		Name:        h.Name,
		OwnerUserID: h.OwnerUserID,
		Role:        m.Role,
	}, nil
}
