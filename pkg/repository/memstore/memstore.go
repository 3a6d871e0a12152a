// Package memstore is an in-memory implementation of the household stores.
// It backs tests and `serve --store=memory`; all state is lost on exit.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
)

type memberKey struct {
	householdID uuid.UUID
	userID      uuid.UUID
}

// Store holds all in-memory state behind a single lock, so multi-row
// operations such as CreateWithOwner and ChangeRole are atomic.
type Store struct {
	mu         sync.Mutex
	households map[uuid.UUID]domain.Household
	members    map[memberKey]domain.Membership
	invites    map[uuid.UUID]domain.Invite
	byHash     map[string]uuid.UUID
	profiles   map[uuid.UUID]domain.Profile
}

// New creates an empty store.
func New() *Store {
	return &Store{
		households: make(map[uuid.UUID]domain.Household),
		members:    make(map[memberKey]domain.Membership),
		invites:    make(map[uuid.UUID]domain.Invite),
		byHash:     make(map[string]uuid.UUID),
		profiles:   make(map[uuid.UUID]domain.Profile),
	}
}

// Invites returns the invite store view.
func (s *Store) Invites() *Invites { return &Invites{s: s} }

// Memberships returns the membership store view.
func (s *Store) Memberships() *Memberships { return &Memberships{s: s} }

// Households returns the household store view.
func (s *Store) Households() *Households { return &Households{s: s} }

// Profiles returns the profile store view.
func (s *Store) Profiles() *Profiles { return &Profiles{s: s} }

// PutProfile inserts or replaces a profile, standing in for the login flow
// that creates profiles in production.
func (s *Store) PutProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.OnboardingStatus == "" {
		p.OnboardingStatus = domain.OnboardingNew
	}
	s.profiles[p.UserID] = p
}

// Profile returns a copy of the user's profile.
func (s *Store) Profile(userID uuid.UUID) (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	return p, ok
}

// Invites is the in-memory invite store.
type Invites struct {
	s *Store
}

func (v *Invites) Create(_ context.Context, inv *domain.Invite) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[inv.TokenHash]; ok {
		return domain.ErrDuplicateTokenHash
	}
	s.invites[inv.ID] = *inv
	s.byHash[inv.TokenHash] = inv.ID
	return nil
}

func (v *Invites) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Invite, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHash[tokenHash]
	if !ok {
		return nil, domain.ErrInviteMissing
	}
	inv := s.invites[id]
	return &inv, nil
}

func (v *Invites) MarkAccepted(_ context.Context, id uuid.UUID, at time.Time) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[id]
	if !ok || inv.AcceptedAt != nil {
		return domain.ErrInviteAlreadyAccepted
	}
	inv.AcceptedAt = &at
	s.invites[id] = inv
	return nil
}

func (v *Invites) ListPending(_ context.Context, householdID uuid.UUID, now time.Time) ([]*domain.Invite, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Invite
	for _, inv := range s.invites {
		if inv.HouseholdID == householdID && inv.Status(now) == domain.InviteStatusPending {
			inv := inv
			out = append(out, &inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Memberships is the in-memory membership store.
type Memberships struct {
	s *Store
}

func (v *Memberships) Get(_ context.Context, householdID, userID uuid.UUID) (*domain.Membership, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey{householdID, userID}]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	return &m, nil
}

func (v *Memberships) GetForUser(_ context.Context, userID uuid.UUID) (*domain.Membership, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *domain.Membership
	for _, m := range s.members {
		if m.UserID != userID {
			continue
		}
		if found == nil || m.CreatedAt.Before(found.CreatedAt) {
			m := m
			found = &m
		}
	}
	if found == nil {
		return nil, domain.ErrMembershipNotFound
	}
	return found, nil
}

func (v *Memberships) ExistsForUser(_ context.Context, userID uuid.UUID) (bool, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existsForUser(userID), nil
}

func (s *Store) existsForUser(userID uuid.UUID) bool {
	for k := range s.members {
		if k.userID == userID {
			return true
		}
	}
	return false
}

// Upsert inserts m unless the (household, user) pair exists already.
func (v *Memberships) Upsert(_ context.Context, m *domain.Membership) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{m.HouseholdID, m.UserID}
	if _, ok := s.members[key]; ok {
		return nil
	}
	s.members[key] = *m
	return nil
}

func (v *Memberships) ListByHousehold(_ context.Context, householdID uuid.UUID) ([]*domain.Membership, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Membership
	for k, m := range s.members {
		if k.householdID == householdID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v *Memberships) CountManagers(_ context.Context, householdID uuid.UUID) (int, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countManagers(householdID), nil
}

func (s *Store) countManagers(householdID uuid.UUID) int {
	n := 0
	for k, m := range s.members {
		if k.householdID == householdID && m.Role.CanManage() {
			n++
		}
	}
	return n
}

// ChangeRole applies the owner and last-manager guards and the update under
// one lock acquisition.
func (v *Memberships) ChangeRole(_ context.Context, householdID, userID uuid.UUID, role domain.Role) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{householdID, userID}
	m, ok := s.members[key]
	if !ok {
		return domain.ErrMembershipNotFound
	}
	if m.Role == domain.RoleOwner {
		return domain.ErrOwnerImmutable
	}
	if m.Role.IsDemotion(role) && s.countManagers(householdID) <= 1 {
		return domain.ErrLastManager
	}
	m.Role = role
	m.UpdatedAt = time.Now().UTC()
	s.members[key] = m
	return nil
}

// Households is the in-memory household store.
type Households struct {
	s *Store
}

func (v *Households) CreateWithOwner(_ context.Context, h *domain.Household) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsForUser(h.OwnerUserID) {
		return domain.ErrAlreadyMember
	}
	s.households[h.ID] = *h
	s.members[memberKey{h.ID, h.OwnerUserID}] = domain.Membership{
		HouseholdID: h.ID,
		UserID:      h.OwnerUserID,
		Role:        domain.RoleOwner,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.CreatedAt,
	}
	s.setOnboardingStatus(h.OwnerUserID, domain.OnboardingInHousehold)
	return nil
}

func (v *Households) GetByID(_ context.Context, id uuid.UUID) (*domain.Household, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.households[id]
	if !ok {
		return nil, domain.ErrHouseholdMissing
	}
	return &h, nil
}

// Profiles is the in-memory profile store.
type Profiles struct {
	s *Store
}

func (v *Profiles) SetOnboardingStatus(_ context.Context, userID uuid.UUID, status domain.OnboardingStatus) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setOnboardingStatus(userID, status)
	return nil
}

// setOnboardingStatus only updates existing profiles, like the SQL UPDATE.
func (s *Store) setOnboardingStatus(userID uuid.UUID, status domain.OnboardingStatus) {
	if p, ok := s.profiles[userID]; ok {
		p.OnboardingStatus = status
		s.profiles[userID] = p
	}
}

func (v *Profiles) DisplayNames(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make(map[uuid.UUID]string, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			names[id] = p.DisplayName
		}
	}
	return names, nil
}
