package household

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
	"github.com/trackly/trackly-home/pkg/repository/memstore"
)

const testSiteURL = "https://app.trackly.test"

type recordingMailer struct {
	sent []InviteEmail
	err  error
}

func (m *recordingMailer) SendInvite(_ context.Context, msg InviteEmail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixture struct {
	store      *memstore.Store
	stores     Stores
	mailer     *recordingMailer
	now        time.Time
	invites    *InviteService
	roles      *RoleService
	households *HouseholdService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		mailer: &recordingMailer{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.stores = Stores{
		Invites:     f.store.Invites(),
		Memberships: f.store.Memberships(),
		Households:  f.store.Households(),
		Profiles:    f.store.Profiles(),
	}
	f.rebuild()
	return f
}

// rebuild recreates the services, picking up any replaced stores.
func (f *fixture) rebuild() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := WithClock(func() time.Time { return f.now })
	f.invites = NewInviteService(f.stores, f.mailer, testSiteURL, clock, WithLogger(logger))
	f.roles = NewRoleService(f.stores.Memberships, clock, WithLogger(logger))
	f.households = NewHouseholdService(f.stores, clock, WithLogger(logger))
}

func (f *fixture) user(name string) *domain.Caller {
	c := &domain.Caller{UserID: uuid.New(), Email: strings.ToLower(name) + "@example.com"}
	f.store.PutProfile(domain.Profile{UserID: c.UserID, DisplayName: name})
	return c
}

func (f *fixture) createHousehold(t *testing.T, owner *domain.Caller, name string) uuid.UUID {
	t.Helper()
	res, err := f.households.CreateHousehold(context.Background(), owner, CreateHouseholdInput{Name: name})
	if err != nil {
		t.Fatalf("CreateHousehold: %v", err)
	}
	return res.HouseholdID
}

func (f *fixture) invite(t *testing.T, caller *domain.Caller, householdID uuid.UUID, email string) string {
	t.Helper()
	res, err := f.invites.CreateInvite(context.Background(), caller, CreateInviteInput{
		HouseholdID: householdID.String(),
		Email:       email,
	})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	return tokenFromURL(t, res.InviteURL)
}

func (f *fixture) join(t *testing.T, caller *domain.Caller, householdID uuid.UUID) {
	t.Helper()
	token := f.invite(t, f.ownerOf(t, householdID), householdID, caller.Email)
	if _, err := f.invites.AcceptInvite(context.Background(), caller, AcceptInviteInput{Token: token}); err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
}

func (f *fixture) ownerOf(t *testing.T, householdID uuid.UUID) *domain.Caller {
	t.Helper()
	h, err := f.store.Households().GetByID(context.Background(), householdID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return &domain.Caller{UserID: h.OwnerUserID, Email: "owner@example.com"}
}

func (f *fixture) role(t *testing.T, householdID, userID uuid.UUID) domain.Role {
	t.Helper()
	m, err := f.store.Memberships().Get(context.Background(), householdID, userID)
	if err != nil {
		t.Fatalf("Get membership: %v", err)
	}
	return m.Role
}

func tokenFromURL(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse invite url: %v", err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatalf("invite url %q has no token", raw)
	}
	return token
}

func assertCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *domain.Error with code %s", err, code)
	}
	if de.Code != code {
		t.Fatalf("code = %s, want %s (err: %v)", de.Code, code, err)
	}
}
