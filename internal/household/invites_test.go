package household

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/auth"
	"github.com/trackly/trackly-home/pkg/domain"
)

func TestCreateInvite(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	hid := f.createHousehold(t, owner, "Casa")

	res, err := f.invites.CreateInvite(context.Background(), owner, CreateInviteInput{
		HouseholdID: " " + hid.String() + " ",
		Email:       "  P@Example.com ",
	})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	if !strings.HasPrefix(res.InviteURL, testSiteURL+"/join?token=") {
		t.Errorf("InviteURL = %q", res.InviteURL)
	}
	if !res.EmailSent {
		t.Error("EmailSent should be true")
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.To != "p@example.com" {
		t.Errorf("To = %q, want normalized email", msg.To)
	}
	if msg.InviteURL != res.InviteURL || msg.HouseholdName != "Casa" {
		t.Errorf("unexpected email %+v", msg)
	}

	token := tokenFromURL(t, res.InviteURL)
	inv, err := f.store.Invites().GetByTokenHash(context.Background(), auth.HashToken(token))
	if err != nil {
		t.Fatalf("stored invite not found by hash: %v", err)
	}
	if !inv.ExpiresAt.Equal(f.now.Add(InviteTTL)) {
		t.Errorf("ExpiresAt = %v, want now+7d", inv.ExpiresAt)
	}
	if inv.InvitedByUserID != owner.UserID {
		t.Errorf("InvitedByUserID = %v, want owner", inv.InvitedByUserID)
	}
}

func TestCreateInvite_Validation(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	hid := f.createHousehold(t, owner, "Casa")

	tests := []struct {
		name string
		in   CreateInviteInput
		code domain.ErrorCode
	}{
		{"missing household", CreateInviteInput{Email: "p@example.com"}, domain.CodeMissingField},
		{"malformed household", CreateInviteInput{HouseholdID: "nope", Email: "p@example.com"}, domain.CodeInvalidRequest},
		{"missing email", CreateInviteInput{HouseholdID: hid.String(), Email: "   "}, domain.CodeMissingField},
		{"invalid email", CreateInviteInput{HouseholdID: hid.String(), Email: "not-an-email"}, domain.CodeInvalidEmail},
		{"email with space", CreateInviteInput{HouseholdID: hid.String(), Email: "a b@example.com"}, domain.CodeInvalidEmail},
		{"email too long", CreateInviteInput{HouseholdID: hid.String(), Email: strings.Repeat("a", 250) + "@x.io"}, domain.CodeInvalidEmail},
		{"not a member", CreateInviteInput{HouseholdID: uuid.NewString(), Email: "p@example.com"}, domain.CodeNotHouseholdMember},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.invites.CreateInvite(context.Background(), owner, tt.in)
			assertCode(t, err, tt.code)
		})
	}

	if len(f.mailer.sent) != 0 {
		t.Errorf("no email should be sent on validation failure, sent %d", len(f.mailer.sent))
	}
}

func TestCreateInvite_RequiresManager(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	member := f.user("Member")
	hid := f.createHousehold(t, owner, "Casa")
	f.join(t, member, hid)

	_, err := f.invites.CreateInvite(context.Background(), member, CreateInviteInput{
		HouseholdID: hid.String(),
		Email:       "x@example.com",
	})
	assertCode(t, err, domain.CodeNotAdmin)

	_, err = f.invites.CreateInvite(context.Background(), nil, CreateInviteInput{})
	assertCode(t, err, domain.CodeUnauthorized)
}

func TestCreateInvite_EmailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("relay down")
	var observed []DispatchResult
	f.invites = NewInviteService(f.stores, f.mailer, testSiteURL,
		WithClock(func() time.Time { return f.now }),
		WithDispatchObserver(func(r DispatchResult) { observed = append(observed, r) }),
	)

	owner := f.user("Owner")
	hid := f.createHousehold(t, owner, "Casa")

	res, err := f.invites.CreateInvite(context.Background(), owner, CreateInviteInput{
		HouseholdID: hid.String(),
		Email:       "p@example.com",
	})
	if err != nil {
		t.Fatalf("CreateInvite should succeed when email fails: %v", err)
	}
	if res.EmailSent {
		t.Error("EmailSent should be false")
	}
	if res.InviteURL == "" {
		t.Error("InviteURL should still be returned for manual sharing")
	}
	if len(observed) != 1 || observed[0].Sent || observed[0].Err == nil {
		t.Errorf("observed = %+v, want one failed dispatch", observed)
	}
}

func TestCreateInvite_NilMailer(t *testing.T) {
	f := newFixture(t)
	f.invites = NewInviteService(f.stores, nil, testSiteURL)
	owner := f.user("Owner")
	hid := f.createHousehold(t, owner, "Casa")

	res, err := f.invites.CreateInvite(context.Background(), owner, CreateInviteInput{
		HouseholdID: hid.String(),
		Email:       "p@example.com",
	})
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}
	if res.EmailSent {
		t.Error("EmailSent should be false without a mailer")
	}
}

func TestCreateInvite_NotIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	hid := f.createHousehold(t, owner, "Casa")

	t1 := f.invite(t, owner, hid, "p@example.com")
	t2 := f.invite(t, owner, hid, "p@example.com")
	if t1 == t2 {
		t.Fatal("retried invites must carry distinct tokens")
	}

	pending, err := f.invites.ListPendingInvites(context.Background(), owner, hid.String())
	if err != nil {
		t.Fatalf("ListPendingInvites: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("len(pending) = %d, want 2", len(pending))
	}
}

// collidingInvites rejects the first Create with a duplicate hash.
type collidingInvites struct {
	InviteStore
	collisions int
}

func (c *collidingInvites) Create(ctx context.Context, inv *domain.Invite) error {
	if c.collisions > 0 {
		c.collisions--
		return domain.ErrDuplicateTokenHash
	}
	return c.InviteStore.Create(ctx, inv)
}

func TestCreateInvite_RetriesTokenCollision(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	hid := f.createHousehold(t, owner, "Casa")

	f.stores.Invites = &collidingInvites{InviteStore: f.stores.Invites, collisions: 1}
	f.rebuild()
	f.invite(t, owner, hid, "p@example.com")

	f.stores.Invites = &collidingInvites{InviteStore: f.stores.Invites, collisions: maxTokenAttempts}
	f.rebuild()
	_, err := f.invites.CreateInvite(context.Background(), owner, CreateInviteInput{HouseholdID: hid.String(), Email: "p@example.com"})
	assertCode(t, err, domain.CodeInternal)
}

func TestAcceptInvite(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	partner := f.user("Partner")
	hid := f.createHousehold(t, owner, "Casa")
	token := f.invite(t, owner, hid, partner.Email)

	res, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: " " + token + " "})
	if err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	if res.HouseholdID != hid {
		t.Errorf("HouseholdID = %v, want %v", res.HouseholdID, hid)
	}
	if got := f.role(t, hid, partner.UserID); got != domain.RoleMember {
		t.Errorf("role = %s, want member", got)
	}
	if p, _ := f.store.Profile(partner.UserID); p.OnboardingStatus != domain.OnboardingInHousehold {
		t.Errorf("OnboardingStatus = %s, want in_household", p.OnboardingStatus)
	}
}

func TestAcceptInvite_Errors(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	partner := f.user("Partner")
	hid := f.createHousehold(t, owner, "Casa")
	token := f.invite(t, owner, hid, partner.Email)

	_, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: "  "})
	assertCode(t, err, domain.CodeMissingField)

	_, err = f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: "unknown"})
	assertCode(t, err, domain.CodeInviteNotFound)

	// Full-token equality only: a prefix of a real token does not match.
	_, err = f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token[:len(token)-1]})
	assertCode(t, err, domain.CodeInviteNotFound)

	_, err = f.invites.AcceptInvite(context.Background(), nil, AcceptInviteInput{Token: token})
	assertCode(t, err, domain.CodeUnauthorized)
}

func TestAcceptInvite_IdempotentRedemption(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	partner := f.user("Partner")
	hid := f.createHousehold(t, owner, "Casa")
	token := f.invite(t, owner, hid, partner.Email)

	if _, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token}); err != nil {
		t.Fatalf("first AcceptInvite: %v", err)
	}
	_, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token})
	assertCode(t, err, domain.CodeInviteAlreadyUsed)

	members, _ := f.store.Memberships().ListByHousehold(context.Background(), hid)
	if len(members) != 2 {
		t.Errorf("len(members) = %d, want 2", len(members))
	}
}

// flakyInvites fails MarkAccepted a fixed number of times, simulating a
// request that dies after the membership upsert.
type flakyInvites struct {
	InviteStore
	failures int
}

func (f *flakyInvites) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.InviteStore.MarkAccepted(ctx, id, at)
}

func TestAcceptInvite_RetryAfterPartialFailure(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	partner := f.user("Partner")
	hid := f.createHousehold(t, owner, "Casa")
	token := f.invite(t, owner, hid, partner.Email)

	f.stores.Invites = &flakyInvites{InviteStore: f.stores.Invites, failures: 2}
	f.rebuild()

	for i := 0; i < 2; i++ {
		_, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token})
		assertCode(t, err, domain.CodeDatabase)
		var de *domain.Error
		errors.As(err, &de)
		if de.Message != "A database error occurred. Please try again." {
			t.Errorf("Message = %q leaks store details", de.Message)
		}
	}

	inv, _ := f.store.Invites().GetByTokenHash(context.Background(), auth.HashToken(token))
	if inv.IsAccepted() {
		t.Fatal("invite should stay pending after a failed MarkAccepted")
	}

	if _, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token}); err != nil {
		t.Fatalf("retry AcceptInvite: %v", err)
	}
	_, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token})
	assertCode(t, err, domain.CodeInviteAlreadyUsed)

	members, _ := f.store.Memberships().ListByHousehold(context.Background(), hid)
	count := 0
	for _, m := range members {
		if m.UserID == partner.UserID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("partner has %d memberships, want exactly 1", count)
	}
}

// racingInvites reports that another request accepted the invite first.
type racingInvites struct {
	InviteStore
}

func (racingInvites) MarkAccepted(context.Context, uuid.UUID, time.Time) error {
	return domain.ErrInviteAlreadyAccepted
}

func TestAcceptInvite_LostRace(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	partner := f.user("Partner")
	hid := f.createHousehold(t, owner, "Casa")
	token := f.invite(t, owner, hid, partner.Email)

	f.stores.Invites = racingInvites{InviteStore: f.stores.Invites}
	f.rebuild()

	_, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token})
	assertCode(t, err, domain.CodeInviteAlreadyUsed)
}

func TestAcceptInvite_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		code    domain.ErrorCode
	}{
		{"one second before expiry", InviteTTL - time.Second, ""},
		{"at expiry", InviteTTL, ""},
		{"one second after expiry", InviteTTL + time.Second, domain.CodeInviteExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			owner := f.user("Owner")
			partner := f.user("Partner")
			hid := f.createHousehold(t, owner, "Casa")
			token := f.invite(t, owner, hid, partner.Email)

			f.now = f.now.Add(tt.advance)

			_, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token})
			if tt.code == "" {
				if err != nil {
					t.Fatalf("AcceptInvite: %v", err)
				}
				return
			}
			assertCode(t, err, tt.code)
		})
	}
}

func TestAcceptInvite_AcceptedWinsOverExpired(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	partner := f.user("Partner")
	hid := f.createHousehold(t, owner, "Casa")
	token := f.invite(t, owner, hid, partner.Email)

	if _, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token}); err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	f.now = f.now.Add(2 * InviteTTL)

	_, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: token})
	assertCode(t, err, domain.CodeInviteAlreadyUsed)
}

func TestInvite_TokenUnlinkability(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	hid := f.createHousehold(t, owner, "Casa")
	token := f.invite(t, owner, hid, "p@example.com")

	typ := reflect.TypeOf(domain.Invite{})
	for i := 0; i < typ.NumField(); i++ {
		name := typ.Field(i).Name
		if name == "Token" || name == "RawToken" {
			t.Errorf("domain.Invite has raw token field %q", name)
		}
	}

	inv, err := f.store.Invites().GetByTokenHash(context.Background(), auth.HashToken(token))
	if err != nil {
		t.Fatalf("GetByTokenHash: %v", err)
	}
	v := reflect.ValueOf(*inv)
	for i := 0; i < v.NumField(); i++ {
		if s, ok := v.Field(i).Interface().(string); ok && strings.Contains(s, token) {
			t.Errorf("stored field %s contains the raw token", typ.Field(i).Name)
		}
	}
	if inv.TokenHash != auth.HashToken(token) {
		t.Error("stored hash should be stable for the same token")
	}
}

func TestListPendingInvites(t *testing.T) {
	f := newFixture(t)
	owner := f.user("Owner")
	partner := f.user("Partner")
	hid := f.createHousehold(t, owner, "Casa")

	accepted := f.invite(t, owner, hid, partner.Email)
	if _, err := f.invites.AcceptInvite(context.Background(), partner, AcceptInviteInput{Token: accepted}); err != nil {
		t.Fatalf("AcceptInvite: %v", err)
	}
	f.invite(t, owner, hid, "other@example.com")

	pending, err := f.invites.ListPendingInvites(context.Background(), owner, hid.String())
	if err != nil {
		t.Fatalf("ListPendingInvites: %v", err)
	}
	if len(pending) != 1 || pending[0].Email != "other@example.com" {
		t.Errorf("pending = %+v, want only other@example.com", pending)
	}

	_, err = f.invites.ListPendingInvites(context.Background(), partner, hid.String())
	assertCode(t, err, domain.CodeNotAdmin)

	f.now = f.now.Add(InviteTTL + time.Second)
	pending, _ = f.invites.ListPendingInvites(context.Background(), owner, hid.String())
	if len(pending) != 0 {
		t.Errorf("expired invites should not be listed, got %d", len(pending))
	}
}
