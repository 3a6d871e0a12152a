package household

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/auth"
	"github.com/trackly/trackly-home/pkg/domain"
)

// InviteTTL is how long an invite can be redeemed after creation.
const InviteTTL = 7 * 24 * time.Hour

// maxTokenAttempts bounds regeneration on a token hash collision.
const maxTokenAttempts = 3

// CreateInviteInput is the create-invite request.
type CreateInviteInput struct {
	HouseholdID string `json:"household_id"`
	Email       string `json:"email"`
}

// CreateInviteResult carries the redemption URL and whether the email went out.
type CreateInviteResult struct {
	InviteURL string `json:"invite_url"`
	EmailSent bool   `json:"email_sent"`
}

// AcceptInviteInput is the accept-invite request.
type AcceptInviteInput struct {
	Token string `json:"token"`
}

// AcceptInviteResult names the household the caller joined.
type AcceptInviteResult struct {
	HouseholdID uuid.UUID `json:"household_id"`
}

// PendingInvite is an invite as shown to household managers. It never
// carries the token or its hash.
type PendingInvite struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	InvitedByUserID uuid.UUID `json:"invited_by_user_id"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// InviteService creates and redeems household invites.
type InviteService struct {
	invites     InviteStore
	memberships MembershipStore
	households  HouseholdStore
	profiles    ProfileStore
	mailer      Mailer
	siteURL     string
	opts        options
}

// NewInviteService creates a new invite service. mailer may be nil, in which
// case invites are created with email_sent=false.
func NewInviteService(stores Stores, mailer Mailer, siteURL string, opts ...Option) *InviteService {
	return &InviteService{
		invites:     stores.Invites,
		memberships: stores.Memberships,
		households:  stores.Households,
		profiles:    stores.Profiles,
		mailer:      mailer,
		siteURL:     strings.TrimRight(siteURL, "/"),
		opts:        buildOptions(opts),
	}
}

// CreateInvite issues a single-use invite to email for a household the caller
// manages. Retrying creates a second, independent invite.
func (s *InviteService) CreateInvite(ctx context.Context, caller *domain.Caller, in CreateInviteInput) (*CreateInviteResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	householdID, err := parseID("household_id", in.HouseholdID)
	if err != nil {
		return nil, err
	}

	email := auth.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.MissingField("email")
	}
	if !auth.ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}

	if _, err := requireManager(ctx, s.memberships, householdID, caller.UserID); err != nil {
		return nil, err
	}

	now := s.opts.now()
	invite := &domain.Invite{
		ID:              uuid.New(),
		HouseholdID:     householdID,
		Email:           email,
		ExpiresAt:       now.Add(InviteTTL),
		InvitedByUserID: caller.UserID,
		CreatedAt:       now,
	}

	token, err := s.persistInvite(ctx, invite)
	if err != nil {
		return nil, err
	}

	inviteURL := s.siteURL + "/join?token=" + url.QueryEscape(token)

	msg := InviteEmail{
		To:           email,
		InviterEmail: caller.Email,
		InviteURL:    inviteURL,
		ExpiresAt:    invite.ExpiresAt,
	}
	if h, err := s.households.GetByID(ctx, householdID); err == nil {
		msg.HouseholdName = h.Name
	}

	result := dispatch(ctx, s.mailer, msg)
	if s.opts.observe != nil {
		s.opts.observe(result)
	}
	if result.Err != nil {
		s.opts.logger.Warn("invite email not sent",
			"invite_id", invite.ID,
			"household_id", householdID,
			"error", result.Err,
		)
	}

	s.opts.logger.Info("invite created",
		"invite_id", invite.ID,
		"household_id", householdID,
		"invited_by", caller.UserID,
		"email_sent", result.Sent,
	)

	return &CreateInviteResult{InviteURL: inviteURL, EmailSent: result.Sent}, nil
}

// persistInvite generates a token, stores its hash on invite, and returns the
// raw token. The raw token is never stored.
func (s *InviteService) persistInvite(ctx context.Context, invite *domain.Invite) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := auth.GenerateToken(auth.DefaultTokenBytes)
		if err != nil {
			return "", domain.InternalError(fmt.Errorf("generate invite token: %w", err))
		}
		invite.TokenHash = auth.HashToken(token)

		err = s.invites.Create(ctx, invite)
		if errors.Is(err, domain.ErrDuplicateTokenHash) {
			continue
		}
		if err != nil {
			return "", domain.DatabaseError(err)
		}
		return token, nil
	}
	return "", domain.InternalError(errors.New("invite token collisions exhausted"))
}

// AcceptInvite redeems token for the caller. The membership upsert is
// idempotent, so a request that fails after it can be retried: the invite
// stays pending until MarkAccepted lands.
func (s *InviteService) AcceptInvite(ctx context.Context, caller *domain.Caller, in AcceptInviteInput) (*AcceptInviteResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(in.Token)
	if token == "" {
		return nil, domain.MissingField("token")
	}

	invite, err := s.invites.GetByTokenHash(ctx, auth.HashToken(token))
	if errors.Is(err, domain.ErrInviteMissing) {
		return nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, domain.DatabaseError(err)
	}

	now := s.opts.now()
	if invite.IsAccepted() {
		return nil, domain.ErrInviteAlreadyUsed
	}
	if invite.IsExpired(now) {
		return nil, domain.ErrInviteExpired
	}

	membership := &domain.Membership{
		HouseholdID: invite.HouseholdID,
		UserID:      caller.UserID,
		Role:        domain.RoleMember,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.memberships.Upsert(ctx, membership); err != nil {
		return nil, domain.DatabaseError(err)
	}

	err = s.invites.MarkAccepted(ctx, invite.ID, now)
	if errors.Is(err, domain.ErrInviteAlreadyAccepted) {
		return nil, domain.ErrInviteAlreadyUsed
	}
	if err != nil {
		return nil, domain.DatabaseError(err)
	}

	// Membership is the source of truth; the onboarding flag only drives
	// client routing, so a failure here does not undo the join.
	if err := s.profiles.SetOnboardingStatus(ctx, caller.UserID, domain.OnboardingInHousehold); err != nil {
		s.opts.logger.Warn("failed to update onboarding status",
			"user_id", caller.UserID,
			"error_type", fmt.Sprintf("%T", err),
		)
	}

	s.opts.logger.Info("invite accepted",
		"invite_id", invite.ID,
		"household_id", invite.HouseholdID,
		"user_id", caller.UserID,
	)

	return &AcceptInviteResult{HouseholdID: invite.HouseholdID}, nil
}

// ListPendingInvites returns the household's unaccepted, unexpired invites.
// Only owners and admins may list them.
func (s *InviteService) ListPendingInvites(ctx context.Context, caller *domain.Caller, householdIDValue string) ([]PendingInvite, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	householdID, err := parseID("household_id", householdIDValue)
	if err != nil {
		return nil, err
	}

	if _, err := requireManager(ctx, s.memberships, householdID, caller.UserID); err != nil {
		return nil, err
	}

	invites, err := s.invites.ListPending(ctx, householdID, s.opts.now())
	if err != nil {
		return nil, domain.DatabaseError(err)
	}

	out := make([]PendingInvite, 0, len(invites))
	for _, inv := range invites {
		out = append(out, PendingInvite{
			ID:              inv.ID,
			Email:           inv.Email,
			InvitedByUserID: inv.InvitedByUserID,
			ExpiresAt:       inv.ExpiresAt,
			CreatedAt:       inv.CreatedAt,
		})
	}
	return out, nil
}
