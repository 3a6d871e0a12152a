package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
)

// InvitesRepository handles invite persistence. It only ever sees token hashes.
type InvitesRepository struct {
	db *sql.DB
}

// NewInvitesRepository creates a new invites repository.
func NewInvitesRepository(db *sql.DB) *InvitesRepository {
	return &InvitesRepository{db: db}
}

const inviteCols = `id, household_id, email, token_hash, expires_at, invited_by_user_id, accepted_at, created_at`

func scanInvite(scanner interface{ Scan(...any) error }) (*domain.Invite, error) {
	var inv domain.Invite
	err := scanner.Scan(
		&inv.ID, &inv.HouseholdID, &inv.Email, &inv.TokenHash,
		&inv.ExpiresAt, &inv.InvitedByUserID, &inv.AcceptedAt, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts a new invite.
func (r *InvitesRepository) Create(ctx context.Context, inv *domain.Invite) error {
	query := `
		INSERT INTO invites (id, household_id, email, token_hash, expires_at, invited_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.HouseholdID, inv.Email, inv.TokenHash,
		inv.ExpiresAt, inv.InvitedByUserID, inv.CreatedAt,
	)
	if isUniqueViolation(err, "invites_token_hash_key") {
		return domain.ErrDuplicateTokenHash
	}
	return err
}

// GetByTokenHash retrieves an invite by the hash of its token.
func (r *InvitesRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	query := `SELECT ` + inviteCols + ` FROM invites WHERE token_hash = $1`
	inv, err := scanInvite(r.db.QueryRowContext(ctx, query, tokenHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInviteMissing
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// MarkAccepted sets accepted_at if the invite has not been accepted yet.
func (r *InvitesRepository) MarkAccepted(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE invites
		SET accepted_at = $2
		WHERE id = $1 AND accepted_at IS NULL
	`, id, at)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInviteAlreadyAccepted
	}
	return nil
}

// ListPending retrieves unaccepted, unexpired invites for a household, newest first.
func (r *InvitesRepository) ListPending(ctx context.Context, householdID uuid.UUID, now time.Time) ([]*domain.Invite, error) {
	query := `SELECT ` + inviteCols + ` FROM invites
		WHERE household_id = $1 AND accepted_at IS NULL AND expires_at >= $2
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, householdID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*domain.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}
