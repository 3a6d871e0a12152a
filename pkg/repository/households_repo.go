package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
)

// HouseholdsRepository handles household persistence.
type HouseholdsRepository struct {
	db          *sql.DB
	memberships *MembershipsRepository
	profiles    *ProfilesRepository
}

// NewHouseholdsRepository creates a new households repository.
func NewHouseholdsRepository(db *sql.DB) *HouseholdsRepository {
	return &HouseholdsRepository{
		db:          db,
		memberships: NewMembershipsRepository(db),
		profiles:    NewProfilesRepository(db),
	}
}

// CreateWithOwner inserts the household, its owner membership, and marks the
// owner's profile as in a household, all in one transaction.
func (r *HouseholdsRepository) CreateWithOwner(ctx context.Context, h *domain.Household) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		// Serializes concurrent creates by the same user until commit.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, h.OwnerUserID); err != nil {
			return fmt.Errorf("lock owner: %w", err)
		}

		exists, err := existsForUserTx(ctx, tx, h.OwnerUserID)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if exists {
			return domain.ErrAlreadyMember
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO households (id, name, owner_user_id, created_at)
			VALUES ($1, $2, $3, $4)
		`, h.ID, h.Name, h.OwnerUserID, h.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert household: %w", err)
		}

		owner := &domain.Membership{
			HouseholdID: h.ID,
			UserID:      h.OwnerUserID,
			Role:        domain.RoleOwner,
			CreatedAt:   h.CreatedAt,
			UpdatedAt:   h.CreatedAt,
		}
		if err := r.memberships.CreateTx(ctx, tx, owner); err != nil {
			return fmt.Errorf("insert owner membership: %w", err)
		}

		if err := r.profiles.SetOnboardingStatusTx(ctx, tx, h.OwnerUserID, domain.OnboardingInHousehold); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a household by ID.
func (r *HouseholdsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Household, error) {
	var h domain.Household
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, owner_user_id, created_at
		FROM households
		WHERE id = $1
	`, id).Scan(&h.ID, &h.Name, &h.OwnerUserID, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrHouseholdMissing
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}
