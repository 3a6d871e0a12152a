package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trackly/trackly-home/pkg/domain"
)

// MembershipsRepository handles household membership persistence.
type MembershipsRepository struct {
	db *sql.DB
}

// NewMembershipsRepository creates a new memberships repository.
func NewMembershipsRepository(db *sql.DB) *MembershipsRepository {
	return &MembershipsRepository{db: db}
}

const membershipCols = `household_id, user_id, role, created_at, updated_at`

func scanMembership(scanner interface{ Scan(...any) error }) (*domain.Membership, error) {
	var m domain.Membership
	if err := scanner.Scan(&m.HouseholdID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateTx inserts a membership within a transaction.
func (r *MembershipsRepository) CreateTx(ctx context.Context, q Querier, m *domain.Membership) error {
	query := `
		INSERT INTO household_members (household_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.ExecContext(ctx, query, m.HouseholdID, m.UserID, m.Role, m.CreatedAt, m.UpdatedAt)
	return err
}

// Upsert inserts the membership unless the (household, user) pair already
// exists, in which case the existing row and its role are left untouched.
func (r *MembershipsRepository) Upsert(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO household_members (household_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (household_id, user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, m.HouseholdID, m.UserID, m.Role, m.CreatedAt, m.UpdatedAt)
	return err
}

// Get retrieves a user's membership in a household.
func (r *MembershipsRepository) Get(ctx context.Context, householdID, userID uuid.UUID) (*domain.Membership, error) {
	return r.getTx(ctx, r.db, householdID, userID, false)
}

func (r *MembershipsRepository) getTx(ctx context.Context, q Querier, householdID, userID uuid.UUID, forUpdate bool) (*domain.Membership, error) {
	query := `SELECT ` + membershipCols + ` FROM household_members WHERE household_id = $1 AND user_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	m, err := scanMembership(q.QueryRowContext(ctx, query, householdID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetForUser retrieves the user's oldest membership.
func (r *MembershipsRepository) GetForUser(ctx context.Context, userID uuid.UUID) (*domain.Membership, error) {
	query := `SELECT ` + membershipCols + ` FROM household_members WHERE user_id = $1 ORDER BY created_at ASC LIMIT 1`
	m, err := scanMembership(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ExistsForUser reports whether the user belongs to any household.
func (r *MembershipsRepository) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	return existsForUserTx(ctx, r.db, userID)
}

func existsForUserTx(ctx context.Context, q Querier, userID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM household_members WHERE user_id = $1)`, userID,
	).Scan(&exists)
	return exists, err
}

// ListByHousehold retrieves all members of a household, oldest first.
func (r *MembershipsRepository) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]*domain.Membership, error) {
	query := `SELECT ` + membershipCols + ` FROM household_members WHERE household_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// CountManagers counts owner and admin rows in a household.
func (r *MembershipsRepository) CountManagers(ctx context.Context, householdID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM household_members WHERE household_id = $1 AND role IN ('owner', 'admin')`,
		householdID,
	).Scan(&n)
	return n, err
}

// ChangeRole sets a member's role. The household's owner and admin rows are
// locked first, so two concurrent demotions serialize and the second one sees
// the first one's result when counting. Owner rows are never changed.
func (r *MembershipsRepository) ChangeRole(ctx context.Context, householdID, userID uuid.UUID, role domain.Role) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT user_id FROM household_members
			WHERE household_id = $1 AND role IN ('owner', 'admin')
			FOR UPDATE
		`, householdID)
		if err != nil {
			return fmt.Errorf("lock managers: %w", err)
		}
		managers := 0
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan manager: %w", err)
			}
			managers++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock managers: %w", err)
		}

		target, err := r.getTx(ctx, tx, householdID, userID, true)
		if err != nil {
			return err
		}
		if target.Role == domain.RoleOwner {
			return domain.ErrOwnerImmutable
		}
		if target.Role.IsDemotion(role) && managers <= 1 {
			return domain.ErrLastManager
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE household_members
			SET role = $3, updated_at = NOW()
			WHERE household_id = $1 AND user_id = $2
		`, householdID, userID, role)
		if err != nil {
			return fmt.Errorf("update role: %w", err)
		}
		return nil
	})
}
