package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/trackly/trackly-home/pkg/domain"
)

// ProfilesRepository updates profile rows owned by the login flow.
type ProfilesRepository struct {
	db *sql.DB
}

// NewProfilesRepository creates a new profiles repository.
func NewProfilesRepository(db *sql.DB) *ProfilesRepository {
	return &ProfilesRepository{db: db}
}

// SetOnboardingStatus updates the user's onboarding status. A missing profile
// row is not an error: profiles are created at login, not here.
func (r *ProfilesRepository) SetOnboardingStatus(ctx context.Context, userID uuid.UUID, status domain.OnboardingStatus) error {
	return r.SetOnboardingStatusTx(ctx, r.db, userID, status)
}

// SetOnboardingStatusTx updates the onboarding status within a transaction.
func (r *ProfilesRepository) SetOnboardingStatusTx(ctx context.Context, q Querier, userID uuid.UUID, status domain.OnboardingStatus) error {
	_, err := q.ExecContext(ctx, `
		UPDATE profiles
		SET onboarding_status = $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, status)
	return err
}

// DisplayNames returns display names keyed by user ID. Users without a
// profile are absent from the map.
func (r *ProfilesRepository) DisplayNames(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, display_name
		FROM profiles
		WHERE user_id = ANY($1::uuid[])
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
