package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.AccessProfile) error {
	const query = `
        INSERT INTO access_profiles (name, description)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, profile.Name, profile.Description).
		Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	return translate(err)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.AccessProfile) error {
	const query = `
        UPDATE access_profiles SET name=$1, description=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query, profile.Name, profile.Description, profile.ID).
		Scan(&profile.UpdatedAt)
	return translate(err)
}

// Delete removes the profile; grants, pages and memberships cascade.
func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM access_profiles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id int64) (*domain.AccessProfile, error) {
	const query = `
        SELECT id, name, description, created_at, updated_at
        FROM access_profiles WHERE id=$1`
	var profile domain.AccessProfile
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Description,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]domain.AccessProfile, error) {
	const query = `
        SELECT id, name, description, created_at, updated_at
        FROM access_profiles ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (r *profileRepository) ListGrants(ctx context.Context, profileID int64) ([]domain.Grant, error) {
	const query = `
        SELECT profile_id, resource, action FROM profile_grants
        WHERE profile_id=$1 ORDER BY resource, action`
	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrants(rows)
}

func (r *profileRepository) AddGrant(ctx context.Context, grant domain.Grant) error {
	const query = `
        INSERT INTO profile_grants (profile_id, resource, action)
        VALUES ($1, $2, $3)
        ON CONFLICT (profile_id, resource, action) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, grant.ProfileID, grant.Resource, grant.Action)
	return translate(err)
}

func (r *profileRepository) RemoveGrant(ctx context.Context, grant domain.Grant) error {
	const query = `DELETE FROM profile_grants WHERE profile_id=$1 AND resource=$2 AND action=$3`
	_, err := r.pool.Exec(ctx, query, grant.ProfileID, grant.Resource, grant.Action)
	return err
}

func (r *profileRepository) ReplaceGrants(ctx context.Context, profileID int64, grants []domain.Grant) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM profile_grants WHERE profile_id=$1`, profileID); err != nil {
			return err
		}
		for _, grant := range grants {
			if _, err := tx.Exec(ctx, `
                INSERT INTO profile_grants (profile_id, resource, action)
                VALUES ($1, $2, $3)
                ON CONFLICT (profile_id, resource, action) DO NOTHING`,
				profileID, grant.Resource, grant.Action); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *profileRepository) ListPages(ctx context.Context, profileID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT page_id FROM profile_pages WHERE profile_id=$1 ORDER BY page_id`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *profileRepository) ReplacePages(ctx context.Context, profileID int64, pageIDs []int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM profile_pages WHERE profile_id=$1`, profileID); err != nil {
			return err
		}
		for _, pageID := range pageIDs {
			if _, err := tx.Exec(ctx, `
                INSERT INTO profile_pages (profile_id, page_id) VALUES ($1, $2)
                ON CONFLICT (profile_id, page_id) DO NOTHING`, profileID, pageID); err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *profileRepository) LinkUser(ctx context.Context, userID, profileID int64) error {
	const query = `
        INSERT INTO user_access_profiles (user_id, profile_id) VALUES ($1, $2)
        ON CONFLICT (user_id, profile_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, userID, profileID)
	return translate(err)
}

func (r *profileRepository) UnlinkUser(ctx context.Context, userID, profileID int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM user_access_profiles WHERE user_id=$1 AND profile_id=$2`, userID, profileID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *profileRepository) ListForUser(ctx context.Context, userID int64) ([]domain.AccessProfile, error) {
	const query = `
        SELECT p.id, p.name, p.description, p.created_at, p.updated_at
        FROM access_profiles p
        JOIN user_access_profiles up ON up.profile_id = p.id
        WHERE up.user_id=$1 ORDER BY p.name ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (r *profileRepository) ListMemberIDs(ctx context.Context, profileID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM user_access_profiles WHERE profile_id=$1 ORDER BY user_id`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *profileRepository) ListGrantsForUser(ctx context.Context, userID int64) ([]domain.Grant, error) {
	const query = `
        SELECT g.profile_id, g.resource, g.action
        FROM profile_grants g
        JOIN user_access_profiles up ON up.profile_id = g.profile_id
        WHERE up.user_id=$1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGrants(rows)
}

func scanProfiles(rows pgx.Rows) ([]domain.AccessProfile, error) {
	var result []domain.AccessProfile
	for rows.Next() {
		var profile domain.AccessProfile
		if err := rows.Scan(
			&profile.ID,
			&profile.Name,
			&profile.Description,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	return result, rows.Err()
}

func scanGrants(rows pgx.Rows) ([]domain.Grant, error) {
	var result []domain.Grant
	for rows.Next() {
		var grant domain.Grant
		if err := rows.Scan(&grant.ProfileID, &grant.Resource, &grant.Action); err != nil {
			return nil, err
		}
		result = append(result, grant)
	}
	return result, rows.Err()
}
