package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type formRepository struct {
	pool *pgxpool.Pool
}

// NewFormRepository returns a Postgres-backed implementation.
func NewFormRepository(pool *pgxpool.Pool) FormRepository {
	return &formRepository{pool: pool}
}

func (r *formRepository) Create(ctx context.Context, form *domain.Form) error {
	const query = `
        INSERT INTO forms (name, approval_user_id, approval_group_id)
        VALUES ($1, $2, $3)
        RETURNING id`
	return r.pool.QueryRow(ctx, query, form.Name, form.ApprovalUserID, form.ApprovalGroupID).Scan(&form.ID)
}

func (r *formRepository) GetByID(ctx context.Context, id int64) (*domain.Form, error) {
	const query = `SELECT id, name, approval_user_id, approval_group_id FROM forms WHERE id=$1`
	var form domain.Form
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&form.ID,
		&form.Name,
		&form.ApprovalUserID,
		&form.ApprovalGroupID,
	); err != nil {
		return nil, translate(err)
	}
	return &form, nil
}
