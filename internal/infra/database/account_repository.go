package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	query := `SELECT id, name, email, COALESCE(phone, ''), COALESCE(plan_id, ''), created_at FROM accounts WHERE id = $1`

	var a entity.Account
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PlanID, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err, entity.ErrNotFound)
	}
	return &a, nil
}

func (r *AccountRepository) UpdatePlan(ctx context.Context, id, planID string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE accounts SET plan_id = NULLIF($2, '') WHERE id = $1`, id, planID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
