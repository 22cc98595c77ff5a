package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type SubscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

// Upsert keeps one subscription per account.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, account_id, plan_id, order_id, amount, status,
			auto_renew, current_period_end, created_at, updated_at
		) VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_id) DO UPDATE SET
			id = EXCLUDED.id,
			plan_id = EXCLUDED.plan_id,
			order_id = EXCLUDED.order_id,
			amount = EXCLUDED.amount,
			status = EXCLUDED.status,
			auto_renew = EXCLUDED.auto_renew,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query,
		sub.ID,
		sub.AccountID,
		sub.PlanID,
		sub.OrderID,
		sub.Amount,
		sub.Status,
		sub.AutoRenew,
		sub.CurrentPeriodEnd,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("falha ao salvar assinatura: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) FindByAccountID(ctx context.Context, accountID string) (*entity.Subscription, error) {
	query := `
		SELECT id, account_id, plan_id, COALESCE(order_id::text, ''), amount, status,
			auto_renew, current_period_end, created_at, updated_at
		FROM subscriptions WHERE account_id = $1
	`
	var s entity.Subscription
	err := r.DB.QueryRowContext(ctx, query, accountID).Scan(
		&s.ID,
		&s.AccountID,
		&s.PlanID,
		&s.OrderID,
		&s.Amount,
		&s.Status,
		&s.AutoRenew,
		&s.CurrentPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, entity.ErrNotFound)
	}
	return &s, nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
