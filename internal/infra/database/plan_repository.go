package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type PlanRepository struct {
	DB *sql.DB
}

func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{DB: db}
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (*entity.Plan, error) {
	query := `SELECT id, name, description, price_cents, currency, interval_months FROM plans WHERE id = $1`

	var plan entity.Plan
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.PriceCents,
		&plan.Currency,
		&plan.IntervalMonths,
	)
	if err != nil {
		return nil, notFound(err, entity.ErrPlanNotFound)
	}
	return &plan, nil
}

func (r *PlanRepository) List(ctx context.Context) ([]*entity.Plan, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, description, price_cents, currency, interval_months FROM plans ORDER BY price_cents`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*entity.Plan
	for rows.Next() {
		var p entity.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.IntervalMonths); err != nil {
			return nil, err
		}
		plans = append(plans, &p)
	}
	return plans, rows.Err()
}
