package entity

import "context"

type Plan struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PriceCents     int64  `json:"price_cents"`
	Currency       string `json:"currency"`
	IntervalMonths int    `json:"interval_months"`
}

func (p *Plan) IsFree() bool {
	return p.PriceCents == 0
}

type PlanRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
}
