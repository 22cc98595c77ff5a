package entity

import (
	"context"
	"time"
)

// Account is the authenticated dashboard customer. The id is the JWT subject.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	PlanID    string    `json:"plan_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AccountRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Account, error)
	UpdatePlan(ctx context.Context, id, planID string) error
}
