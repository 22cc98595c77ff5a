package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionActive  = "ACTIVE"
	SubscriptionPending = "PENDING"
)

type Subscription struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account_id"`
	PlanID           string    `json:"plan_id"`
	OrderID          string    `json:"order_id"`
	Amount           int64     `json:"amount"` // minor units
	Status           string    `json:"status"`
	AutoRenew        bool      `json:"auto_renew"`
	CurrentPeriodEnd time.Time `json:"current_period_end"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewSubscription builds an active subscription for a verified order.
func NewSubscription(order *Order, plan *Plan, autoRenew bool) *Subscription {
	now := time.Now()
	months := plan.IntervalMonths
	if months <= 0 {
		months = 1
	}
	return &Subscription{
		ID:               uuid.New().String(),
		AccountID:        order.AccountID,
		PlanID:           plan.ID,
		OrderID:          order.ID,
		Amount:           order.Amount,
		Status:           SubscriptionActive,
		AutoRenew:        autoRenew,
		CurrentPeriodEnd: now.AddDate(0, months, 0),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

type SubscriptionRepository interface {
	// Upsert replaces the current subscription of the account.
	Upsert(ctx context.Context, sub *Subscription) error
	FindByAccountID(ctx context.Context, accountID string) (*Subscription, error)
	Delete(ctx context.Context, id string) error
}
