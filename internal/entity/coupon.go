package entity

import (
	"context"
	"strings"
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	Code         string       `json:"code"`
	DiscountType DiscountType `json:"discount_type"`
	// Percentage points, or major currency units for fixed coupons.
	DiscountValue  float64    `json:"discount_value"`
	PlanIDs        []string   `json:"plan_ids,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Active         bool       `json:"active"`
	MaxRedemptions int        `json:"max_redemptions"`
	Redemptions    int        `json:"redemptions"`
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

func (c *Coupon) Exhausted() bool {
	return c.MaxRedemptions > 0 && c.Redemptions >= c.MaxRedemptions
}

// AppliesTo reports whether the coupon can be used with planID. An empty
// plan list means every plan.
func (c *Coupon) AppliesTo(planID string) bool {
	if len(c.PlanIDs) == 0 {
		return true
	}
	for _, id := range c.PlanIDs {
		if id == planID {
			return true
		}
	}
	return false
}

type CouponRepositoryInterface interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	IncrementRedemptions(ctx context.Context, code string) error
}
