package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

// PricingEngine validates coupons against plans and computes breakdowns.
// It never writes anything.
type PricingEngine struct {
	Plans   entity.PlanRepositoryInterface
	Coupons entity.CouponRepositoryInterface
	Now     func() time.Time
}

func NewPricingEngine(plans entity.PlanRepositoryInterface, coupons entity.CouponRepositoryInterface) *PricingEngine {
	return &PricingEngine{Plans: plans, Coupons: coupons, Now: time.Now}
}

// Validate checks code against planID and returns the discounted price.
func (p *PricingEngine) Validate(ctx context.Context, code, planID string) (*PricingBreakdown, error) {
	if entity.NormalizeCouponCode(code) == "" {
		return nil, ValidationErrors{{"coupon_code", "is required"}}
	}
	breakdown, _, err := p.Quote(ctx, planID, code)
	return breakdown, err
}

// Quote prices planID with an optional coupon. An empty code yields the
// list price.
func (p *PricingEngine) Quote(ctx context.Context, planID, code string) (*PricingBreakdown, *entity.Plan, error) {
	if strings.TrimSpace(planID) == "" {
		return nil, nil, ValidationErrors{{"plan_id", "is required"}}
	}

	plan, err := p.Plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, entity.ErrPlanNotFound) || errors.Is(err, entity.ErrNotFound) {
			return nil, nil, ValidationErrors{{"plan_id", "plano não encontrado"}}
		}
		return nil, nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load plan", Err: err}
	}

	code = entity.NormalizeCouponCode(code)
	if code == "" {
		b := ComputeBreakdown(plan, nil)
		return &b, plan, nil
	}

	coupon, err := p.Coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, entity.ErrCouponNotFound) || errors.Is(err, entity.ErrNotFound) {
			return nil, nil, ValidationErrors{{"coupon_code", "cupom inválido"}}
		}
		return nil, nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load coupon", Err: err}
	}

	if err := p.checkCoupon(coupon, plan.ID); err != nil {
		return nil, nil, err
	}

	b := ComputeBreakdown(plan, coupon)
	return &b, plan, nil
}

func (p *PricingEngine) checkCoupon(c *entity.Coupon, planID string) error {
	switch {
	case !c.Active:
		return ValidationErrors{{"coupon_code", "cupom inativo"}}
	case c.Expired(p.Now()):
		return ValidationErrors{{"coupon_code", "cupom expirado"}}
	case c.Exhausted():
		return ValidationErrors{{"coupon_code", "cupom esgotado"}}
	case !c.AppliesTo(planID):
		return ValidationErrors{{"coupon_code", "cupom não se aplica a este plano"}}
	}
	return nil
}

// ComputeBreakdown derives the breakdown from the plan price and coupon.
// The discount is clamped to [0, original].
func ComputeBreakdown(plan *entity.Plan, coupon *entity.Coupon) PricingBreakdown {
	original := plan.PriceCents
	b := PricingBreakdown{
		OriginalAmount: Money(original),
		FinalAmount:    Money(original),
		Currency:       plan.Currency,
	}
	if coupon == nil {
		return b
	}

	var discount int64
	switch coupon.DiscountType {
	case entity.DiscountPercentage:
		discount = int64(math.Round(float64(original) * coupon.DiscountValue / 100))
	case entity.DiscountFixed:
		discount = int64(MoneyFromMajor(coupon.DiscountValue))
	}
	discount = max(0, min(discount, original))

	b.CouponCode = coupon.Code
	b.DiscountAmount = Money(discount)
	b.FinalAmount = Money(original - discount)
	return b
}
