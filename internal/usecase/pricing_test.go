package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

func TestComputeBreakdown(t *testing.T) {
	plan := &entity.Plan{ID: "pro", PriceCents: 4999, Currency: "USD"}

	tests := []struct {
		name     string
		coupon   *entity.Coupon
		discount Money
		final    Money
	}{
		{"no coupon", nil, 0, 4999},
		{"fixed", &entity.Coupon{Code: "TENOFF", DiscountType: entity.DiscountFixed, DiscountValue: 10}, 1000, 3999},
		{"fixed above price clamps to zero", &entity.Coupon{Code: "BIG", DiscountType: entity.DiscountFixed, DiscountValue: 80}, 4999, 0},
		{"percentage rounds half up", &entity.Coupon{Code: "P15", DiscountType: entity.DiscountPercentage, DiscountValue: 15}, 750, 4249},
		{"percentage over 100 clamps", &entity.Coupon{Code: "P150", DiscountType: entity.DiscountPercentage, DiscountValue: 150}, 4999, 0},
		{"negative value clamps to zero", &entity.Coupon{Code: "NEG", DiscountType: entity.DiscountFixed, DiscountValue: -5}, 0, 4999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ComputeBreakdown(plan, tt.coupon)
			assert.Equal(t, Money(4999), b.OriginalAmount)
			assert.Equal(t, tt.discount, b.DiscountAmount)
			assert.Equal(t, tt.final, b.FinalAmount)
			assert.Equal(t, b.OriginalAmount-b.DiscountAmount, b.FinalAmount)
		})
	}
}

func TestPricingBreakdownJSON(t *testing.T) {
	b := ComputeBreakdown(
		&entity.Plan{ID: "pro", PriceCents: 4999, Currency: "USD"},
		&entity.Coupon{Code: "TENOFF", DiscountType: entity.DiscountFixed, DiscountValue: 10},
	)

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"original_amount": 49.99,
		"discount_amount": 10.00,
		"final_amount": 39.99,
		"currency": "USD",
		"coupon_code": "TENOFF"
	}`, string(raw))
}

func TestValidateCoupon(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f.pricing.Now = func() time.Time { return now }

	yesterday := now.Add(-24 * time.Hour)
	f.store.Coupons().Save(&entity.Coupon{Code: "OLD", DiscountType: entity.DiscountFixed, DiscountValue: 5, Active: true, ExpiresAt: &yesterday})
	f.store.Coupons().Save(&entity.Coupon{Code: "OFF", DiscountType: entity.DiscountFixed, DiscountValue: 5})
	f.store.Coupons().Save(&entity.Coupon{Code: "USED", DiscountType: entity.DiscountFixed, DiscountValue: 5, Active: true, MaxRedemptions: 1, Redemptions: 1})
	f.store.Coupons().Save(&entity.Coupon{Code: "OTHER", DiscountType: entity.DiscountFixed, DiscountValue: 5, Active: true, PlanIDs: []string{"enterprise"}})

	t.Run("valid code is case-insensitive", func(t *testing.T) {
		b, err := f.pricing.Validate(ctx, " tenoff ", "pro")
		require.NoError(t, err)
		assert.Equal(t, Money(4999), b.OriginalAmount)
		assert.Equal(t, Money(1000), b.DiscountAmount)
		assert.Equal(t, Money(3999), b.FinalAmount)
		assert.Equal(t, "TENOFF", b.CouponCode)
	})

	rejected := map[string]string{
		"":      "coupon_code",
		"NOPE":  "coupon_code",
		"OLD":   "coupon_code",
		"OFF":   "coupon_code",
		"USED":  "coupon_code",
		"OTHER": "coupon_code",
	}
	for code, field := range rejected {
		t.Run("rejects "+code, func(t *testing.T) {
			_, err := f.pricing.Validate(ctx, code, "pro")
			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, field, verrs[0].Field)
		})
	}

	t.Run("unknown plan", func(t *testing.T) {
		_, err := f.pricing.Validate(ctx, "TENOFF", "gold")
		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "plan_id", verrs[0].Field)
	})
}

func TestQuoteWithoutCoupon(t *testing.T) {
	f := newBillingFixture()
	b, plan, err := f.pricing.Quote(context.Background(), "pro", "")
	require.NoError(t, err)
	assert.Equal(t, "Pro", plan.Name)
	assert.Equal(t, Money(4999), b.FinalAmount)
	assert.Empty(t, b.CouponCode)
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "49.99", Money(4999).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
	assert.Equal(t, Money(1999), MoneyFromMajor(19.99))
}
