package checkout

import (
	"context"
	"errors"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

// LocalBackend serves the orchestrator from the in-process use cases.
type LocalBackend struct {
	Pricing *usecase.PricingEngine
	Orders  *usecase.CreateOrderUseCase
	Verify  *usecase.VerifyPaymentUseCase
	Subs    entity.SubscriptionRepository
}

func NewLocalBackend(pricing *usecase.PricingEngine, orders *usecase.CreateOrderUseCase, verify *usecase.VerifyPaymentUseCase, subs entity.SubscriptionRepository) *LocalBackend {
	return &LocalBackend{Pricing: pricing, Orders: orders, Verify: verify, Subs: subs}
}

func (b *LocalBackend) ValidateCoupon(ctx context.Context, code, planID string) (*usecase.PricingBreakdown, error) {
	return b.Pricing.Validate(ctx, code, planID)
}

func (b *LocalBackend) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderOutput, error) {
	return b.Orders.Execute(ctx, input)
}

func (b *LocalBackend) VerifyPayment(ctx context.Context, input usecase.VerifyPaymentInput) (*usecase.VerifyPaymentOutput, error) {
	return b.Verify.Execute(ctx, input)
}

func (b *LocalBackend) ActivateFree(ctx context.Context, input usecase.ActivateFreeInput) (*usecase.VerifyPaymentOutput, error) {
	return b.Verify.ActivateFree(ctx, input)
}

// Refresh reads back the account's current subscription.
func (b *LocalBackend) Refresh(ctx context.Context, accountID string) (*entity.Subscription, error) {
	sub, err := b.Subs.FindByAccountID(ctx, accountID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}
