package usecase

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
)

// CreateOrderUseCase opens one checkout attempt. Every call mints a new
// correlation token, so two calls never share one.
type CreateOrderUseCase struct {
	Pricing  *PricingEngine
	Orders   entity.OrderRepositoryInterface
	Accounts entity.AccountRepositoryInterface
	Gateway  PaymentGateway
}

func NewCreateOrderUseCase(pricing *PricingEngine, orders entity.OrderRepositoryInterface, accounts entity.AccountRepositoryInterface, gateway PaymentGateway) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		Pricing:  pricing,
		Orders:   orders,
		Accounts: accounts,
		Gateway:  gateway,
	}
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, input CreateOrderInput) (*CreateOrderOutput, error) {
	if strings.TrimSpace(input.AccountID) == "" {
		return nil, ValidationErrors{{"account_id", "is required"}}
	}

	// the gateway order is opened only for an account we can bill
	if _, err := uc.Accounts.FindByID(ctx, input.AccountID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, &NotFoundError{Entity: "account", ID: input.AccountID}
		}
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load account", Err: err}
	}

	breakdown, plan, err := uc.Pricing.Quote(ctx, input.PlanID, input.CouponCode)
	if err != nil {
		return nil, err
	}

	order := entity.NewOrder(
		input.AccountID,
		plan.ID,
		breakdown.CouponCode,
		plan.Currency,
		int64(breakdown.OriginalAmount),
		int64(breakdown.DiscountAmount),
	)

	// Free orders never touch the gateway
	if !order.IsFree() {
		gwOrder, err := uc.Gateway.CreateOrder(ctx, razorpay.CreateOrderInput{
			Amount:   order.Amount,
			Currency: order.Currency,
			Receipt:  order.ID,
			Notes: map[string]string{
				"correlation_token": order.CorrelationToken,
				"account_id":        order.AccountID,
				"plan_id":           order.PlanID,
			},
		})
		if err != nil {
			return nil, &NetworkError{Op: "create gateway order", Err: err}
		}
		order.GatewayOrderID = gwOrder.ID
	}

	if err := uc.Orders.Create(ctx, order); err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to save order", Err: err}
	}

	log.Printf("🧾 [ORDERS] Pedido %s criado (plano=%s valor=%s %s)", order.ID, plan.ID, Money(order.Amount), order.Currency)

	out := &CreateOrderOutput{
		OrderID:          order.ExternalID(),
		Amount:           order.Amount,
		Currency:         order.Currency,
		CorrelationToken: order.CorrelationToken,
		Plan:             plan,
	}
	if breakdown.CouponCode != "" {
		out.CouponApplied = breakdown
	}
	return out, nil
}
