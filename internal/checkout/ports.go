package checkout

import (
	"context"
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

// Backend is the server side the orchestrator drives.
type Backend interface {
	ValidateCoupon(ctx context.Context, code, planID string) (*usecase.PricingBreakdown, error)
	CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*usecase.CreateOrderOutput, error)
	VerifyPayment(ctx context.Context, input usecase.VerifyPaymentInput) (*usecase.VerifyPaymentOutput, error)
	ActivateFree(ctx context.Context, input usecase.ActivateFreeInput) (*usecase.VerifyPaymentOutput, error)
}

// Widget is the payment capture UI. Load fails when it cannot be served.
type Widget interface {
	Load(ctx context.Context) error
	Options(orderID string, amount int64, currency, description string) razorpay.CheckoutOptions
}

// Locker guards a key across instances. ok is false when another holder has it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Notifier hears about checkout outcomes, errors included.
type Notifier interface {
	Notify(accountID, state string, err error)
}

// ProfileRefresher reloads the entitlement after activation.
type ProfileRefresher interface {
	Refresh(ctx context.Context, accountID string) (*entity.Subscription, error)
}
