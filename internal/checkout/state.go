package checkout

import (
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

type State string

const (
	StateIdle              State = "idle"
	StateValidatingCoupon  State = "validating_coupon"
	StateCreatingOrder     State = "creating_order"
	StateAwaitingCapture   State = "awaiting_capture"
	StateVerifying         State = "verifying"
	StateActivated         State = "activated"
	StateCouponError       State = "coupon_error"
	StateOrderError        State = "order_error"
	StateVerificationError State = "verification_error"
)

// InFlight reports whether a step is running or waiting on the payer.
// New commands are rejected in these states.
func (s State) InFlight() bool {
	switch s {
	case StateValidatingCoupon, StateCreatingOrder, StateAwaitingCapture, StateVerifying:
		return true
	}
	return false
}

func (s State) IsError() bool {
	return s == StateCouponError || s == StateOrderError || s == StateVerificationError
}

// CaptureResult is what the payment widget hands back on success.
type CaptureResult struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	AutoRenew bool   `json:"auto_renew"`
}

type OrderRef struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Snapshot is the observable state of one checkout.
type Snapshot struct {
	AccountID     string                    `json:"account_id"`
	State         State                     `json:"state"`
	PlanID        string                    `json:"plan_id,omitempty"`
	AppliedCoupon *usecase.PricingBreakdown `json:"applied_coupon,omitempty"`
	Order         *OrderRef                 `json:"order,omitempty"`
	Widget        *razorpay.CheckoutOptions `json:"widget,omitempty"`
	Subscription  *entity.Subscription      `json:"subscription,omitempty"`
	Error         string                    `json:"error,omitempty"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}
