package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderCreated  OrderStatus = "created"
	OrderVerified OrderStatus = "verified"
	OrderFailed   OrderStatus = "failed"
	OrderExpired  OrderStatus = "expired"
)

// Order is a single purchase attempt. A retry is always a new order with a
// new correlation token.
type Order struct {
	ID               string      `json:"id"`
	GatewayOrderID   string      `json:"gateway_order_id,omitempty"`
	CorrelationToken string      `json:"correlation_token"`
	AccountID        string      `json:"account_id"`
	PlanID           string      `json:"plan_id"`
	CouponCode       string      `json:"coupon_code,omitempty"`
	OriginalAmount   int64       `json:"original_amount"`
	DiscountAmount   int64       `json:"discount_amount"`
	Amount           int64       `json:"amount"`
	Currency         string      `json:"currency"`
	Status           OrderStatus `json:"status"`
	PaymentID        string      `json:"payment_id,omitempty"`
	VerifiedAt       *time.Time  `json:"verified_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func NewOrder(accountID, planID, couponCode, currency string, original, discount int64) *Order {
	now := time.Now()
	return &Order{
		ID:               uuid.New().String(),
		CorrelationToken: uuid.New().String(),
		AccountID:        accountID,
		PlanID:           planID,
		CouponCode:       couponCode,
		OriginalAmount:   original,
		DiscountAmount:   discount,
		Amount:           original - discount,
		Currency:         currency,
		Status:           OrderCreated,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (o *Order) IsFree() bool {
	return o.Amount == 0
}

// ExternalID is what the browser sees as the order id: the gateway order for
// paid orders, the internal id for free ones.
func (o *Order) ExternalID() string {
	if o.GatewayOrderID != "" {
		return o.GatewayOrderID
	}
	return o.ID
}

type OrderRepositoryInterface interface {
	Create(ctx context.Context, order *Order) error
	FindByToken(ctx context.Context, token string) (*Order, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
	// MarkVerified moves the order to verified from any other status and
	// returns ErrStaleStatus when it is already verified.
	MarkVerified(ctx context.Context, id, paymentID string, at time.Time) error
	// UpdateStatus is a compare-and-set on the previous status.
	UpdateStatus(ctx context.Context, id string, from, to OrderStatus) error
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
