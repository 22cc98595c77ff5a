package usecase

import (
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type CaptureLeadInput struct {
	Source     entity.LeadSource `json:"source" validate:"required"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone"`
	CampaignID string            `json:"campaign_id"`
	AdSetID    string            `json:"adset_id"`
	AdID       string            `json:"ad_id"`
	Form       entity.LeadForm   `json:"form"`
}

type ContactInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// InboundMessage is one message received on the chat channel.
type InboundMessage struct {
	Phone       string
	ContactName string
	Body        string
	ExternalID  string
	ReceivedAt  time.Time
	// Referral is set when the conversation was opened from a
	// click-to-WhatsApp ad.
	Referral *AdReferral
}

type AdReferral struct {
	SourceID string // ad id
	CtwaClid string
}

type SessionDetails struct {
	Session  *entity.ChatSession   `json:"session"`
	Messages []*entity.ChatMessage `json:"messages"`
}

type PricingBreakdown struct {
	OriginalAmount Money  `json:"original_amount"`
	DiscountAmount Money  `json:"discount_amount"`
	FinalAmount    Money  `json:"final_amount"`
	Currency       string `json:"currency"`
	CouponCode     string `json:"coupon_code,omitempty"`
}

type CreateOrderInput struct {
	AccountID  string `json:"-"`
	PlanID     string `json:"plan_id" validate:"required"`
	CouponCode string `json:"coupon_code"`
}

type CreateOrderOutput struct {
	OrderID          string            `json:"order_id"`
	Amount           int64             `json:"amount"` // minor units, net of discount
	Currency         string            `json:"currency"`
	CorrelationToken string            `json:"correlation_token"`
	Plan             *entity.Plan      `json:"plan"`
	CouponApplied    *PricingBreakdown `json:"coupon_applied,omitempty"`
}

func (o *CreateOrderOutput) IsFree() bool {
	return o.Amount == 0
}

type VerifyPaymentInput struct {
	AccountID        string `json:"-"`
	OrderID          string `json:"razorpay_order_id" validate:"required"`
	PaymentID        string `json:"razorpay_payment_id" validate:"required"`
	Signature        string `json:"razorpay_signature" validate:"required"`
	CorrelationToken string `json:"correlation_token" validate:"required"`
	PlanID           string `json:"plan_id" validate:"required"`
	AutoRenew        bool   `json:"auto_renew"`
}

type VerifyPaymentOutput struct {
	Success      bool                 `json:"success"`
	Subscription *entity.Subscription `json:"subscription,omitempty"`
}

type ActivateFreeInput struct {
	AccountID        string `json:"-"`
	CorrelationToken string `json:"correlation_token" validate:"required"`
	PlanID           string `json:"plan_id" validate:"required"`
}
