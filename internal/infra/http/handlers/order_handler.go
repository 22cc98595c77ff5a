package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-growth/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

// OrderHandler exposes pricing, order creation and verification directly,
// for clients that drive the payment widget themselves.
type OrderHandler struct {
	Pricing     *usecase.PricingEngine
	CreateOrder *usecase.CreateOrderUseCase
	Verify      *usecase.VerifyPaymentUseCase
}

func NewOrderHandler(pricing *usecase.PricingEngine, create *usecase.CreateOrderUseCase, verify *usecase.VerifyPaymentUseCase) *OrderHandler {
	return &OrderHandler{Pricing: pricing, CreateOrder: create, Verify: verify}
}

type ValidateCouponRequest struct {
	Code   string `json:"code" validate:"required"`
	PlanID string `json:"plan_id" validate:"required"`
}

// ValidateCoupon (POST /coupons/validate)
func (h *OrderHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req ValidateCouponRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	breakdown, err := h.Pricing.Validate(r.Context(), req.Code, req.PlanID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// Create (POST /orders)
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateOrderInput
	if err := decodeAndValidate(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.AccountID = middleware.AccountID(r.Context())

	output, err := h.CreateOrder.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, output)
}

// VerifyPayment (POST /orders/verify)
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var input usecase.VerifyPaymentInput
	if err := decodeAndValidate(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.AccountID = middleware.AccountID(r.Context())

	output, err := h.Verify.Execute(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// ActivateFree (POST /orders/activate-free) settles a zero-amount order.
func (h *OrderHandler) ActivateFree(w http.ResponseWriter, r *http.Request) {
	var input usecase.ActivateFreeInput
	if err := decodeAndValidate(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.AccountID = middleware.AccountID(r.Context())

	output, err := h.Verify.ActivateFree(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}
