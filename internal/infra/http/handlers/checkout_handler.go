package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-growth/internal/checkout"
	"github.com/xavierca1/ligue-growth/internal/infra/http/middleware"
)

// CheckoutHandler drives the per-account checkout orchestrator.
type CheckoutHandler struct {
	Registry *checkout.Registry
}

func NewCheckoutHandler(registry *checkout.Registry) *CheckoutHandler {
	return &CheckoutHandler{Registry: registry}
}

type ApplyCouponRequest struct {
	Code   string `json:"code" validate:"required"`
	PlanID string `json:"plan_id" validate:"required"`
}

type StartCheckoutRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type GatewayFailureRequest struct {
	Reason string `json:"reason"`
}

func (h *CheckoutHandler) orchestrator(r *http.Request) *checkout.Orchestrator {
	return h.Registry.For(middleware.AccountID(r.Context()))
}

// Get (GET /checkout)
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orchestrator(r).Snapshot())
}

// ApplyCoupon (POST /checkout/coupon)
func (h *CheckoutHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req ApplyCouponRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.orchestrator(r).ApplyCoupon(r.Context(), req.Code, req.PlanID)
	h.respond(w, snap, err)
}

// RemoveCoupon (DELETE /checkout/coupon)
func (h *CheckoutHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orchestrator(r).RemoveCoupon()
	h.respond(w, snap, err)
}

// Start (POST /checkout) creates the order and returns the widget options.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartCheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.orchestrator(r).Start(r.Context(), req.PlanID)
	h.respond(w, snap, err)
}

// Capture (POST /checkout/capture) receives the widget success payload.
func (h *CheckoutHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req checkout.CaptureResult
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.orchestrator(r).HandleCapture(r.Context(), req)
	h.respond(w, snap, err)
}

// Failure (POST /checkout/failure) reports a widget payment failure.
func (h *CheckoutHandler) Failure(w http.ResponseWriter, r *http.Request) {
	var req GatewayFailureRequest
	if r.ContentLength != 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, h.orchestrator(r).HandleGatewayFailure(req.Reason))
}

// Cancel (POST /checkout/cancel) abandons the pending order.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orchestrator(r).Cancel())
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, snap checkout.Snapshot, err error) {
	if err != nil {
		status, resp := classify(err)
		resp.State = &snap
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
