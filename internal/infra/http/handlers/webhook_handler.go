package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives Razorpay payment events. It is the server-side
// path that settles an order when the browser never reported the capture.
type WebhookHandler struct {
	Reconcile *usecase.ReconcilePaymentUseCase
	Secret    string
}

func NewWebhookHandler(reconcile *usecase.ReconcilePaymentUseCase, secret string) *WebhookHandler {
	return &WebhookHandler{Reconcile: reconcile, Secret: secret}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad body", http.StatusBadRequest)
		return
	}

	if h.Secret == "" || !razorpay.VerifyWebhookSignature(h.Secret, body, r.Header.Get("X-Razorpay-Signature")) {
		log.Printf("⚠️ [WEBHOOK] Assinatura inválida de %s", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event razorpay.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}

	if err := h.Reconcile.Execute(r.Context(), event); err != nil {
		var verifyErr *usecase.VerificationError
		if errors.As(err, &verifyErr) {
			// Retrying will not change the outcome.
			log.Printf("⚠️ CRITICAL: webhook %s rejeitado: %v", event.Event, err)
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Printf("❌ [WEBHOOK] Erro ao processar %s: %v", event.Event, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
