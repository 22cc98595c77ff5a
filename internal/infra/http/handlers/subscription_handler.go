package handlers

import (
	"errors"
	"net/http"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/http/middleware"
)

type SubscriptionHandler struct {
	SubRepo entity.SubscriptionRepository
}

func NewSubscriptionHandler(repo entity.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{SubRepo: repo}
}

// HandleGetMine (GET /me/subscription)
func (h *SubscriptionHandler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	sub, err := h.SubRepo.FindByAccountID(r.Context(), middleware.AccountID(r.Context()))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]string{"status": entity.SubscriptionPending})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
