package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

type LeadHandler struct {
	Leads *usecase.LeadLifecycle
}

func NewLeadHandler(leads *usecase.LeadLifecycle) *LeadHandler {
	return &LeadHandler{Leads: leads}
}

type UpdateLeadStatusRequest struct {
	Status entity.LeadStatus `json:"status" validate:"required"`
	Amount *float64          `json:"amount,omitempty"`
}

type ConvertRequest struct {
	Amount *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
}

// CaptureLead (POST /leads) is public; the router puts it behind the per-IP
// limiter.
func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	var req usecase.CaptureLeadInput
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.Leads.Capture(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

// List (GET /leads?source=&status=&limit=)
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entity.LeadFilter{
		Source: entity.LeadSource(q.Get("source")),
		Status: entity.LeadStatus(q.Get("status")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, usecase.ValidationErrors{{Field: "limit", Message: "must be a number"}})
			return
		}
		filter.Limit = limit
	}

	leads, err := h.Leads.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads, "count": len(leads)})
}

func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Leads.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UpdateStatus (PATCH /leads/{id}/status) dispatches to the matching command.
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateLeadStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.Leads.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) SendToMeta(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.Leads.SendToSink)
}

func (h *LeadHandler) Qualify(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.Leads.Qualify)
}

func (h *LeadHandler) MarkSpam(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, h.Leads.MarkSpam)
}

func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if r.ContentLength != 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	lead, err := h.Leads.Convert(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) command(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (*entity.Lead, error)) {
	lead, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
