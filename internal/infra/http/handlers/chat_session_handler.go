package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

type ChatSessionHandler struct {
	Sessions *usecase.ChatSessions
}

func NewChatSessionHandler(sessions *usecase.ChatSessions) *ChatSessionHandler {
	return &ChatSessionHandler{Sessions: sessions}
}

type QualifyChatRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type ReplyRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *ChatSessionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entity.ChatSessionFilter{
		Source: entity.LeadSource(q.Get("source")),
		Status: entity.ChatSessionStatus(q.Get("status")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, usecase.ValidationErrors{{Field: "limit", Message: "must be a number"}})
			return
		}
		filter.Limit = limit
	}

	sessions, err := h.Sessions.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions, "count": len(sessions)})
}

func (h *ChatSessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	details, err := h.Sessions.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// Qualify checks the email itself so the error lists it as a field error.
func (h *ChatSessionHandler) Qualify(w http.ResponseWriter, r *http.Request) {
	var req QualifyChatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.Sessions.Qualify(r.Context(), chi.URLParam(r, "id"), usecase.ContactInfo{Email: req.Email, Name: req.Name})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *ChatSessionHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req ReplyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.Sessions.Reply(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *ChatSessionHandler) MarkLead(w http.ResponseWriter, r *http.Request) {
	session, err := h.Sessions.MarkLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *ChatSessionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if r.ContentLength != 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	session, err := h.Sessions.Convert(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
