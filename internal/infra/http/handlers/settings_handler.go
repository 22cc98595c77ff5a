package handlers

import (
	"net/http"

	"github.com/xavierca1/ligue-growth/internal/usecase"
)

type SettingsHandler struct {
	Settings *usecase.SettingsService
}

func NewSettingsHandler(settings *usecase.SettingsService) *SettingsHandler {
	return &SettingsHandler{Settings: settings}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateSettingsInput
	if err := decodeAndValidate(r, &input); err != nil {
		writeError(w, err)
		return
	}

	s, err := h.Settings.Update(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Test sends a test event to the Conversions API with the stored test code.
func (h *SettingsHandler) Test(w http.ResponseWriter, r *http.Request) {
	if err := h.Settings.TestConversionSink(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *SettingsHandler) RegenerateToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.Settings.RegenerateVerifyToken(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"whatsapp_verify_token": token})
}
