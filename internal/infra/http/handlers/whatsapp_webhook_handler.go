package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/xavierca1/ligue-growth/internal/infra/integration/whatsapp"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

type WhatsAppWebhookHandler struct {
	Sessions *usecase.ChatSessions
	Settings *usecase.SettingsService
}

func NewWhatsAppWebhookHandler(sessions *usecase.ChatSessions, settings *usecase.SettingsService) *WhatsAppWebhookHandler {
	return &WhatsAppWebhookHandler{Sessions: sessions, Settings: settings}
}

// Verify answers Meta's subscription challenge (GET /webhooks/whatsapp).
func (h *WhatsAppWebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" {
		http.Error(w, "Bad mode", http.StatusBadRequest)
		return
	}

	current, err := h.Settings.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if current.WhatsAppVerifyToken == "" || q.Get("hub.verify_token") != current.WhatsAppVerifyToken {
		log.Printf("⚠️ [WHATSAPP] Verify token inválido")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(q.Get("hub.challenge")))
}

// Receive ingests inbound messages. Meta retries anything that is not a 200,
// so per-message failures are logged and skipped.
func (h *WhatsAppWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload whatsapp.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}

	for _, msg := range InboundMessages(payload) {
		if _, err := h.Sessions.IngestMessage(r.Context(), msg); err != nil {
			log.Printf("❌ [WHATSAPP] Falha ao registrar mensagem %s de %s: %v", msg.ExternalID, msg.Phone, err)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// InboundMessages flattens a webhook payload into chat messages.
func InboundMessages(payload whatsapp.WebhookPayload) []usecase.InboundMessage {
	var out []usecase.InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			names := make(map[string]string, len(change.Value.Contacts))
			for _, c := range change.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}

			for _, m := range change.Value.Messages {
				msg := usecase.InboundMessage{
					Phone:       m.From,
					ContactName: names[m.From],
					ExternalID:  m.ID,
					ReceivedAt:  parseUnix(m.Timestamp),
				}
				if m.Text != nil {
					msg.Body = m.Text.Body
				} else {
					msg.Body = "[" + m.Type + "]"
				}
				if m.Referral != nil && m.Referral.CtwaClid != "" {
					msg.Referral = &usecase.AdReferral{SourceID: m.Referral.SourceID, CtwaClid: m.Referral.CtwaClid}
				}
				out = append(out, msg)
			}
		}
	}
	return out
}

func parseUnix(raw string) time.Time {
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
