package entity

import (
	"context"
	"time"
)

// IntegrationSettings holds the credentials the dashboard owner configures
// for the conversion sink and the chat channel.
type IntegrationSettings struct {
	MetaPixelID         string    `json:"meta_pixel_id"`
	MetaAccessToken     string    `json:"meta_access_token"`
	MetaTestEventCode   string    `json:"meta_test_event_code"`
	WhatsAppPhoneID     string    `json:"whatsapp_phone_id"`
	WhatsAppAccessToken string    `json:"whatsapp_access_token"`
	WhatsAppVerifyToken string    `json:"whatsapp_verify_token"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Masked returns a copy safe to send to the browser.
func (s IntegrationSettings) Masked() IntegrationSettings {
	s.MetaAccessToken = mask(s.MetaAccessToken)
	s.WhatsAppAccessToken = mask(s.WhatsAppAccessToken)
	return s
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

type SettingsRepositoryInterface interface {
	Get(ctx context.Context) (*IntegrationSettings, error)
	Save(ctx context.Context, s *IntegrationSettings) error
}
