package mail

import (
	"context"
	"log"

	"github.com/xavierca1/ligue-growth/internal/infra/integration/whatsapp"
)

type templateSender interface {
	SendTemplate(ctx context.Context, input whatsapp.SendMessageInput) (string, error)
}

// WhatsAppSender sends the welcome template after activation.
type WhatsAppSender struct {
	client       templateSender
	templateName string
}

func NewWhatsAppSender(client templateSender, templateName string) *WhatsAppSender {
	return &WhatsAppSender{
		client:       client,
		templateName: templateName,
	}
}

func (s *WhatsAppSender) SendWelcome(ctx context.Context, phone, name, planName string) error {
	if phone == "" || s.templateName == "" {
		log.Printf("⚠️ WhatsApp: dados incompletos para envio (phone: %q, template: %q)", phone, s.templateName)
		return nil
	}

	_, err := s.client.SendTemplate(ctx, whatsapp.SendMessageInput{
		PhoneNumber:  phone,
		TemplateName: s.templateName,
		Parameters:   []string{name, planName},
	})
	return err
}
