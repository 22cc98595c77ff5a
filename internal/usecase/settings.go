package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/metacapi"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/whatsapp"
)

type UpdateSettingsInput struct {
	MetaPixelID         *string `json:"meta_pixel_id"`
	MetaAccessToken     *string `json:"meta_access_token"`
	MetaTestEventCode   *string `json:"meta_test_event_code"`
	WhatsAppPhoneID     *string `json:"whatsapp_phone_id"`
	WhatsAppAccessToken *string `json:"whatsapp_access_token"`
}

// SettingsService manages the integration credentials. Reads are masked.
type SettingsService struct {
	Repo     entity.SettingsRepositoryInterface
	Sink     ConversionSink
	Fallback entity.IntegrationSettings
}

func NewSettingsService(repo entity.SettingsRepositoryInterface, sink ConversionSink, fallback entity.IntegrationSettings) *SettingsService {
	return &SettingsService{Repo: repo, Sink: sink, Fallback: fallback}
}

func (s *SettingsService) Get(ctx context.Context) (*entity.IntegrationSettings, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	masked := current.Masked()
	return &masked, nil
}

// Current returns the unmasked settings, with empty stored fields filled
// from the environment fallback.
func (s *SettingsService) Current(ctx context.Context) (*entity.IntegrationSettings, error) {
	stored, err := s.Repo.Get(ctx)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load settings", Err: err}
	}
	merged := s.Fallback
	if stored != nil {
		overlay(&merged.MetaPixelID, stored.MetaPixelID)
		overlay(&merged.MetaAccessToken, stored.MetaAccessToken)
		overlay(&merged.MetaTestEventCode, stored.MetaTestEventCode)
		overlay(&merged.WhatsAppPhoneID, stored.WhatsAppPhoneID)
		overlay(&merged.WhatsAppAccessToken, stored.WhatsAppAccessToken)
		overlay(&merged.WhatsAppVerifyToken, stored.WhatsAppVerifyToken)
		merged.UpdatedAt = stored.UpdatedAt
	}
	return &merged, nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (s *SettingsService) Update(ctx context.Context, input UpdateSettingsInput) (*entity.IntegrationSettings, error) {
	stored, err := s.Repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load settings", Err: err}
		}
		stored = &entity.IntegrationSettings{}
	}

	apply(&stored.MetaPixelID, input.MetaPixelID)
	apply(&stored.MetaAccessToken, input.MetaAccessToken)
	apply(&stored.MetaTestEventCode, input.MetaTestEventCode)
	apply(&stored.WhatsAppPhoneID, input.WhatsAppPhoneID)
	apply(&stored.WhatsAppAccessToken, input.WhatsAppAccessToken)
	stored.UpdatedAt = time.Now()

	if err := s.Repo.Save(ctx, stored); err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to save settings", Err: err}
	}
	return s.Get(ctx)
}

func apply(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// TestConversionSink sends a test Lead event so the owner can see it in the
// Events Manager test tab.
func (s *SettingsService) TestConversionSink(ctx context.Context) error {
	current, err := s.Current(ctx)
	if err != nil {
		return err
	}
	if current.MetaTestEventCode == "" {
		return ValidationErrors{{"meta_test_event_code", "is required to send a test event"}}
	}

	id := "test:" + uuid.New().String()
	err = s.Sink.Send(ctx, metacapi.Event{
		ID:            id,
		Name:          metacapi.EventLead,
		Time:          time.Now(),
		LeadID:        id,
		TestEventCode: current.MetaTestEventCode,
	})
	if err != nil {
		return &NetworkError{Op: "send test event", Err: err}
	}
	return nil
}

// RegenerateVerifyToken rotates the WhatsApp webhook verify token and returns
// the new value in clear once.
func (s *SettingsService) RegenerateVerifyToken(ctx context.Context) (string, error) {
	stored, err := s.Repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			return "", &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load settings", Err: err}
		}
		stored = &entity.IntegrationSettings{}
	}

	stored.WhatsAppVerifyToken = uuid.New().String()
	stored.UpdatedAt = time.Now()
	if err := s.Repo.Save(ctx, stored); err != nil {
		return "", &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to save settings", Err: err}
	}
	return stored.WhatsAppVerifyToken, nil
}

// MetaCredentials adapts the settings to the Conversions API client.
func (s *SettingsService) MetaCredentials(ctx context.Context) (metacapi.Credentials, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return metacapi.Credentials{}, fmt.Errorf("settings: %w", err)
	}
	return metacapi.Credentials{
		PixelID:       current.MetaPixelID,
		AccessToken:   current.MetaAccessToken,
		TestEventCode: current.MetaTestEventCode,
	}, nil
}

func (s *SettingsService) WhatsAppCredentials(ctx context.Context) (whatsapp.Credentials, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return whatsapp.Credentials{}, fmt.Errorf("settings: %w", err)
	}
	return whatsapp.Credentials{
		PhoneID:     current.WhatsAppPhoneID,
		AccessToken: current.WhatsAppAccessToken,
	}, nil
}
