package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type SettingsRepository struct {
	DB *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*entity.IntegrationSettings, error) {
	query := `
		SELECT meta_pixel_id, meta_access_token, meta_test_event_code,
			whatsapp_phone_id, whatsapp_access_token, whatsapp_verify_token, updated_at
		FROM integration_settings WHERE id = 1
	`
	var s entity.IntegrationSettings
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&s.MetaPixelID,
		&s.MetaAccessToken,
		&s.MetaTestEventCode,
		&s.WhatsAppPhoneID,
		&s.WhatsAppAccessToken,
		&s.WhatsAppVerifyToken,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, entity.ErrNotFound)
	}
	return &s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *entity.IntegrationSettings) error {
	query := `
		INSERT INTO integration_settings (
			id, meta_pixel_id, meta_access_token, meta_test_event_code,
			whatsapp_phone_id, whatsapp_access_token, whatsapp_verify_token, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			meta_pixel_id = EXCLUDED.meta_pixel_id,
			meta_access_token = EXCLUDED.meta_access_token,
			meta_test_event_code = EXCLUDED.meta_test_event_code,
			whatsapp_phone_id = EXCLUDED.whatsapp_phone_id,
			whatsapp_access_token = EXCLUDED.whatsapp_access_token,
			whatsapp_verify_token = EXCLUDED.whatsapp_verify_token,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query,
		s.MetaPixelID,
		s.MetaAccessToken,
		s.MetaTestEventCode,
		s.WhatsAppPhoneID,
		s.WhatsAppAccessToken,
		s.WhatsAppVerifyToken,
		s.UpdatedAt,
	)
	return err
}
