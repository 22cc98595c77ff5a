package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, source, name, email, phone, campaign_id, adset_id, ad_id,
	status, form, conversion_value, created_at, last_activity_at`

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	form, err := json.Marshal(lead.Form)
	if err != nil {
		return fmt.Errorf("encode lead form: %w", err)
	}

	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.Source,
		nullString(lead.Name),
		nullString(lead.Email),
		nullString(lead.Phone),
		nullString(lead.CampaignID),
		nullString(lead.AdSetID),
		nullString(lead.AdID),
		lead.Status,
		form,
		lead.ConversionValue,
		lead.CreatedAt,
		lead.LastActivityAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, entity.ErrNotFound)
	}
	return lead, nil
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, error) {
	var where []string
	var args []any
	if filter.Source != "" {
		args = append(args, filter.Source)
		where = append(where, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(` ORDER BY last_activity_at DESC LIMIT $%d`, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, from, to entity.LeadStatus, conversionValue *float64) error {
	query := `
		UPDATE leads
		SET status = $3,
			conversion_value = COALESCE($4, conversion_value),
			last_activity_at = NOW()
		WHERE id = $1 AND status = $2
	`
	res, err := r.DB.ExecContext(ctx, query, id, from, to, conversionValue)
	if err != nil {
		return err
	}
	return casResult(res,
		rowExists(ctx, r.DB, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id),
		entity.ErrStaleStatus, entity.ErrNotFound)
}

func (r *LeadRepository) Stats(ctx context.Context) (*entity.LeadStats, error) {
	query := `SELECT source, status, COUNT(*) FROM leads GROUP BY source, status`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &entity.LeadStats{
		ByStatus: make(map[entity.LeadStatus]int),
		BySource: make(map[entity.LeadSource]int),
	}
	for rows.Next() {
		var source entity.LeadSource
		var status entity.LeadStatus
		var n int
		if err := rows.Scan(&source, &status, &n); err != nil {
			return nil, err
		}
		stats.Total += n
		stats.ByStatus[status] += n
		stats.BySource[source] += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.ConversionRate = entity.ConversionRate(stats)
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead                      entity.Lead
		name, email, phone        sql.NullString
		campaignID, adSetID, adID sql.NullString
		form                      []byte
		conversionValue           sql.NullFloat64
	)
	err := row.Scan(
		&lead.ID,
		&lead.Source,
		&name,
		&email,
		&phone,
		&campaignID,
		&adSetID,
		&adID,
		&lead.Status,
		&form,
		&conversionValue,
		&lead.CreatedAt,
		&lead.LastActivityAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Name = fromNull(name)
	lead.Email = fromNull(email)
	lead.Phone = fromNull(phone)
	lead.CampaignID = fromNull(campaignID)
	lead.AdSetID = fromNull(adSetID)
	lead.AdID = fromNull(adID)
	lead.ConversionValue = fromNullFloat(conversionValue)
	if len(form) > 0 {
		if err := json.Unmarshal(form, &lead.Form); err != nil {
			return nil, fmt.Errorf("decode lead form: %w", err)
		}
	}
	return &lead, nil
}
