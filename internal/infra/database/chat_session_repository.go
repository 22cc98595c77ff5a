package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type ChatSessionRepository struct {
	DB *sql.DB
}

func NewChatSessionRepository(db *sql.DB) *ChatSessionRepository {
	return &ChatSessionRepository{DB: db}
}

const chatSessionColumns = `id, phone, contact_name, email, source, status, message_count,
	first_message_at, last_message_at, campaign_id, ctwa_clid, conversion_value, created_at`

// FindOrCreate relies on the unique phone constraint, so two webhooks for a
// new contact racing each other still end on one session.
func (r *ChatSessionRepository) FindOrCreate(ctx context.Context, s *entity.ChatSession) (*entity.ChatSession, bool, error) {
	query := `
		INSERT INTO chat_sessions (` + chatSessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (phone) DO NOTHING
		RETURNING ` + chatSessionColumns

	stored, err := scanChatSession(r.DB.QueryRowContext(ctx, query,
		s.ID,
		s.Phone,
		nullString(s.ContactName),
		nullString(s.Email),
		s.Source,
		s.Status,
		s.MessageCount,
		s.FirstMessageAt,
		s.LastMessageAt,
		nullString(s.CampaignID),
		nullString(s.CtwaClid),
		s.ConversionValue,
		s.CreatedAt,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	existing, err := scanChatSession(r.DB.QueryRowContext(ctx,
		`SELECT `+chatSessionColumns+` FROM chat_sessions WHERE phone = $1`, s.Phone))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *ChatSessionRepository) FindByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	session, err := scanChatSession(r.DB.QueryRowContext(ctx,
		`SELECT `+chatSessionColumns+` FROM chat_sessions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, entity.ErrNotFound)
	}
	return session, nil
}

func (r *ChatSessionRepository) List(ctx context.Context, filter entity.ChatSessionFilter) ([]*entity.ChatSession, error) {
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

	query := `SELECT ` + chatSessionColumns + ` FROM chat_sessions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(` ORDER BY last_message_at DESC LIMIT $%d`, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*entity.ChatSession
	for rows.Next() {
		s, err := scanChatSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// AppendMessage inserts the message and bumps the session counters in one
// transaction.
func (r *ChatSessionRepository) AppendMessage(ctx context.Context, msg *entity.ChatMessage) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, session_id, direction, body, external_id, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.SessionID, msg.Direction, msg.Body, nullString(msg.ExternalID), msg.SentAt)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicate
		}
		return err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE chat_sessions
		SET message_count = message_count + 1,
			last_message_at = GREATEST(last_message_at, $2)
		WHERE id = $1
	`, msg.SessionID, msg.SentAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return tx.Commit()
}

func (r *ChatSessionRepository) Messages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, session_id, direction, body, external_id, sent_at
		FROM chat_messages WHERE session_id = $1 ORDER BY sent_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*entity.ChatMessage
	for rows.Next() {
		var m entity.ChatMessage
		var externalID sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Direction, &m.Body, &externalID, &m.SentAt); err != nil {
			return nil, err
		}
		m.ExternalID = fromNull(externalID)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *ChatSessionRepository) UpdateStatus(ctx context.Context, id string, from, to entity.ChatSessionStatus, upd entity.ChatSessionUpdate) error {
	query := `
		UPDATE chat_sessions
		SET status = $3,
			email = COALESCE($4, email),
			contact_name = COALESCE($5, contact_name),
			conversion_value = COALESCE($6, conversion_value)
		WHERE id = $1 AND status = $2
	`
	res, err := r.DB.ExecContext(ctx, query, id, from, to,
		nullString(upd.Email), nullString(upd.ContactName), upd.ConversionValue)
	if err != nil {
		return err
	}
	return casResult(res,
		rowExists(ctx, r.DB, `SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE id = $1)`, id),
		entity.ErrStaleStatus, entity.ErrNotFound)
}

func scanChatSession(row rowScanner) (*entity.ChatSession, error) {
	var (
		s                    entity.ChatSession
		contactName, email   sql.NullString
		campaignID, ctwaClid sql.NullString
		conversionValue      sql.NullFloat64
	)
	err := row.Scan(
		&s.ID,
		&s.Phone,
		&contactName,
		&email,
		&s.Source,
		&s.Status,
		&s.MessageCount,
		&s.FirstMessageAt,
		&s.LastMessageAt,
		&campaignID,
		&ctwaClid,
		&conversionValue,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.ContactName = fromNull(contactName)
	s.Email = fromNull(email)
	s.CampaignID = fromNull(campaignID)
	s.CtwaClid = fromNull(ctwaClid)
	s.ConversionValue = fromNullFloat(conversionValue)
	return &s, nil
}
