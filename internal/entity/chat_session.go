package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ChatSessionStatus string

const (
	ChatStatusNew       ChatSessionStatus = "new"
	ChatStatusContacted ChatSessionStatus = "contacted"
	ChatStatusLead      ChatSessionStatus = "lead"
	ChatStatusQualified ChatSessionStatus = "qualified"
	ChatStatusConverted ChatSessionStatus = "converted"
)

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// ChatSession is a WhatsApp thread with one contact. Phone (E.164) is unique.
type ChatSession struct {
	ID              string            `json:"id"`
	Phone           string            `json:"phone"`
	ContactName     string            `json:"contact_name,omitempty"`
	Email           string            `json:"email,omitempty"`
	Source          LeadSource        `json:"source"` // whatsapp_ad | whatsapp_organic
	Status          ChatSessionStatus `json:"status"`
	MessageCount    int               `json:"message_count"`
	FirstMessageAt  time.Time         `json:"first_message_at"`
	LastMessageAt   time.Time         `json:"last_message_at"`
	CampaignID      string            `json:"campaign_id,omitempty"`
	CtwaClid        string            `json:"ctwa_clid,omitempty"`
	ConversionValue *float64          `json:"conversion_value,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

type ChatMessage struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"session_id"`
	Direction  MessageDirection `json:"direction"`
	Body       string           `json:"body"`
	ExternalID string           `json:"external_id,omitempty"`
	SentAt     time.Time        `json:"sent_at"`
}

func NewChatSession(phone, contactName string, source LeadSource, at time.Time) *ChatSession {
	return &ChatSession{
		ID:             uuid.New().String(),
		Phone:          phone,
		ContactName:    contactName,
		Source:         source,
		Status:         ChatStatusNew,
		FirstMessageAt: at,
		LastMessageAt:  at,
		CreatedAt:      time.Now(),
	}
}

func NewChatMessage(sessionID string, direction MessageDirection, body, externalID string, at time.Time) *ChatMessage {
	return &ChatMessage{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Direction:  direction,
		Body:       body,
		ExternalID: externalID,
		SentAt:     at,
	}
}

type ChatSessionFilter struct {
	Source LeadSource
	Status ChatSessionStatus
	Limit  int
}

// ChatSessionUpdate carries the fields a status transition may write along
// with the new status.
type ChatSessionUpdate struct {
	Email           string
	ContactName     string
	ConversionValue *float64
}

type ChatSessionRepositoryInterface interface {
	// FindOrCreate returns the session for session.Phone, inserting the given
	// one when none exists. created reports whether the insert happened.
	FindOrCreate(ctx context.Context, session *ChatSession) (stored *ChatSession, created bool, err error)
	FindByID(ctx context.Context, id string) (*ChatSession, error)
	List(ctx context.Context, filter ChatSessionFilter) ([]*ChatSession, error)
	// AppendMessage stores the message and bumps count and last-message time.
	// A message whose ExternalID was already stored returns ErrDuplicate.
	AppendMessage(ctx context.Context, msg *ChatMessage) error
	Messages(ctx context.Context, sessionID string) ([]*ChatMessage, error)
	// UpdateStatus is a compare-and-set on the previous status.
	UpdateStatus(ctx context.Context, id string, from, to ChatSessionStatus, upd ChatSessionUpdate) error
}
