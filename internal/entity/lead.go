package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadSource string

const (
	LeadSourceInstantForm     LeadSource = "instant_form"
	LeadSourceWebsite         LeadSource = "website"
	LeadSourceWhatsAppAd      LeadSource = "whatsapp_ad"
	LeadSourceWhatsAppOrganic LeadSource = "whatsapp_organic"
)

func (s LeadSource) Valid() bool {
	switch s {
	case LeadSourceInstantForm, LeadSourceWebsite, LeadSourceWhatsAppAd, LeadSourceWhatsAppOrganic:
		return true
	}
	return false
}

type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusSentToMeta LeadStatus = "sent_to_meta"
	LeadStatusContacted  LeadStatus = "contacted"
	LeadStatusQualified  LeadStatus = "qualified"
	LeadStatusConverted  LeadStatus = "converted"
	LeadStatusSpam       LeadStatus = "spam"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusSentToMeta, LeadStatusContacted,
		LeadStatusQualified, LeadStatusConverted, LeadStatusSpam:
		return true
	}
	return false
}

var ErrMissingContact = errors.New("lead needs at least an email or a phone")

// Lead is a prospect captured from an ad or web channel.
type Lead struct {
	ID     string     `json:"id"`
	Source LeadSource `json:"source"`
	Name   string     `json:"name,omitempty"`
	Email  string     `json:"email,omitempty"`
	Phone  string     `json:"phone,omitempty"`

	// Ad attribution, all optional
	CampaignID string `json:"campaign_id,omitempty"`
	AdSetID    string `json:"adset_id,omitempty"`
	AdID       string `json:"ad_id,omitempty"`

	Status          LeadStatus `json:"status"`
	Form            LeadForm   `json:"form"`
	ConversionValue *float64   `json:"conversion_value,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

func NewLead(source LeadSource, name, email, phone string, form LeadForm) (*Lead, error) {
	now := time.Now()
	lead := &Lead{
		ID:             uuid.New().String(),
		Source:         source,
		Name:           strings.TrimSpace(name),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Phone:          strings.TrimSpace(phone),
		Status:         LeadStatusNew,
		Form:           form,
		CreatedAt:      now,
		LastActivityAt: now,
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}
	return lead, nil
}

func (l *Lead) Validate() error {
	if !l.Source.Valid() {
		return errors.New("unknown lead source")
	}
	if l.Email == "" && l.Phone == "" {
		return ErrMissingContact
	}
	return l.Form.Validate(l.Source)
}

type LeadFilter struct {
	Source LeadSource
	Status LeadStatus
	Limit  int
}

type LeadStats struct {
	Total          int                `json:"total"`
	ByStatus       map[LeadStatus]int `json:"by_status"`
	BySource       map[LeadSource]int `json:"by_source"`
	ConversionRate float64            `json:"conversion_rate"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]*Lead, error)
	// UpdateStatus is a compare-and-set on the previous status; it returns
	// ErrStaleStatus when the stored status is no longer `from`.
	UpdateStatus(ctx context.Context, id string, from, to LeadStatus, conversionValue *float64) error
	Stats(ctx context.Context) (*LeadStats, error)
}

// ConversionRate is converted leads over non-spam leads.
func ConversionRate(s *LeadStats) float64 {
	eligible := s.Total - s.ByStatus[LeadStatusSpam]
	if eligible <= 0 {
		return 0
	}
	return float64(s.ByStatus[LeadStatusConverted]) / float64(eligible)
}
