package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/metacapi"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// LeadLifecycle owns every lead status change. Each command checks the
// stored status, performs its external side effect and only then persists
// the new status, so a failed call leaves the lead untouched and a retry
// cannot emit twice.
type LeadLifecycle struct {
	Repo     entity.LeadRepositoryInterface
	Sink     ConversionSink
	Observer TransitionObserver
	Currency string

	locks *KeyedMutex
}

func NewLeadLifecycle(repo entity.LeadRepositoryInterface, sink ConversionSink, observer TransitionObserver, currency string) *LeadLifecycle {
	if observer == nil {
		observer = noopObserver{}
	}
	return &LeadLifecycle{
		Repo:     repo,
		Sink:     sink,
		Observer: observer,
		Currency: currency,
		locks:    NewKeyedMutex(),
	}
}

func (uc *LeadLifecycle) Capture(ctx context.Context, input CaptureLeadInput) (*entity.Lead, error) {
	if errs := ValidateCaptureLeadInput(input); len(errs) > 0 {
		return nil, toError(errs)
	}

	phone := input.Phone
	if strings.TrimSpace(phone) != "" {
		phone, _ = NormalizePhone(phone)
	}

	lead, err := entity.NewLead(input.Source, input.Name, input.Email, phone, input.Form)
	if err != nil {
		return nil, ValidationErrors{{"lead", err.Error()}}
	}
	lead.CampaignID = input.CampaignID
	lead.AdSetID = input.AdSetID
	lead.AdID = input.AdID

	if err := uc.Repo.Create(ctx, lead); err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to save lead", Err: err}
	}

	log.Printf("🧲 [LEADS] Novo lead %s via %s", lead.ID, lead.Source)
	return lead, nil
}

// SendToSink registers a new lead with the conversion sink.
func (uc *LeadLifecycle) SendToSink(ctx context.Context, id string) (*entity.Lead, error) {
	return uc.transition(ctx, id, "send_to_sink", entity.LeadStatusSentToMeta, metacapi.EventLead, nil)
}

func (uc *LeadLifecycle) MarkContacted(ctx context.Context, id string) (*entity.Lead, error) {
	return uc.transition(ctx, id, "mark_contacted", entity.LeadStatusContacted, "", nil)
}

func (uc *LeadLifecycle) Qualify(ctx context.Context, id string) (*entity.Lead, error) {
	return uc.transition(ctx, id, "qualify", entity.LeadStatusQualified, metacapi.EventQualifiedLead, nil)
}

// Convert closes a qualified lead. amount is optional and is forwarded as is.
func (uc *LeadLifecycle) Convert(ctx context.Context, id string, amount *float64) (*entity.Lead, error) {
	if errs := ValidateAmount(amount); len(errs) > 0 {
		return nil, toError(errs)
	}
	return uc.transition(ctx, id, "convert", entity.LeadStatusConverted, metacapi.EventPurchase, amount)
}

// MarkSpam is terminal and never forwarded to the sink.
func (uc *LeadLifecycle) MarkSpam(ctx context.Context, id string) (*entity.Lead, error) {
	return uc.transition(ctx, id, "mark_spam", entity.LeadStatusSpam, "", nil)
}

// UpdateStatus routes a generic status change to the command that owns the
// target status.
func (uc *LeadLifecycle) UpdateStatus(ctx context.Context, id string, target entity.LeadStatus, amount *float64) (*entity.Lead, error) {
	switch target {
	case entity.LeadStatusSentToMeta:
		return uc.SendToSink(ctx, id)
	case entity.LeadStatusContacted:
		return uc.MarkContacted(ctx, id)
	case entity.LeadStatusQualified:
		return uc.Qualify(ctx, id)
	case entity.LeadStatusConverted:
		return uc.Convert(ctx, id, amount)
	case entity.LeadStatusSpam:
		return uc.MarkSpam(ctx, id)
	}
	return nil, ValidationErrors{{"status", "is not a valid target status"}}
}

func (uc *LeadLifecycle) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, error) {
	if filter.Source != "" && !filter.Source.Valid() {
		return nil, ValidationErrors{{"source", "is invalid"}}
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ValidationErrors{{"status", "is invalid"}}
	}
	filter.Limit = clampLimit(filter.Limit)

	leads, err := uc.Repo.List(ctx, filter)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to list leads", Err: err}
	}
	return leads, nil
}

func (uc *LeadLifecycle) Stats(ctx context.Context) (*entity.LeadStats, error) {
	stats, err := uc.Repo.Stats(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to compute lead stats", Err: err}
	}
	return stats, nil
}

func (uc *LeadLifecycle) transition(ctx context.Context, id, command string, to entity.LeadStatus, event string, amount *float64) (*entity.Lead, error) {
	unlock := uc.locks.Lock(id)
	defer unlock()

	lead, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, &NotFoundError{Entity: "lead", ID: id}
		}
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load lead", Err: err}
	}

	from := lead.Status
	if !entity.CanTransitionLead(from, to) {
		return nil, &TransitionError{Entity: "lead", ID: id, From: string(from), Command: command}
	}

	if event != "" {
		if err := uc.Sink.Send(ctx, uc.event(lead, event, amount)); err != nil {
			return nil, &NetworkError{Op: "send " + event + " event", Err: err}
		}
	}

	if err := uc.Repo.UpdateStatus(ctx, id, from, to, amount); err != nil {
		if errors.Is(err, entity.ErrStaleStatus) {
			return nil, &TransitionError{Entity: "lead", ID: id, From: string(from), Command: command}
		}
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to persist lead status", Err: err}
	}

	lead.Status = to
	lead.LastActivityAt = time.Now()
	if amount != nil {
		lead.ConversionValue = amount
	}
	uc.Observer.OnTransition("lead", id, string(from), string(to))
	return lead, nil
}

func (uc *LeadLifecycle) event(lead *entity.Lead, name string, amount *float64) metacapi.Event {
	ev := metacapi.Event{
		ID:         eventID(lead.ID, name),
		Name:       name,
		Time:       time.Now(),
		Email:      lead.Email,
		Phone:      lead.Phone,
		Value:      amount,
		LeadID:     lead.ID,
		CampaignID: lead.CampaignID,
	}
	if lead.Form.WhatsApp != nil {
		ev.CtwaClid = lead.Form.WhatsApp.CtwaClid
	}
	if amount != nil {
		ev.Currency = uc.Currency
	}
	return ev
}

// eventID is stable per entity and event so the sink drops a retried send.
func eventID(entityID, event string) string {
	return entityID + ":" + strings.ToLower(event)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
