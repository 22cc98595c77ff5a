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

// ChatSessions runs the WhatsApp conversation lifecycle.
type ChatSessions struct {
	Repo     entity.ChatSessionRepositoryInterface
	Sink     ConversionSink
	Channel  ChatChannel
	Observer TransitionObserver
	Currency string

	locks *KeyedMutex
}

func NewChatSessions(repo entity.ChatSessionRepositoryInterface, sink ConversionSink, channel ChatChannel, observer TransitionObserver, currency string) *ChatSessions {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ChatSessions{
		Repo:     repo,
		Sink:     sink,
		Channel:  channel,
		Observer: observer,
		Currency: currency,
		locks:    NewKeyedMutex(),
	}
}

// IngestMessage stores an inbound message on the session for its phone,
// opening the session on first contact. Redelivered messages are ignored.
func (uc *ChatSessions) IngestMessage(ctx context.Context, msg InboundMessage) (*entity.ChatSession, error) {
	phone, err := NormalizePhone(msg.Phone)
	if err != nil {
		return nil, ValidationErrors{{"phone", "must be a valid phone number"}}
	}

	at := msg.ReceivedAt
	if at.IsZero() {
		at = time.Now()
	}

	source := entity.LeadSourceWhatsAppOrganic
	if msg.Referral != nil {
		source = entity.LeadSourceWhatsAppAd
	}

	candidate := entity.NewChatSession(phone, strings.TrimSpace(msg.ContactName), source, at)
	if msg.Referral != nil {
		candidate.CampaignID = msg.Referral.SourceID
		candidate.CtwaClid = msg.Referral.CtwaClid
	}

	unlock := uc.locks.Lock(phone)
	defer unlock()

	session, created, err := uc.Repo.FindOrCreate(ctx, candidate)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to open chat session", Err: err}
	}
	if created {
		log.Printf("💬 [CHAT] Nova sessão %s (%s)", session.ID, session.Source)
	}

	message := entity.NewChatMessage(session.ID, entity.DirectionInbound, msg.Body, msg.ExternalID, at)
	if err := uc.Repo.AppendMessage(ctx, message); err != nil {
		if errors.Is(err, entity.ErrDuplicate) {
			log.Printf("💬 [CHAT] Mensagem %s repetida, ignorada", msg.ExternalID)
			return session, nil
		}
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to store message", Err: err}
	}

	session.MessageCount++
	if at.After(session.LastMessageAt) {
		session.LastMessageAt = at
	}
	return session, nil
}

// Reply sends text to the contact. The first reply on a new session moves it
// to contacted.
func (uc *ChatSessions) Reply(ctx context.Context, id, text string) (*entity.ChatSession, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ValidationErrors{{"text", "is required"}}
	}

	unlock := uc.locks.Lock(id)
	defer unlock()

	session, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	externalID, err := uc.Channel.SendText(ctx, session.Phone, text)
	if err != nil {
		return nil, &NetworkError{Op: "send whatsapp reply", Err: err}
	}

	now := time.Now()
	message := entity.NewChatMessage(session.ID, entity.DirectionOutbound, text, externalID, now)
	if err := uc.Repo.AppendMessage(ctx, message); err != nil && !errors.Is(err, entity.ErrDuplicate) {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to store reply", Err: err}
	}
	session.MessageCount++
	session.LastMessageAt = now

	if session.Status == entity.ChatStatusNew {
		if err := uc.persist(ctx, session, entity.ChatStatusContacted, entity.ChatSessionUpdate{}); err != nil &&
			!errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
	}
	return session, nil
}

func (uc *ChatSessions) MarkLead(ctx context.Context, id string) (*entity.ChatSession, error) {
	unlock := uc.locks.Lock(id)
	defer unlock()

	session, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransitionChat(session.Status, entity.ChatStatusLead) {
		return nil, &TransitionError{Entity: "chat_session", ID: id, From: string(session.Status), Command: "mark_lead"}
	}
	if err := uc.persist(ctx, session, entity.ChatStatusLead, entity.ChatSessionUpdate{}); err != nil {
		return nil, err
	}
	return session, nil
}

// Qualify records the contact's e-mail and reports the qualification. It is
// the only way a session can later be converted.
func (uc *ChatSessions) Qualify(ctx context.Context, id string, info ContactInfo) (*entity.ChatSession, error) {
	unlock := uc.locks.Lock(id)
	defer unlock()

	session, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if errs := ValidateContactInfo(session.Source, info); len(errs) > 0 {
		return nil, toError(errs)
	}
	if !entity.CanTransitionChat(session.Status, entity.ChatStatusQualified) {
		return nil, &TransitionError{Entity: "chat_session", ID: id, From: string(session.Status), Command: "qualify"}
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))
	name := strings.TrimSpace(info.Name)

	ev := uc.event(session, metacapi.EventQualifiedLead, nil)
	ev.Email = email
	if err := uc.Sink.Send(ctx, ev); err != nil {
		return nil, &NetworkError{Op: "send qualification event", Err: err}
	}

	upd := entity.ChatSessionUpdate{Email: email, ContactName: name}
	if err := uc.persist(ctx, session, entity.ChatStatusQualified, upd); err != nil {
		return nil, err
	}
	session.Email = email
	if name != "" {
		session.ContactName = name
	}
	return session, nil
}

func (uc *ChatSessions) Convert(ctx context.Context, id string, amount *float64) (*entity.ChatSession, error) {
	if errs := ValidateAmount(amount); len(errs) > 0 {
		return nil, toError(errs)
	}

	unlock := uc.locks.Lock(id)
	defer unlock()

	session, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransitionChat(session.Status, entity.ChatStatusConverted) {
		return nil, &TransitionError{Entity: "chat_session", ID: id, From: string(session.Status), Command: "convert"}
	}

	if err := uc.Sink.Send(ctx, uc.event(session, metacapi.EventPurchase, amount)); err != nil {
		return nil, &NetworkError{Op: "send purchase event", Err: err}
	}

	if err := uc.persist(ctx, session, entity.ChatStatusConverted, entity.ChatSessionUpdate{ConversionValue: amount}); err != nil {
		return nil, err
	}
	session.ConversionValue = amount
	return session, nil
}

func (uc *ChatSessions) List(ctx context.Context, filter entity.ChatSessionFilter) ([]*entity.ChatSession, error) {
	filter.Limit = clampLimit(filter.Limit)
	sessions, err := uc.Repo.List(ctx, filter)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to list chat sessions", Err: err}
	}
	return sessions, nil
}

func (uc *ChatSessions) Details(ctx context.Context, id string) (*SessionDetails, error) {
	session, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := uc.Repo.Messages(ctx, id)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load messages", Err: err}
	}
	return &SessionDetails{Session: session, Messages: messages}, nil
}

func (uc *ChatSessions) load(ctx context.Context, id string) (*entity.ChatSession, error) {
	session, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, &NotFoundError{Entity: "chat_session", ID: id}
		}
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load chat session", Err: err}
	}
	return session, nil
}

// persist writes the new status with a compare-and-set on the one we read
// and updates session in place.
func (uc *ChatSessions) persist(ctx context.Context, session *entity.ChatSession, to entity.ChatSessionStatus, upd entity.ChatSessionUpdate) error {
	from := session.Status
	if err := uc.Repo.UpdateStatus(ctx, session.ID, from, to, upd); err != nil {
		if errors.Is(err, entity.ErrStaleStatus) {
			return &TransitionError{Entity: "chat_session", ID: session.ID, From: string(from), Command: string(to)}
		}
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to persist chat session status", Err: err}
	}
	session.Status = to
	uc.Observer.OnTransition("chat_session", session.ID, string(from), string(to))
	return nil
}

func (uc *ChatSessions) event(session *entity.ChatSession, name string, amount *float64) metacapi.Event {
	ev := metacapi.Event{
		ID:         eventID(session.ID, name),
		Name:       name,
		Time:       time.Now(),
		Email:      session.Email,
		Phone:      session.Phone,
		Value:      amount,
		LeadID:     session.ID,
		CampaignID: session.CampaignID,
		CtwaClid:   session.CtwaClid,
	}
	if amount != nil {
		ev.Currency = uc.Currency
	}
	return ev
}
