package memory

import (
	"context"
	"sort"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type ChatSessionRepository struct{ s *Store }

func (r *ChatSessionRepository) FindOrCreate(_ context.Context, session *entity.ChatSession) (*entity.ChatSession, bool, error) {
	r.s.mu.Lock()
	if id, ok := r.s.sessionPhones[session.Phone]; ok {
		existing := r.s.sessions[id]
		r.s.mu.Unlock()
		return &existing, false, nil
	}
	r.s.sessions[session.ID] = *session
	r.s.sessionPhones[session.Phone] = session.ID
	stored := *session
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "chat_session", ID: session.ID, Status: string(session.Status)})
	return &stored, true, nil
}

func (r *ChatSessionRepository) FindByID(_ context.Context, id string) (*entity.ChatSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &session, nil
}

func (r *ChatSessionRepository) List(_ context.Context, filter entity.ChatSessionFilter) ([]*entity.ChatSession, error) {
	r.s.mu.RLock()
	out := make([]*entity.ChatSession, 0)
	for _, cs := range r.s.sessions {
		if filter.Source != "" && cs.Source != filter.Source {
			continue
		}
		if filter.Status != "" && cs.Status != filter.Status {
			continue
		}
		session := cs
		out = append(out, &session)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *ChatSessionRepository) AppendMessage(_ context.Context, msg *entity.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[msg.SessionID]
	if !ok {
		return entity.ErrNotFound
	}
	if msg.ExternalID != "" {
		if _, seen := r.s.externalIDs[msg.ExternalID]; seen {
			return entity.ErrDuplicate
		}
		r.s.externalIDs[msg.ExternalID] = struct{}{}
	}

	r.s.messages[msg.SessionID] = append(r.s.messages[msg.SessionID], *msg)
	session.MessageCount++
	if msg.SentAt.After(session.LastMessageAt) {
		session.LastMessageAt = msg.SentAt
	}
	r.s.sessions[msg.SessionID] = session
	return nil
}

func (r *ChatSessionRepository) Messages(_ context.Context, sessionID string) ([]*entity.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored := r.s.messages[sessionID]
	out := make([]*entity.ChatMessage, 0, len(stored))
	for i := range stored {
		m := stored[i]
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (r *ChatSessionRepository) UpdateStatus(_ context.Context, id string, from, to entity.ChatSessionStatus, upd entity.ChatSessionUpdate) error {
	r.s.mu.Lock()
	session, ok := r.s.sessions[id]
	if !ok {
		r.s.mu.Unlock()
		return entity.ErrNotFound
	}
	if session.Status != from {
		r.s.mu.Unlock()
		return entity.ErrStaleStatus
	}
	session.Status = to
	if upd.Email != "" {
		session.Email = upd.Email
	}
	if upd.ContactName != "" {
		session.ContactName = upd.ContactName
	}
	if upd.ConversionValue != nil {
		v := *upd.ConversionValue
		session.ConversionValue = &v
	}
	r.s.sessions[id] = session
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "chat_session", ID: id, Status: string(to)})
	return nil
}
