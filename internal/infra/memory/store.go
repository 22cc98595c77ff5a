// Package memory is an in-process entity store. It backs single-instance
// development runs and the use case tests, and publishes every committed
// write to subscribers.
package memory

import (
	"sync"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

// Change describes one committed write.
type Change struct {
	Kind   string // lead, chat_session, order, subscription, settings
	ID     string
	Status string
}

type Store struct {
	mu sync.RWMutex

	leads         map[string]entity.Lead
	sessions      map[string]entity.ChatSession
	sessionPhones map[string]string
	messages      map[string][]entity.ChatMessage
	externalIDs   map[string]struct{}
	plans         map[string]entity.Plan
	coupons       map[string]entity.Coupon
	orders        map[string]entity.Order
	subscriptions map[string]entity.Subscription // by account id
	accounts      map[string]entity.Account
	settings      *entity.IntegrationSettings

	subMu       sync.RWMutex
	subscribers []func(Change)
}

func NewStore() *Store {
	return &Store{
		leads:         make(map[string]entity.Lead),
		sessions:      make(map[string]entity.ChatSession),
		sessionPhones: make(map[string]string),
		messages:      make(map[string][]entity.ChatMessage),
		externalIDs:   make(map[string]struct{}),
		plans:         make(map[string]entity.Plan),
		coupons:       make(map[string]entity.Coupon),
		orders:        make(map[string]entity.Order),
		subscriptions: make(map[string]entity.Subscription),
		accounts:      make(map[string]entity.Account),
	}
}

// Subscribe registers fn for every later change. fn runs synchronously
// after the write lock is released and must not block.
func (s *Store) Subscribe(fn func(Change)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) publish(c Change) {
	s.subMu.RLock()
	subs := s.subscribers
	s.subMu.RUnlock()
	for _, fn := range subs {
		fn(c)
	}
}

// Repositories returns typed views over the store.
func (s *Store) Leads() *LeadRepository                 { return &LeadRepository{s} }
func (s *Store) ChatSessions() *ChatSessionRepository   { return &ChatSessionRepository{s} }
func (s *Store) Plans() *PlanRepository                 { return &PlanRepository{s} }
func (s *Store) Coupons() *CouponRepository             { return &CouponRepository{s} }
func (s *Store) Orders() *OrderRepository               { return &OrderRepository{s} }
func (s *Store) Subscriptions() *SubscriptionRepository { return &SubscriptionRepository{s} }
func (s *Store) Accounts() *AccountRepository           { return &AccountRepository{s} }
func (s *Store) Settings() *SettingsRepository          { return &SettingsRepository{s} }
