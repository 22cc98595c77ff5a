package checkout

import (
	"sync"
	"time"
)

const pruneEvery = time.Minute

// Registry keeps one orchestrator per account. Orchestrators that settled
// and stayed untouched for longer than the lock TTL are dropped.
//
// Orchestrator state lives in this process while the Locker may be shared.
// A checkout's commands must reach the instance that started it (sticky
// sessions by account); elsewhere a capture gets ErrNoPendingOrder and the
// payment is settled by the gateway webhook.
type Registry struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	items     map[string]*Orchestrator
	lastPrune time.Time
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Locker == nil {
		cfg.Locker = NewMemoryLocker()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	return &Registry{cfg: cfg, now: time.Now, items: make(map[string]*Orchestrator)}
}

func (r *Registry) For(accountID string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(accountID)

	o, ok := r.items[accountID]
	if !ok {
		o = NewOrchestrator(accountID, r.cfg)
		r.items[accountID] = o
	}
	return o
}

func (r *Registry) pruneLocked(keep string) {
	now := r.now()
	if now.Sub(r.lastPrune) < pruneEvery {
		return
	}
	r.lastPrune = now

	cutoff := now.Add(-r.cfg.LockTTL)
	for id, o := range r.items {
		if id != keep && o.idleSince(cutoff) {
			delete(r.items, id)
		}
	}
}

// idleSince reports whether o holds no order and has not changed since
// cutoff.
func (o *Orchestrator) idleSince(cutoff time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.InFlight() || o.state == StateAwaitingCapture {
		return false
	}
	return o.updatedAt.Before(cutoff)
}
