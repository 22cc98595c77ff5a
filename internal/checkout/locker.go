package checkout

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is a single-process Locker for development and tests.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	seq   uint64
	clock func() time.Time
}

type memoryLease struct {
	id        uint64
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryLease), clock: time.Now}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if lease, ok := l.held[key]; ok && now.Before(lease.expiresAt) {
		return nil, false, nil
	}

	l.seq++
	id := l.seq
	l.held[key] = memoryLease{id: id, expiresAt: now.Add(ttl)}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// an expired lease may already belong to someone else
		if lease, ok := l.held[key]; ok && lease.id == id {
			delete(l.held, key)
		}
	}, true, nil
}
