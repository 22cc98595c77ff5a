package worker

import (
	"context"
	"log"
	"time"
)

// OrderExpirer is the slice of the order repository the worker needs.
type OrderExpirer interface {
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// OrderExpirationWorker marks created orders that were never paid as
// expired once they are older than the order TTL.
type OrderExpirationWorker struct {
	orders       OrderExpirer
	ttl          time.Duration
	tickInterval time.Duration
	now          func() time.Time
	onExpired    func(n int)
}

func NewOrderExpirationWorker(orders OrderExpirer, ttl, tickInterval time.Duration) *OrderExpirationWorker {
	return &OrderExpirationWorker{
		orders:       orders,
		ttl:          ttl,
		tickInterval: tickInterval,
		now:          time.Now,
	}
}

// OnExpired registers a hook called after each sweep that expired orders.
func (w *OrderExpirationWorker) OnExpired(fn func(n int)) {
	w.onExpired = fn
}

func (w *OrderExpirationWorker) Start(ctx context.Context) {
	log.Printf("🕒 Order Expiration Worker iniciado (ttl=%s)", w.ttl)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Order Expiration Worker encerrado")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one expiration pass and returns how many orders it expired.
func (w *OrderExpirationWorker) Sweep(ctx context.Context) int {
	cutoff := w.now().Add(-w.ttl)
	n, err := w.orders.ExpireOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("❌ Erro ao expirar pedidos: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("✅ %d pedido(s) marcados como expired (criados antes de %s)", n, cutoff.Format(time.RFC3339))
		if w.onExpired != nil {
			w.onExpired(n)
		}
	}
	return n
}
