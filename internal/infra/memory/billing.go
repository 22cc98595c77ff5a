package memory

import (
	"context"
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type PlanRepository struct{ s *Store }

// Save inserts or replaces a plan. Used for seeding.
func (r *PlanRepository) Save(plan *entity.Plan) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.plans[plan.ID] = *plan
}

func (r *PlanRepository) FindByID(_ context.Context, id string) (*entity.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	plan, ok := r.s.plans[id]
	if !ok {
		return nil, entity.ErrPlanNotFound
	}
	return &plan, nil
}

func (r *PlanRepository) List(_ context.Context) ([]*entity.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Plan, 0, len(r.s.plans))
	for _, p := range r.s.plans {
		plan := p
		out = append(out, &plan)
	}
	return out, nil
}

type CouponRepository struct{ s *Store }

func (r *CouponRepository) Save(coupon *entity.Coupon) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *coupon
	c.Code = entity.NormalizeCouponCode(c.Code)
	r.s.coupons[c.Code] = c
}

func (r *CouponRepository) FindByCode(_ context.Context, code string) (*entity.Coupon, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.coupons[entity.NormalizeCouponCode(code)]
	if !ok {
		return nil, entity.ErrCouponNotFound
	}
	return &c, nil
}

func (r *CouponRepository) IncrementRedemptions(_ context.Context, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	code = entity.NormalizeCouponCode(code)
	c, ok := r.s.coupons[code]
	if !ok {
		return entity.ErrCouponNotFound
	}
	c.Redemptions++
	r.s.coupons[code] = c
	return nil
}

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, order *entity.Order) error {
	r.s.mu.Lock()
	for _, o := range r.s.orders {
		if o.CorrelationToken == order.CorrelationToken {
			r.s.mu.Unlock()
			return entity.ErrDuplicate
		}
	}
	r.s.orders[order.ID] = *order
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "order", ID: order.ID, Status: string(order.Status)})
	return nil
}

func (r *OrderRepository) FindByToken(_ context.Context, token string) (*entity.Order, error) {
	return r.find(func(o *entity.Order) bool { return o.CorrelationToken == token })
}

func (r *OrderRepository) FindByGatewayOrderID(_ context.Context, gatewayOrderID string) (*entity.Order, error) {
	if gatewayOrderID == "" {
		return nil, entity.ErrOrderNotFound
	}
	return r.find(func(o *entity.Order) bool { return o.GatewayOrderID == gatewayOrderID })
}

func (r *OrderRepository) find(match func(*entity.Order) bool) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, o := range r.s.orders {
		if match(&o) {
			order := o
			return &order, nil
		}
	}
	return nil, entity.ErrOrderNotFound
}

func (r *OrderRepository) MarkVerified(_ context.Context, id, paymentID string, at time.Time) error {
	r.s.mu.Lock()
	o, ok := r.s.orders[id]
	if !ok {
		r.s.mu.Unlock()
		return entity.ErrOrderNotFound
	}
	if o.Status == entity.OrderVerified {
		r.s.mu.Unlock()
		return entity.ErrStaleStatus
	}
	o.Status = entity.OrderVerified
	o.PaymentID = paymentID
	o.VerifiedAt = &at
	o.UpdatedAt = at
	r.s.orders[id] = o
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "order", ID: id, Status: string(entity.OrderVerified)})
	return nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, from, to entity.OrderStatus) error {
	r.s.mu.Lock()
	o, ok := r.s.orders[id]
	if !ok {
		r.s.mu.Unlock()
		return entity.ErrOrderNotFound
	}
	if o.Status != from {
		r.s.mu.Unlock()
		return entity.ErrStaleStatus
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	if to != entity.OrderVerified {
		o.PaymentID = ""
		o.VerifiedAt = nil
	}
	r.s.orders[id] = o
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "order", ID: id, Status: string(to)})
	return nil
}

func (r *OrderRepository) ExpireOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.s.mu.Lock()
	var expired []string
	for id, o := range r.s.orders {
		if o.Status == entity.OrderCreated && o.CreatedAt.Before(cutoff) {
			o.Status = entity.OrderExpired
			o.UpdatedAt = time.Now()
			r.s.orders[id] = o
			expired = append(expired, id)
		}
	}
	r.s.mu.Unlock()

	for _, id := range expired {
		r.s.publish(Change{Kind: "order", ID: id, Status: string(entity.OrderExpired)})
	}
	return len(expired), nil
}

type SubscriptionRepository struct{ s *Store }

func (r *SubscriptionRepository) Upsert(_ context.Context, sub *entity.Subscription) error {
	r.s.mu.Lock()
	r.s.subscriptions[sub.AccountID] = *sub
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "subscription", ID: sub.ID, Status: sub.Status})
	return nil
}

func (r *SubscriptionRepository) FindByAccountID(_ context.Context, accountID string) (*entity.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.subscriptions[accountID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for account, sub := range r.s.subscriptions {
		if sub.ID == id {
			delete(r.s.subscriptions, account)
			return nil
		}
	}
	return entity.ErrNotFound
}

type AccountRepository struct{ s *Store }

func (r *AccountRepository) Save(account *entity.Account) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.accounts[account.ID] = *account
}

func (r *AccountRepository) FindByID(_ context.Context, id string) (*entity.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepository) UpdatePlan(_ context.Context, id, planID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return entity.ErrNotFound
	}
	a.PlanID = planID
	r.s.accounts[id] = a
	return nil
}

type SettingsRepository struct{ s *Store }

func (r *SettingsRepository) Get(_ context.Context) (*entity.IntegrationSettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if r.s.settings == nil {
		return nil, entity.ErrNotFound
	}
	s := *r.s.settings
	return &s, nil
}

func (r *SettingsRepository) Save(_ context.Context, settings *entity.IntegrationSettings) error {
	r.s.mu.Lock()
	s := *settings
	r.s.settings = &s
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "settings"})
	return nil
}
