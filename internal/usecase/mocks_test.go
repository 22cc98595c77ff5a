package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/metacapi"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
	"github.com/xavierca1/ligue-growth/internal/infra/memory"
	"github.com/xavierca1/ligue-growth/internal/infra/queue"
)

type MockConversionSink struct {
	mock.Mock
}

func (m *MockConversionSink) Send(ctx context.Context, event metacapi.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingSink keeps every event it accepts.
type recordingSink struct {
	mu     sync.Mutex
	events []metacapi.Event
}

func (s *recordingSink) Send(_ context.Context, event metacapi.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) named(name string) []metacapi.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []metacapi.Event
	for _, e := range s.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type MockChatChannel struct {
	mock.Mock
}

func (m *MockChatChannel) SendText(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, input razorpay.CreateOrderInput) (*razorpay.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*razorpay.Order), args.Error(1)
}

func (m *MockPaymentGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	args := m.Called(orderID, paymentID, signature)
	return args.Bool(0)
}

type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishActivation(ctx context.Context, payload queue.ActivationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type countingObserver struct {
	mu          sync.Mutex
	transitions []string
}

func (o *countingObserver) OnTransition(kind, id, from, to string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, kind+":"+from+"->"+to)
}

// billingFixture wires the order flow over an in-memory store.
type billingFixture struct {
	store     *memory.Store
	gateway   *MockPaymentGateway
	queue     *MockQueueProducer
	pricing   *PricingEngine
	create    *CreateOrderUseCase
	activator *ActivateSubscriptionUseCase
	verify    *VerifyPaymentUseCase
	reconcile *ReconcilePaymentUseCase
}

func newBillingFixture() *billingFixture {
	store := memory.NewStore()
	store.Plans().Save(&entity.Plan{ID: "pro", Name: "Pro", PriceCents: 4999, Currency: "USD", IntervalMonths: 1})
	store.Plans().Save(&entity.Plan{ID: "free", Name: "Free", PriceCents: 0, Currency: "USD", IntervalMonths: 1})
	store.Coupons().Save(&entity.Coupon{Code: "TENOFF", DiscountType: entity.DiscountFixed, DiscountValue: 10, Active: true})
	store.Accounts().Save(&entity.Account{ID: "acc-1", Name: "Ana", Email: "ana@example.com", Phone: "+5511999990000", PlanID: "free"})
	store.Accounts().Save(&entity.Account{ID: "acc-2", Name: "Bia", Email: "bia@example.com"})

	gateway := new(MockPaymentGateway)
	q := new(MockQueueProducer)
	q.On("PublishActivation", mock.Anything, mock.Anything).Return(nil)

	pricing := NewPricingEngine(store.Plans(), store.Coupons())
	activator := NewActivateSubscriptionUseCase(store.Orders(), store.Subscriptions(), store.Accounts(), store.Plans(), store.Coupons(), q, nil)

	return &billingFixture{
		store:     store,
		gateway:   gateway,
		queue:     q,
		pricing:   pricing,
		create:    NewCreateOrderUseCase(pricing, store.Orders(), store.Accounts(), gateway),
		activator: activator,
		verify:    NewVerifyPaymentUseCase(store.Orders(), gateway, activator),
		reconcile: NewReconcilePaymentUseCase(store.Orders(), activator),
	}
}
