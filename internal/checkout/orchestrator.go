package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

var (
	// ErrStaleCapture is returned for a capture that does not belong to the
	// order currently awaiting payment.
	ErrStaleCapture   = errors.New("capture does not match the pending order")
	ErrNoPendingOrder = errors.New("no order is awaiting capture")
)

const (
	DefaultVerifyTimeout = 30 * time.Second
	DefaultLockTTL       = 15 * time.Minute
)

type Config struct {
	Backend       Backend
	Widget        Widget
	Locker        Locker
	Notifier      Notifier
	Profile       ProfileRefresher
	VerifyTimeout time.Duration
	LockTTL       time.Duration
}

// Orchestrator runs one account's checkout: coupon, order, capture,
// verification and activation. Commands never overlap; a command issued
// while a step is in flight gets ErrCheckoutInProgress.
type Orchestrator struct {
	accountID string
	cfg       Config

	mu          sync.Mutex
	state       State
	planID      string
	coupon      *usecase.PricingBreakdown
	order       *usecase.CreateOrderOutput
	widget      *razorpay.CheckoutOptions
	sub         *entity.Subscription
	lastErr     error
	release     func()
	updatedAt   time.Time
	nextSubID   int
	subscribers map[int]func(Snapshot)
}

func NewOrchestrator(accountID string, cfg Config) *Orchestrator {
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = DefaultVerifyTimeout
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.Locker == nil {
		cfg.Locker = NewMemoryLocker()
	}
	return &Orchestrator{
		accountID:   accountID,
		cfg:         cfg,
		state:       StateIdle,
		updatedAt:   time.Now(),
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn for every state change and returns the func that
// removes it.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = fn
	return func() {
		o.mu.Lock()
		delete(o.subscribers, id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// ApplyCoupon validates code for planID and keeps the breakdown for the next
// order.
func (o *Orchestrator) ApplyCoupon(ctx context.Context, code, planID string) (Snapshot, error) {
	if err := o.begin(StateValidatingCoupon, planID); err != nil {
		return o.Snapshot(), err
	}

	breakdown, err := o.cfg.Backend.ValidateCoupon(ctx, code, planID)

	o.mu.Lock()
	if err != nil {
		o.coupon = nil
		o.fail(StateCouponError, err)
	} else {
		o.coupon = breakdown
		o.lastErr = nil
		o.setState(StateIdle)
	}
	return o.commit(err)
}

// RemoveCoupon drops the applied coupon. No network call.
func (o *Orchestrator) RemoveCoupon() (Snapshot, error) {
	o.mu.Lock()
	if o.state.InFlight() {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, usecase.ErrCheckoutInProgress
	}
	o.coupon = nil
	o.lastErr = nil
	o.setState(StateIdle)
	return o.commit(nil)
}

// Start creates a fresh order for planID and hands it to the payment widget.
// A zero-amount order is activated directly.
func (o *Orchestrator) Start(ctx context.Context, planID string) (Snapshot, error) {
	if strings.TrimSpace(planID) == "" {
		return o.Snapshot(), usecase.ValidationErrors{{Field: "plan_id", Message: "is required"}}
	}
	if err := o.begin(StateCreatingOrder, planID); err != nil {
		return o.Snapshot(), err
	}

	release, ok, err := o.cfg.Locker.TryLock(ctx, lockKey(o.accountID), o.cfg.LockTTL)
	if err == nil && !ok {
		err = usecase.ErrCheckoutInProgress
	}
	if err != nil {
		o.mu.Lock()
		o.fail(StateOrderError, err)
		return o.commit(err)
	}

	o.mu.Lock()
	o.release = release
	input := usecase.CreateOrderInput{AccountID: o.accountID, PlanID: planID}
	if o.coupon != nil {
		input.CouponCode = o.coupon.CouponCode
	}
	o.mu.Unlock()

	out, err := o.cfg.Backend.CreateOrder(ctx, input)
	if err != nil {
		o.mu.Lock()
		o.fail(StateOrderError, err)
		return o.commit(err)
	}

	if out.IsFree() {
		return o.activateFree(ctx, out)
	}

	if err := o.cfg.Widget.Load(ctx); err != nil {
		// the order is left to expire server-side
		log.Printf("⚠️ [CHECKOUT] Widget indisponível para %s, pedido %s abandonado: %v", o.accountID, out.OrderID, err)
		gwErr := &usecase.GatewayUnavailableError{Err: err}
		o.mu.Lock()
		o.fail(StateOrderError, gwErr)
		return o.commit(gwErr)
	}

	description := planID
	if out.Plan != nil {
		description = out.Plan.Name
	}
	opts := o.cfg.Widget.Options(out.OrderID, out.Amount, out.Currency, description)

	o.mu.Lock()
	o.order = out
	o.widget = &opts
	o.lastErr = nil
	o.setState(StateAwaitingCapture)
	log.Printf("💳 [CHECKOUT] Pedido %s aguardando captura (%s)", out.OrderID, o.accountID)
	return o.commit(nil)
}

func (o *Orchestrator) activateFree(ctx context.Context, out *usecase.CreateOrderOutput) (Snapshot, error) {
	o.mu.Lock()
	o.order = out
	planID := o.planID
	o.setState(StateVerifying)
	o.mu.Unlock()
	o.emit()

	res, err := o.verify(ctx, func(vctx context.Context) (*usecase.VerifyPaymentOutput, error) {
		return o.cfg.Backend.ActivateFree(vctx, usecase.ActivateFreeInput{
			AccountID:        o.accountID,
			CorrelationToken: out.CorrelationToken,
			PlanID:           planID,
		})
	})
	return o.settle(ctx, res, err)
}

// HandleCapture submits the widget's success payload for verification.
func (o *Orchestrator) HandleCapture(ctx context.Context, capture CaptureResult) (Snapshot, error) {
	o.mu.Lock()
	if o.state != StateAwaitingCapture || o.order == nil {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, ErrNoPendingOrder
	}
	if capture.OrderID != o.order.OrderID {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		log.Printf("⚠️ [CHECKOUT] Captura %s ignorada, pedido atual é %s", capture.OrderID, o.order.OrderID)
		return snap, ErrStaleCapture
	}
	order := o.order
	planID := o.planID
	o.setState(StateVerifying)
	o.mu.Unlock()
	o.emit()

	res, err := o.verify(ctx, func(vctx context.Context) (*usecase.VerifyPaymentOutput, error) {
		return o.cfg.Backend.VerifyPayment(vctx, usecase.VerifyPaymentInput{
			AccountID:        o.accountID,
			OrderID:          capture.OrderID,
			PaymentID:        capture.PaymentID,
			Signature:        capture.Signature,
			CorrelationToken: order.CorrelationToken,
			PlanID:           planID,
			AutoRenew:        capture.AutoRenew,
		})
	})
	return o.settle(ctx, res, err)
}

type verifyResult struct {
	out *usecase.VerifyPaymentOutput
	err error
}

// verify bounds call by VerifyTimeout even when the backend ignores its
// context. A result arriving after the deadline is dropped; the gateway
// webhook settles that payment.
func (o *Orchestrator) verify(ctx context.Context, call func(context.Context) (*usecase.VerifyPaymentOutput, error)) (*usecase.VerifyPaymentOutput, error) {
	vctx, cancel := context.WithTimeout(ctx, o.cfg.VerifyTimeout)
	defer cancel()

	done := make(chan verifyResult, 1)
	go func() {
		out, err := call(vctx)
		done <- verifyResult{out, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(vctx.Err(), context.DeadlineExceeded) {
			r.err = &usecase.VerificationError{Reason: "tempo de verificação esgotado", Err: r.err}
		}
		return r.out, r.err
	case <-vctx.Done():
		log.Printf("⏱️ [CHECKOUT] Verificação de %s sem resposta após %s", o.accountID, o.cfg.VerifyTimeout)
		return nil, &usecase.VerificationError{Reason: "tempo de verificação esgotado", Err: vctx.Err()}
	}
}

// settle closes the flow after verification either way.
func (o *Orchestrator) settle(ctx context.Context, res *usecase.VerifyPaymentOutput, err error) (Snapshot, error) {
	if err == nil && (res == nil || !res.Success) {
		err = &usecase.VerificationError{Reason: "pagamento não confirmado"}
	}
	if err != nil {
		o.mu.Lock()
		o.fail(StateVerificationError, err)
		return o.commit(err)
	}

	sub := res.Subscription
	if o.cfg.Profile != nil {
		fresh, rerr := o.cfg.Profile.Refresh(ctx, o.accountID)
		if rerr != nil {
			log.Printf("⚠️ [CHECKOUT] Falha ao atualizar perfil de %s: %v", o.accountID, rerr)
		} else if fresh != nil {
			sub = fresh
		}
	}

	o.mu.Lock()
	o.sub = sub
	o.coupon = nil
	o.order = nil
	o.widget = nil
	o.lastErr = nil
	o.releaseLocked()
	o.setState(StateActivated)
	log.Printf("✅ [CHECKOUT] Conta %s ativada", o.accountID)
	return o.commit(nil)
}

// HandleGatewayFailure records a failure reported by the widget. Nothing is
// verified; the payer may retry with a new order.
func (o *Orchestrator) HandleGatewayFailure(reason string) Snapshot {
	o.mu.Lock()
	log.Printf("💳 [CHECKOUT] Falha no gateway para %s: %s", o.accountID, reason)
	if o.state != StateAwaitingCapture {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap
	}
	o.dropOrderLocked()
	o.setState(StateIdle)
	snap, _ := o.commit(nil)
	return snap
}

// Cancel stops waiting for the current capture. The order itself is not
// touched; if the payment still lands the webhook settles it.
func (o *Orchestrator) Cancel() Snapshot {
	o.mu.Lock()
	if o.state != StateAwaitingCapture {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap
	}
	o.dropOrderLocked()
	o.lastErr = nil
	o.setState(StateIdle)
	snap, _ := o.commit(nil)
	return snap
}

// begin moves to an in-flight state or reports that one is running.
func (o *Orchestrator) begin(next State, planID string) error {
	o.mu.Lock()
	if o.state.InFlight() {
		o.mu.Unlock()
		return usecase.ErrCheckoutInProgress
	}
	o.planID = planID
	o.lastErr = nil
	o.sub = nil
	o.setState(next)
	o.mu.Unlock()
	o.emit()
	return nil
}

// fail must be called with mu held.
func (o *Orchestrator) fail(state State, err error) {
	o.lastErr = err
	o.dropOrderLocked()
	o.setState(state)
	log.Printf("❌ [CHECKOUT] %s (%s): %v", state, o.accountID, err)
}

func (o *Orchestrator) dropOrderLocked() {
	o.order = nil
	o.widget = nil
	o.releaseLocked()
}

func (o *Orchestrator) releaseLocked() {
	if o.release != nil {
		o.release()
		o.release = nil
	}
}

func (o *Orchestrator) setState(s State) {
	o.state = s
	o.updatedAt = time.Now()
}

// commit unlocks mu, publishes the new state and returns it with err.
func (o *Orchestrator) commit(err error) (Snapshot, error) {
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.emit()

	if o.cfg.Notifier != nil && (snap.State.IsError() || snap.State == StateActivated) {
		o.cfg.Notifier.Notify(o.accountID, string(snap.State), err)
	}
	return snap, err
}

func (o *Orchestrator) emit() {
	o.mu.Lock()
	snap := o.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		AccountID:     o.accountID,
		State:         o.state,
		PlanID:        o.planID,
		AppliedCoupon: o.coupon,
		Widget:        o.widget,
		Subscription:  o.sub,
		UpdatedAt:     o.updatedAt,
	}
	if o.order != nil {
		snap.Order = &OrderRef{ID: o.order.OrderID, Amount: o.order.Amount, Currency: o.order.Currency}
	}
	if o.lastErr != nil {
		snap.Error = o.lastErr.Error()
	}
	return snap
}

func lockKey(accountID string) string {
	return fmt.Sprintf("checkout:%s", accountID)
}
