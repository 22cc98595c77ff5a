package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
	"github.com/xavierca1/ligue-growth/internal/infra/queue"
)

func (f *billingFixture) expectGatewayOrder(id string) {
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(&razorpay.Order{ID: id}, nil).Once()
}

func TestCreateOrderMintsDistinctTokens(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	f.expectGatewayOrder("order_1")
	f.expectGatewayOrder("order_2")

	first, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	require.NoError(t, err)
	second, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	require.NoError(t, err)

	assert.Equal(t, "order_1", first.OrderID)
	assert.Equal(t, "order_2", second.OrderID)
	assert.NotEqual(t, first.CorrelationToken, second.CorrelationToken)
	assert.Nil(t, first.CouponApplied)
	assert.Equal(t, int64(4999), first.Amount)
}

func TestCreateOrderWithCoupon(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	f.gateway.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in razorpay.CreateOrderInput) bool {
		return in.Amount == 3999 && in.Currency == "USD" && in.Notes["correlation_token"] != ""
	})).Return(&razorpay.Order{ID: "order_1"}, nil).Once()

	out, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro", CouponCode: "tenoff"})
	require.NoError(t, err)

	assert.Equal(t, int64(3999), out.Amount)
	require.NotNil(t, out.CouponApplied)
	assert.Equal(t, Money(1000), out.CouponApplied.DiscountAmount)

	stored, err := f.store.Orders().FindByToken(ctx, out.CorrelationToken)
	require.NoError(t, err)
	assert.Equal(t, "TENOFF", stored.CouponCode)
	assert.Equal(t, entity.OrderCreated, stored.Status)

	// redemption waits for payment
	coupon, _ := f.store.Coupons().FindByCode(ctx, "TENOFF")
	assert.Equal(t, 0, coupon.Redemptions)
	f.gateway.AssertExpectations(t)
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	f := newBillingFixture()
	f.gateway.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, errors.New("503"))

	_, err := f.create.Execute(context.Background(), CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	var ne *NetworkError
	assert.ErrorAs(t, err, &ne)
}

// TestFreePlanNeverCallsGateway - plano gratuito ativa sem gateway
func TestFreePlanNeverCallsGateway(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()

	out, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-2", PlanID: "free"})
	require.NoError(t, err)
	assert.True(t, out.IsFree())

	res, err := f.verify.ActivateFree(ctx, ActivateFreeInput{AccountID: "acc-2", CorrelationToken: out.CorrelationToken, PlanID: "free"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "free", res.Subscription.PlanID)

	// repeated call is a no-op success
	res, err = f.verify.ActivateFree(ctx, ActivateFreeInput{AccountID: "acc-2", CorrelationToken: out.CorrelationToken, PlanID: "free"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "VerifyPaymentSignature", mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNumberOfCalls(t, "PublishActivation", 1)
}

func TestVerifyPaymentActivatesPlan(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	f.expectGatewayOrder("order_1")
	f.gateway.On("VerifyPaymentSignature", "order_1", "pay_1", "sig").Return(true)

	out, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro", CouponCode: "TENOFF"})
	require.NoError(t, err)

	res, err := f.verify.Execute(ctx, VerifyPaymentInput{
		AccountID:        "acc-1",
		OrderID:          "order_1",
		PaymentID:        "pay_1",
		Signature:        "sig",
		CorrelationToken: out.CorrelationToken,
		PlanID:           "pro",
		AutoRenew:        true,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(3999), res.Subscription.Amount)
	assert.True(t, res.Subscription.AutoRenew)

	account, _ := f.store.Accounts().FindByID(ctx, "acc-1")
	assert.Equal(t, "pro", account.PlanID)

	order, _ := f.store.Orders().FindByToken(ctx, out.CorrelationToken)
	assert.Equal(t, entity.OrderVerified, order.Status)
	assert.Equal(t, "pay_1", order.PaymentID)

	coupon, _ := f.store.Coupons().FindByCode(ctx, "TENOFF")
	assert.Equal(t, 1, coupon.Redemptions)

	f.queue.AssertCalled(t, "PublishActivation", mock.Anything, mock.MatchedBy(func(p queue.ActivationPayload) bool {
		return p.AccountID == "acc-1" && p.PlanName == "Pro" && p.Amount == 3999 && p.Origin == "CHECKOUT"
	}))

	t.Run("repeated callback is idempotent", func(t *testing.T) {
		again, err := f.verify.Execute(ctx, VerifyPaymentInput{
			AccountID: "acc-1", OrderID: "order_1", PaymentID: "pay_1", Signature: "sig",
			CorrelationToken: out.CorrelationToken, PlanID: "pro",
		})
		require.NoError(t, err)
		assert.True(t, again.Success)
		f.queue.AssertNumberOfCalls(t, "PublishActivation", 1)
	})

	t.Run("token replayed with another payment", func(t *testing.T) {
		_, err := f.verify.Execute(ctx, VerifyPaymentInput{
			AccountID: "acc-1", OrderID: "order_1", PaymentID: "pay_2", Signature: "sig",
			CorrelationToken: out.CorrelationToken, PlanID: "pro",
		})
		var ve *VerificationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestVerifyPaymentRejectsForeignToken(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	f.expectGatewayOrder("order_1")
	f.expectGatewayOrder("order_2")

	first, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	require.NoError(t, err)
	_, err = f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	require.NoError(t, err)

	// token of the first order cannot settle the second one
	_, err = f.verify.Execute(ctx, VerifyPaymentInput{
		AccountID: "acc-1", OrderID: "order_2", PaymentID: "pay_1", Signature: "sig",
		CorrelationToken: first.CorrelationToken, PlanID: "pro",
	})
	var ve *VerificationError
	require.ErrorAs(t, err, &ve)

	// nor can another account use it
	_, err = f.verify.Execute(ctx, VerifyPaymentInput{
		AccountID: "acc-2", OrderID: "order_1", PaymentID: "pay_1", Signature: "sig",
		CorrelationToken: first.CorrelationToken, PlanID: "pro",
	})
	require.ErrorAs(t, err, &ve)

	_, err = f.verify.Execute(ctx, VerifyPaymentInput{
		AccountID: "acc-1", OrderID: "order_1", PaymentID: "pay_1", Signature: "sig",
		CorrelationToken: "unknown", PlanID: "pro",
	})
	require.ErrorAs(t, err, &ve)

	f.gateway.AssertNotCalled(t, "VerifyPaymentSignature", mock.Anything, mock.Anything, mock.Anything)
	account, _ := f.store.Accounts().FindByID(ctx, "acc-1")
	assert.Equal(t, "free", account.PlanID)
}

func TestVerifyPaymentBadSignatureFailsOrder(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	f.expectGatewayOrder("order_1")
	f.gateway.On("VerifyPaymentSignature", "order_1", "pay_1", "forged").Return(false)

	out, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	require.NoError(t, err)

	input := VerifyPaymentInput{
		AccountID: "acc-1", OrderID: "order_1", PaymentID: "pay_1", Signature: "forged",
		CorrelationToken: out.CorrelationToken, PlanID: "pro",
	}
	_, err = f.verify.Execute(ctx, input)
	var ve *VerificationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "assinatura inválida", ve.Reason)

	order, _ := f.store.Orders().FindByToken(ctx, out.CorrelationToken)
	assert.Equal(t, entity.OrderFailed, order.Status)

	// the failed order stays failed
	_, err = f.verify.Execute(ctx, input)
	require.ErrorAs(t, err, &ve)
	f.gateway.AssertNumberOfCalls(t, "VerifyPaymentSignature", 1)
	f.queue.AssertNotCalled(t, "PublishActivation", mock.Anything, mock.Anything)
}

func TestVerifyPaymentRequiresFields(t *testing.T) {
	f := newBillingFixture()
	_, err := f.verify.Execute(context.Background(), VerifyPaymentInput{AccountID: "acc-1"})

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
}

func capturedEvent(orderID, paymentID string, amount int64) razorpay.WebhookEvent {
	var ev razorpay.WebhookEvent
	ev.Event = EventPaymentCaptured
	ev.Payload.Payment.Entity = razorpay.Payment{ID: paymentID, OrderID: orderID, Amount: amount, Status: "captured"}
	return ev
}

func TestReconcileCapturedActivatesOnce(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	f.expectGatewayOrder("order_1")

	out, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	require.NoError(t, err)

	require.NoError(t, f.reconcile.Execute(ctx, capturedEvent("order_1", "pay_1", 4999)))
	require.NoError(t, f.reconcile.Execute(ctx, capturedEvent("order_1", "pay_1", 4999)))

	order, _ := f.store.Orders().FindByToken(ctx, out.CorrelationToken)
	assert.Equal(t, entity.OrderVerified, order.Status)
	f.queue.AssertNumberOfCalls(t, "PublishActivation", 1)
	f.queue.AssertCalled(t, "PublishActivation", mock.Anything, mock.MatchedBy(func(p queue.ActivationPayload) bool {
		return p.Origin == "WEBHOOK_RAZORPAY"
	}))

	// the browser callback arriving late is still a success
	f.gateway.On("VerifyPaymentSignature", "order_1", "pay_1", "sig").Return(true)
	res, err := f.verify.Execute(ctx, VerifyPaymentInput{
		AccountID: "acc-1", OrderID: "order_1", PaymentID: "pay_1", Signature: "sig",
		CorrelationToken: out.CorrelationToken, PlanID: "pro",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	f.queue.AssertNumberOfCalls(t, "PublishActivation", 1)
}

func TestReconcileAmountMismatch(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	f.expectGatewayOrder("order_1")
	out, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	require.NoError(t, err)

	err = f.reconcile.Execute(ctx, capturedEvent("order_1", "pay_1", 100))
	var ve *VerificationError
	require.ErrorAs(t, err, &ve)

	order, _ := f.store.Orders().FindByToken(ctx, out.CorrelationToken)
	assert.Equal(t, entity.OrderCreated, order.Status)
}

func TestReconcileIgnoresUnknownAndFailed(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	observer := &countingObserver{}
	f.activator.Observer = observer

	assert.NoError(t, f.reconcile.Execute(ctx, capturedEvent("order_x", "pay_1", 4999)))

	failed := capturedEvent("order_x", "pay_2", 4999)
	failed.Event = EventPaymentFailed
	assert.NoError(t, f.reconcile.Execute(ctx, failed))

	assert.Equal(t, []string{"payment:->failed"}, observer.transitions)
	f.queue.AssertNotCalled(t, "PublishActivation", mock.Anything, mock.Anything)
}

func TestActivationRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture()
	f.expectGatewayOrder("order_1")
	out, err := f.create.Execute(ctx, CreateOrderInput{AccountID: "acc-1", PlanID: "pro"})
	require.NoError(t, err)

	order, _ := f.store.Orders().FindByToken(ctx, out.CorrelationToken)
	f.activator.Accounts = failingAccounts{f.store.Accounts()}

	_, err = f.activator.Execute(ctx, ActivateSubscriptionInput{Order: order, PaymentID: "pay_1", Origin: "CHECKOUT"})
	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "ACTIVATION_FAILED", te.Code)

	stored, _ := f.store.Orders().FindByToken(ctx, out.CorrelationToken)
	assert.Equal(t, entity.OrderCreated, stored.Status)
	_, err = f.store.Subscriptions().FindByAccountID(ctx, "acc-1")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	f.queue.AssertNotCalled(t, "PublishActivation", mock.Anything, mock.Anything)
}

type failingAccounts struct {
	entity.AccountRepositoryInterface
}

func (failingAccounts) UpdatePlan(context.Context, string, string) error {
	return errors.New("connection reset")
}

// TestCreateOrderUnknownAccount - conta inexistente não abre pedido no gateway
func TestCreateOrderUnknownAccount(t *testing.T) {
	f := newBillingFixture()

	_, err := f.create.Execute(context.Background(), CreateOrderInput{AccountID: "ghost", PlanID: "pro"})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "account", nf.Entity)
	f.gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

// tokenLookups counts FindByToken calls that reach storage.
type tokenLookups struct {
	entity.OrderRepositoryInterface
	calls int
}

func (r *tokenLookups) FindByToken(ctx context.Context, token string) (*entity.Order, error) {
	r.calls++
	return r.OrderRepositoryInterface.FindByToken(ctx, token)
}

// TestVerifyPaymentMalformedToken - token que não é UUID falha a verificação
// sem consultar o banco
func TestVerifyPaymentMalformedToken(t *testing.T) {
	f := newBillingFixture()
	orders := &tokenLookups{OrderRepositoryInterface: f.store.Orders()}
	verify := NewVerifyPaymentUseCase(orders, f.gateway, f.activator)

	_, err := verify.Execute(context.Background(), VerifyPaymentInput{
		AccountID: "acc-1", OrderID: "order_1", PaymentID: "pay_1", Signature: "sig",
		CorrelationToken: "not-a-uuid", PlanID: "pro",
	})
	var ve *VerificationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "token desconhecido", ve.Reason)
	assert.Zero(t, orders.calls)

	_, err = verify.ActivateFree(context.Background(), ActivateFreeInput{
		AccountID: "acc-1", CorrelationToken: "'; drop table orders; --", PlanID: "free",
	})
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, orders.calls)
}
