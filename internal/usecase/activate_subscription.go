package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/queue"
)

type ActivateSubscriptionInput struct {
	Order     *entity.Order
	PaymentID string
	AutoRenew bool
	Origin    string // CHECKOUT, WEBHOOK_RAZORPAY, FREE
}

// ActivateSubscriptionUseCase is the single place that grants entitlement.
// Callers hold Locks for the order id while they check and settle it.
type ActivateSubscriptionUseCase struct {
	Orders   entity.OrderRepositoryInterface
	SubRepo  entity.SubscriptionRepository
	Accounts entity.AccountRepositoryInterface
	PlanRepo entity.PlanRepositoryInterface
	Coupons  entity.CouponRepositoryInterface
	Queue    QueueProducerInterface
	Observer TransitionObserver
	Locks    *KeyedMutex
}

func NewActivateSubscriptionUseCase(
	orders entity.OrderRepositoryInterface,
	subRepo entity.SubscriptionRepository,
	accounts entity.AccountRepositoryInterface,
	planRepo entity.PlanRepositoryInterface,
	coupons entity.CouponRepositoryInterface,
	queue QueueProducerInterface,
	observer TransitionObserver,
) *ActivateSubscriptionUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ActivateSubscriptionUseCase{
		Orders:   orders,
		SubRepo:  subRepo,
		Accounts: accounts,
		PlanRepo: planRepo,
		Coupons:  coupons,
		Queue:    queue,
		Observer: observer,
		Locks:    NewKeyedMutex(),
	}
}

func (uc *ActivateSubscriptionUseCase) Execute(ctx context.Context, input ActivateSubscriptionInput) (*entity.Subscription, error) {
	order := input.Order
	log.Printf("🔄 Iniciando ativação do pedido %s (conta %s)", order.ID, order.AccountID)

	plan, err := uc.PlanRepo.FindByID(ctx, order.PlanID)
	if err != nil {
		return nil, &TechnicalError{Code: "PLAN_NOT_FOUND", Message: "falha ao buscar plano", Err: err}
	}
	account, err := uc.Accounts.FindByID(ctx, order.AccountID)
	if err != nil {
		return nil, &TechnicalError{Code: "ACCOUNT_NOT_FOUND", Message: "falha ao buscar conta", Err: err}
	}
	previous, err := uc.SubRepo.FindByAccountID(ctx, account.ID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "falha ao buscar assinatura atual", Err: err}
	}

	sub := entity.NewSubscription(order, plan, input.AutoRenew)
	previousStatus := order.Status
	previousPlan := account.PlanID
	now := time.Now()

	txn := NewTransaction()

	txn.AddOperation("mark_order_verified", func(ctx context.Context) error {
		return uc.Orders.MarkVerified(ctx, order.ID, input.PaymentID, now)
	})
	txn.AddCompensation("revert_order_status", func(ctx context.Context) error {
		return uc.Orders.UpdateStatus(ctx, order.ID, entity.OrderVerified, previousStatus)
	})

	txn.AddOperation("upsert_subscription", func(ctx context.Context) error {
		return uc.SubRepo.Upsert(ctx, sub)
	})
	txn.AddCompensation("restore_subscription", func(ctx context.Context) error {
		if previous != nil {
			return uc.SubRepo.Upsert(ctx, previous)
		}
		return uc.SubRepo.Delete(ctx, sub.ID)
	})

	txn.AddOperation("update_account_plan", func(ctx context.Context) error {
		return uc.Accounts.UpdatePlan(ctx, account.ID, plan.ID)
	})
	txn.AddCompensation("restore_account_plan", func(ctx context.Context) error {
		return uc.Accounts.UpdatePlan(ctx, account.ID, previousPlan)
	})

	// Redemptions only count once the order they rode on is paid
	if order.CouponCode != "" {
		txn.AddOperation("redeem_coupon", func(ctx context.Context) error {
			return uc.Coupons.IncrementRedemptions(ctx, order.CouponCode)
		})
	}

	if err := txn.Execute(ctx); err != nil {
		return nil, &TechnicalError{Code: "ACTIVATION_FAILED", Message: "failed to activate subscription", Err: err}
	}

	order.Status = entity.OrderVerified
	order.PaymentID = input.PaymentID
	order.VerifiedAt = &now
	uc.Observer.OnTransition("order", order.ID, string(previousStatus), string(entity.OrderVerified))
	uc.Observer.OnTransition("subscription", sub.ID, "", sub.Status)

	payload := queue.ActivationPayload{
		AccountID:      account.ID,
		SubscriptionID: sub.ID,
		OrderID:        order.ID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Origin:         input.Origin,
		Name:           account.Name,
		Email:          account.Email,
		Phone:          account.Phone,
	}
	if uc.Queue != nil {
		if err := uc.Queue.PublishActivation(ctx, payload); err != nil {
			log.Printf("⚠️ CRITICAL: ativado no banco, mas falha na fila: %v", err)
		}
	}

	log.Printf("🚀 Assinatura %s ativa para conta %s (%s)", sub.ID, account.ID, plan.Name)
	return sub, nil
}
