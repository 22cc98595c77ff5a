package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// ReconcilePaymentUseCase applies signed gateway webhooks. A captured payment
// whose browser callback never arrived still activates the plan.
type ReconcilePaymentUseCase struct {
	Orders    entity.OrderRepositoryInterface
	Activator *ActivateSubscriptionUseCase
}

func NewReconcilePaymentUseCase(orders entity.OrderRepositoryInterface, activator *ActivateSubscriptionUseCase) *ReconcilePaymentUseCase {
	return &ReconcilePaymentUseCase{Orders: orders, Activator: activator}
}

// Execute expects an event whose signature was already checked.
func (uc *ReconcilePaymentUseCase) Execute(ctx context.Context, event razorpay.WebhookEvent) error {
	payment := event.Payload.Payment.Entity

	switch event.Event {
	case EventPaymentCaptured:
		return uc.captured(ctx, payment)
	case EventPaymentFailed:
		log.Printf("💳 [WEBHOOK] Pagamento %s recusado (order=%s): %s %s",
			payment.ID, payment.OrderID, payment.ErrorCode, payment.ErrorDescription)
		uc.Activator.Observer.OnTransition("payment", payment.ID, "", "failed")
		return nil
	default:
		log.Printf("💳 [WEBHOOK] Evento %s ignorado", event.Event)
		return nil
	}
}

func (uc *ReconcilePaymentUseCase) captured(ctx context.Context, payment razorpay.Payment) error {
	order, err := uc.Orders.FindByGatewayOrderID(ctx, payment.OrderID)
	if err != nil {
		if errors.Is(err, entity.ErrOrderNotFound) || errors.Is(err, entity.ErrNotFound) {
			log.Printf("⚠️ [WEBHOOK] Order %s desconhecida, ignorando", payment.OrderID)
			return nil
		}
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load order", Err: err}
	}

	unlock := uc.Activator.Locks.Lock(order.ID)
	defer unlock()

	order, err = uc.Orders.FindByGatewayOrderID(ctx, payment.OrderID)
	if err != nil {
		return &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to reload order", Err: err}
	}
	uc.Activator.Observer.OnTransition("payment", payment.ID, "", "captured")

	if order.Status == entity.OrderVerified {
		if order.PaymentID != payment.ID {
			log.Printf("⚠️ CRITICAL: pedido %s já pago por %s, novo pagamento %s precisa de estorno",
				order.ID, order.PaymentID, payment.ID)
		}
		return nil
	}

	if payment.Amount != order.Amount {
		log.Printf("⚠️ CRITICAL: valor capturado %d difere do pedido %s (%d)", payment.Amount, order.ID, order.Amount)
		return &VerificationError{Reason: "valor capturado difere do pedido"}
	}

	_, err = uc.Activator.Execute(ctx, ActivateSubscriptionInput{
		Order:     order,
		PaymentID: payment.ID,
		Origin:    "WEBHOOK_RAZORPAY",
	})
	return err
}
