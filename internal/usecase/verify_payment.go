package usecase

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

// VerifyPaymentUseCase settles a browser capture callback. It is the only
// path from a paid capture to entitlement.
type VerifyPaymentUseCase struct {
	Orders    entity.OrderRepositoryInterface
	Gateway   PaymentGateway
	Activator *ActivateSubscriptionUseCase
}

func NewVerifyPaymentUseCase(orders entity.OrderRepositoryInterface, gateway PaymentGateway, activator *ActivateSubscriptionUseCase) *VerifyPaymentUseCase {
	return &VerifyPaymentUseCase{
		Orders:    orders,
		Gateway:   gateway,
		Activator: activator,
	}
}

func (uc *VerifyPaymentUseCase) Execute(ctx context.Context, input VerifyPaymentInput) (*VerifyPaymentOutput, error) {
	var errs []ValidationError
	if strings.TrimSpace(input.OrderID) == "" {
		errs = append(errs, ValidationError{"razorpay_order_id", "is required"})
	}
	if strings.TrimSpace(input.PaymentID) == "" {
		errs = append(errs, ValidationError{"razorpay_payment_id", "is required"})
	}
	if strings.TrimSpace(input.Signature) == "" {
		errs = append(errs, ValidationError{"razorpay_signature", "is required"})
	}
	if len(errs) > 0 {
		return nil, toError(errs)
	}

	order, unlock, err := uc.lockOrder(ctx, input.AccountID, input.CorrelationToken, input.PlanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if order.GatewayOrderID == "" || order.GatewayOrderID != input.OrderID {
		return nil, &VerificationError{Reason: "pedido não corresponde ao token"}
	}

	switch order.Status {
	case entity.OrderVerified:
		return uc.alreadyVerified(ctx, order, input.PaymentID)
	case entity.OrderFailed:
		return nil, &VerificationError{Reason: "pedido falhou, inicie um novo checkout"}
	}

	if !uc.Gateway.VerifyPaymentSignature(order.GatewayOrderID, input.PaymentID, input.Signature) {
		if err := uc.Orders.UpdateStatus(ctx, order.ID, order.Status, entity.OrderFailed); err != nil {
			log.Printf("⚠️ [VERIFY] Falha ao marcar pedido %s como failed: %v", order.ID, err)
		}
		uc.Activator.Observer.OnTransition("order", order.ID, string(order.Status), string(entity.OrderFailed))
		return nil, &VerificationError{Reason: "assinatura inválida"}
	}

	sub, err := uc.Activator.Execute(ctx, ActivateSubscriptionInput{
		Order:     order,
		PaymentID: input.PaymentID,
		AutoRenew: input.AutoRenew,
		Origin:    "CHECKOUT",
	})
	if err != nil {
		return nil, err
	}
	return &VerifyPaymentOutput{Success: true, Subscription: sub}, nil
}

// ActivateFree settles a zero-amount order without the gateway.
func (uc *VerifyPaymentUseCase) ActivateFree(ctx context.Context, input ActivateFreeInput) (*VerifyPaymentOutput, error) {
	order, unlock, err := uc.lockOrder(ctx, input.AccountID, input.CorrelationToken, input.PlanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !order.IsFree() {
		return nil, &VerificationError{Reason: "pedido exige pagamento"}
	}

	switch order.Status {
	case entity.OrderVerified:
		return uc.alreadyVerified(ctx, order, "")
	case entity.OrderCreated:
	default:
		return nil, &VerificationError{Reason: "pedido não está mais disponível"}
	}

	sub, err := uc.Activator.Execute(ctx, ActivateSubscriptionInput{Order: order, Origin: "FREE"})
	if err != nil {
		return nil, err
	}
	return &VerifyPaymentOutput{Success: true, Subscription: sub}, nil
}

// lockOrder resolves the token, checks it belongs to the caller and the
// plan, and returns the order re-read under its lock.
func (uc *VerifyPaymentUseCase) lockOrder(ctx context.Context, accountID, token, planID string) (*entity.Order, func(), error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil, ValidationErrors{{"correlation_token", "is required"}}
	}
	if _, err := uuid.Parse(token); err != nil {
		return nil, nil, &VerificationError{Reason: "token desconhecido"}
	}

	order, err := uc.Orders.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, entity.ErrOrderNotFound) || errors.Is(err, entity.ErrNotFound) {
			return nil, nil, &VerificationError{Reason: "token desconhecido"}
		}
		return nil, nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load order", Err: err}
	}
	if order.AccountID != accountID {
		return nil, nil, &VerificationError{Reason: "token pertence a outra conta"}
	}
	if order.PlanID != planID {
		return nil, nil, &VerificationError{Reason: "plano não corresponde ao pedido"}
	}

	unlock := uc.Activator.Locks.Lock(order.ID)

	order, err = uc.Orders.FindByToken(ctx, token)
	if err != nil {
		unlock()
		return nil, nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to reload order", Err: err}
	}
	return order, unlock, nil
}

// alreadyVerified makes a repeated callback for the same payment a no-op
// success and rejects a token replayed with a different payment.
func (uc *VerifyPaymentUseCase) alreadyVerified(ctx context.Context, order *entity.Order, paymentID string) (*VerifyPaymentOutput, error) {
	if order.PaymentID != paymentID {
		return nil, &VerificationError{Reason: "token já utilizado"}
	}
	sub, err := uc.Activator.SubRepo.FindByAccountID(ctx, order.AccountID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load subscription", Err: err}
	}
	return &VerifyPaymentOutput{Success: true, Subscription: sub}, nil
}
