package usecase

import (
	"context"

	"github.com/xavierca1/ligue-growth/internal/infra/integration/metacapi"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
	"github.com/xavierca1/ligue-growth/internal/infra/queue"
)

// ConversionSink receives lead lifecycle events for ad attribution.
type ConversionSink interface {
	Send(ctx context.Context, event metacapi.Event) error
}

// ChatChannel sends outbound messages and returns the channel message id.
type ChatChannel interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, input razorpay.CreateOrderInput) (*razorpay.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

type QueueProducerInterface interface {
	PublishActivation(ctx context.Context, payload queue.ActivationPayload) error
}

// TransitionObserver is told about every committed status change.
type TransitionObserver interface {
	OnTransition(kind, id, from, to string)
}

type noopObserver struct{}

func (noopObserver) OnTransition(string, string, string, string) {}
