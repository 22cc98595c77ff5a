package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ActivationPayload is published once a subscription is active, for the
// welcome fan-out.
type ActivationPayload struct {
	AccountID      string `json:"account_id"`
	SubscriptionID string `json:"subscription_id"`
	OrderID        string `json:"order_id"`
	PlanID         string `json:"plan_id"`
	PlanName       string `json:"plan_name"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Origin         string `json:"origin"` // CHECKOUT, WEBHOOK_RAZORPAY, FREE

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Publisher is the subset of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishActivation(ctx context.Context, payload ActivationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.OrderID,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}
	return nil
}
