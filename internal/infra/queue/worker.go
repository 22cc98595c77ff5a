package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

type EmailSender interface {
	SendWelcome(to, name, planName string) error
}

type WhatsAppNotifier interface {
	SendWelcome(ctx context.Context, phone, name, planName string) error
}

type CRM interface {
	CreateDeal(ctx context.Context, payload ActivationPayload) (int, error)
}

// Consumer is the subset of *amqp.Channel the worker needs.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Worker runs the post-activation fan-out. Every channel is best effort: a
// failure is logged and does not block the others.
type Worker struct {
	Channel  Consumer
	Email    EmailSender
	WhatsApp WhatsAppNotifier
	CRM      CRM
}

func NewWorker(ch Consumer, email EmailSender, whatsapp WhatsAppNotifier, crm CRM) *Worker {
	return &Worker{
		Channel:  ch,
		Email:    email,
		WhatsApp: whatsapp,
		CRM:      crm,
	}
}

// Start consumes queueName until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	log.Printf(" [*] Worker aguardando na fila '%s'", queueName)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ [WORKER] Encerrado")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("canal do RabbitMQ fechado")
			}
			w.handleDelivery(ctx, d)
		}
	}
}

func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var payload ActivationPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		log.Printf("❌ [WORKER] JSON inválido: %s", err)
		// malformed, goes to the DLQ
		d.Nack(false, false)
		return
	}

	log.Printf("⚙️ [WORKER] Boas-vindas para conta %s (plano %s)", payload.AccountID, payload.PlanName)

	if err := w.processMessage(ctx, payload); err != nil {
		log.Printf("❌ [WORKER] %s", err)
	}
	d.Ack(false)
}

// processMessage returns the joined channel errors for logging only.
func (w *Worker) processMessage(ctx context.Context, payload ActivationPayload) error {
	var errs []error

	if w.Email != nil && payload.Email != "" {
		if err := w.Email.SendWelcome(payload.Email, payload.Name, payload.PlanName); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if w.WhatsApp != nil && payload.Phone != "" {
		if err := w.WhatsApp.SendWelcome(ctx, payload.Phone, payload.Name, payload.PlanName); err != nil {
			errs = append(errs, fmt.Errorf("whatsapp: %w", err))
		}
	}

	if w.CRM != nil {
		if _, err := w.CRM.CreateDeal(ctx, payload); err != nil {
			errs = append(errs, fmt.Errorf("kommo: %w", err))
		}
	}

	return errors.Join(errs...)
}
