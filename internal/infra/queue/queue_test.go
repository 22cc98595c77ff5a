package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

// TestPublishActivation - payload vai persistente para a exchange de billing
func TestPublishActivation(t *testing.T) {
	pub := &fakePublisher{}
	producer := NewProducer(pub)

	err := producer.PublishActivation(context.Background(), ActivationPayload{
		AccountID: "acc-1",
		OrderID:   "ord-1",
		PlanID:    "pro",
		PlanName:  "Pro",
		Amount:    3999,
		Origin:    "CHECKOUT",
		Email:     "ana@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, ExchangeName, pub.exchange)
	assert.Equal(t, RoutingKey, pub.key)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.Equal(t, "ord-1", pub.msg.MessageId)

	var got ActivationPayload
	require.NoError(t, json.Unmarshal(pub.msg.Body, &got))
	assert.Equal(t, int64(3999), got.Amount)
	assert.Equal(t, "CHECKOUT", got.Origin)
}

func TestPublishActivationError(t *testing.T) {
	producer := NewProducer(&fakePublisher{err: errors.New("channel closed")})
	err := producer.PublishActivation(context.Background(), ActivationPayload{})
	assert.ErrorContains(t, err, "channel closed")
}

type fakeTopology struct {
	exchanges []string
	queues    map[string]amqp.Table
	bindings  [][2]string
}

func (f *fakeTopology) ExchangeDeclare(name, _ string, _, _, _, _ bool, _ amqp.Table) error {
	f.exchanges = append(f.exchanges, name)
	return nil
}

func (f *fakeTopology) QueueDeclare(name string, _, _, _, _ bool, args amqp.Table) (amqp.Queue, error) {
	if f.queues == nil {
		f.queues = map[string]amqp.Table{}
	}
	f.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (f *fakeTopology) QueueBind(name, _, exchange string, _ bool, _ amqp.Table) error {
	f.bindings = append(f.bindings, [2]string{name, exchange})
	return nil
}

func TestSetupTopology(t *testing.T) {
	topo := &fakeTopology{}
	require.NoError(t, setupTopology(topo))

	assert.ElementsMatch(t, []string{DLXName, ExchangeName}, topo.exchanges)
	assert.Equal(t, DLXName, topo.queues[QueueName]["x-dead-letter-exchange"])
	assert.Contains(t, topo.bindings, [2]string{DLQName, DLXName})
	assert.Contains(t, topo.bindings, [2]string{QueueName, ExchangeName})
}

type MockEmailSender struct{ mock.Mock }

func (m *MockEmailSender) SendWelcome(to, name, planName string) error {
	return m.Called(to, name, planName).Error(0)
}

type MockWhatsAppNotifier struct{ mock.Mock }

func (m *MockWhatsAppNotifier) SendWelcome(ctx context.Context, phone, name, planName string) error {
	return m.Called(ctx, phone, name, planName).Error(0)
}

type MockCRM struct{ mock.Mock }

func (m *MockCRM) CreateDeal(ctx context.Context, payload ActivationPayload) (int, error) {
	args := m.Called(ctx, payload)
	return args.Int(0), args.Error(1)
}

type fakeAck struct {
	acked, nacked bool
}

func (a *fakeAck) Ack(uint64, bool) error        { a.acked = true; return nil }
func (a *fakeAck) Nack(uint64, bool, bool) error { a.nacked = true; return nil }
func (a *fakeAck) Reject(uint64, bool) error     { a.nacked = true; return nil }

func TestWorkerHandleDelivery(t *testing.T) {
	payload := ActivationPayload{AccountID: "acc-1", PlanName: "Pro", Name: "Ana", Email: "ana@example.com", Phone: "+5511999990000"}
	body, _ := json.Marshal(payload)

	t.Run("fan-out continues when a channel fails", func(t *testing.T) {
		email := new(MockEmailSender)
		wa := new(MockWhatsAppNotifier)
		crm := new(MockCRM)
		email.On("SendWelcome", "ana@example.com", "Ana", "Pro").Return(errors.New("smtp down"))
		wa.On("SendWelcome", mock.Anything, "+5511999990000", "Ana", "Pro").Return(nil)
		crm.On("CreateDeal", mock.Anything, payload).Return(42, nil)

		w := NewWorker(nil, email, wa, crm)
		ack := &fakeAck{}
		w.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})

		assert.True(t, ack.acked)
		email.AssertExpectations(t)
		wa.AssertExpectations(t)
		crm.AssertExpectations(t)
	})

	t.Run("malformed message is dead-lettered", func(t *testing.T) {
		w := NewWorker(nil, nil, nil, nil)
		ack := &fakeAck{}
		w.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{nope")})

		assert.True(t, ack.nacked)
		assert.False(t, ack.acked)
	})
}
