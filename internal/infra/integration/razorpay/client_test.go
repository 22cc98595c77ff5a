package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	var got createOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/orders", r.URL.Path)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Order{ID: "order_123", Amount: got.Amount, Currency: got.Currency, Status: "created"})
	}))
	defer server.Close()

	client := NewClient("rzp_test_key", "secret", server.URL)
	order, err := client.CreateOrder(context.Background(), CreateOrderInput{
		Amount:   3999,
		Currency: "USD",
		Receipt:  "internal-1",
		Notes:    map[string]string{"correlation_token": "tok"},
	})

	require.NoError(t, err)
	assert.Equal(t, "order_123", order.ID)
	assert.Equal(t, int64(3999), got.Amount)
	assert.Equal(t, "tok", got.Notes["correlation_token"])
}

func TestCreateOrderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too low"}}`))
	}))
	defer server.Close()

	_, err := NewClient("k", "s", server.URL).CreateOrder(context.Background(), CreateOrderInput{Amount: 1, Currency: "INR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too low")
}

func TestVerifyPaymentSignature(t *testing.T) {
	client := NewClient("k", "secret", "")
	valid := Sign("secret", "order_1|pay_1")

	assert.True(t, client.VerifyPaymentSignature("order_1", "pay_1", valid))
	assert.False(t, client.VerifyPaymentSignature("order_1", "pay_2", valid))
	assert.False(t, client.VerifyPaymentSignature("order_1", "pay_1", ""))
	assert.False(t, NewClient("k", "", "").VerifyPaymentSignature("order_1", "pay_1", valid))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := Sign("whsec", string(body))

	assert.True(t, VerifyWebhookSignature("whsec", body, sig))
	assert.False(t, VerifyWebhookSignature("other", body, sig))
}

func TestWidget(t *testing.T) {
	t.Run("load ok", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
		}))
		defer server.Close()

		w := NewWidget("rzp_key", "Ligue", "#0F9D58", server.URL)
		require.NoError(t, w.Load(context.Background()))

		opts := w.Options("order_1", 3999, "USD", "Plano Pro")
		assert.Equal(t, "rzp_key", opts.Key)
		assert.Equal(t, "order_1", opts.OrderID)
		assert.Equal(t, "#0F9D58", opts.Theme.Color)
	})

	t.Run("load fails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		assert.Error(t, NewWidget("k", "", "", server.URL).Load(context.Background()))
	})
}
