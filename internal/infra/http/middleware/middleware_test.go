package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func echoAccount() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(AccountID(r.Context())))
	})
}

// TestAuth_ValidToken - o sub do token vira o account id
func TestAuth_ValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, "acc-1", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me/subscription", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Auth(testSecret)(echoAccount()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc-1", rec.Body.String())
}

// TestAuth_Rejects - header ausente, segredo errado ou algoritmo diferente
func TestAuth_Rejects(t *testing.T) {
	wrongSecret, err := IssueToken("other", "acc-1", nil)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"foo": "bar"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "acc-1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"wrong secret": "Bearer " + wrongSecret,
		"no subject":   "Bearer " + noSub,
		"hs512":        "Bearer " + hs512,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			Auth(testSecret)(echoAccount()).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

// TestRateLimiter_PerIP - cada IP tem o seu próprio balde
func TestRateLimiter_PerIP(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 2)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/leads", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, do("1.1.1.1"))
	assert.Equal(t, http.StatusCreated, do("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("1.1.1.1"))
	assert.Equal(t, http.StatusCreated, do("2.2.2.2"))
}

// TestClientIP - RemoteAddr sem porta quando não há proxy
func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

// TestCheckoutMetrics - erro de pedido conta também como erro de integração
func TestCheckoutMetrics(t *testing.T) {
	outcome := checkoutOutcomes.WithLabelValues("order_error")
	gateway := integrationErrors.WithLabelValues("razorpay")
	outcomeBefore, gatewayBefore := testutil.ToFloat64(outcome), testutil.ToFloat64(gateway)

	CheckoutMetrics{}.Notify("acc-1", "order_error", assert.AnError)

	assert.Equal(t, outcomeBefore+1, testutil.ToFloat64(outcome))
	assert.Equal(t, gatewayBefore+1, testutil.ToFloat64(gateway))
}

// TestMetrics_RoutePatternLabel - ids não entram no label de rota
func TestMetrics_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Post("/leads/{id}/qualify", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	counter := requestsTotal.WithLabelValues(http.MethodPost, "/leads/{id}/qualify", "409")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/leads/"+id+"/qualify", nil))
		require.Equal(t, http.StatusConflict, rec.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

// TestTransitionMetrics - pagamentos, ativações e transições vão para contadores distintos
func TestTransitionMetrics(t *testing.T) {
	var m TransitionMetrics
	lead := transitions.WithLabelValues("lead", "sent_to_meta", "qualified")
	paid := paymentOutcomes.WithLabelValues("razorpay", "captured")
	leadBefore, paidBefore, actBefore := testutil.ToFloat64(lead), testutil.ToFloat64(paid), testutil.ToFloat64(activations)

	m.OnTransition("lead", "l1", "sent_to_meta", "qualified")
	m.OnTransition("payment", "pay_1", "", "captured")
	m.OnTransition("subscription", "acc-1", "", "active")

	assert.Equal(t, leadBefore+1, testutil.ToFloat64(lead))
	assert.Equal(t, paidBefore+1, testutil.ToFloat64(paid))
	assert.Equal(t, actBefore+1, testutil.ToFloat64(activations))
}
