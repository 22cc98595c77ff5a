package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ligue_growth"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status code",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route"})

	inFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served",
	})

	paymentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_received_total",
		Help:      "Gateway payments by resulting order status",
	}, []string{"gateway", "status"})

	activations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscriptions_activated_total",
		Help:      "Entitlements granted after a verified or free order",
	})

	integrationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "integration_errors_total",
		Help:      "Failed calls to external services",
	}, []string{"service"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lead_transitions_total",
		Help:      "Committed status transitions of leads, chat sessions and orders",
	}, []string{"kind", "from", "to"})

	checkoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_outcomes_total",
		Help:      "Checkout orchestrator state changes worth alerting on",
	}, []string{"state"})

	ordersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_expired_total",
		Help:      "Orders expired without a captured payment",
	})
)

// Metrics records request count and latency per chi route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inFlight.Inc()
		defer inFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routePattern keeps ids out of the route label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}

func RecordOrdersExpired(n int) {
	if n > 0 {
		ordersExpired.Add(float64(n))
	}
}

// TransitionMetrics turns committed status changes into counters. Order
// status changes count as payments, subscription ones as activations.
type TransitionMetrics struct{}

func (TransitionMetrics) OnTransition(kind, _, from, to string) {
	switch kind {
	case "payment":
		paymentOutcomes.WithLabelValues("razorpay", to).Inc()
	case "subscription":
		activations.Inc()
	default:
		if from == "" {
			from = "none"
		}
		transitions.WithLabelValues(kind, from, to).Inc()
	}
}

// CheckoutMetrics counts orchestrator outcomes.
type CheckoutMetrics struct{}

func (CheckoutMetrics) Notify(_ string, state string, err error) {
	checkoutOutcomes.WithLabelValues(state).Inc()
	if state == "order_error" && err != nil {
		RecordIntegrationError("razorpay")
	}
}
