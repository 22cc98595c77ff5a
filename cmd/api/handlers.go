package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-growth/internal/config"
	"github.com/xavierca1/ligue-growth/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-growth/internal/infra/http/middleware"
)

func routes(cfg *config.Config, a *app) http.Handler {
	leadH := handlers.NewLeadHandler(a.leads)
	chatH := handlers.NewChatSessionHandler(a.sessions)
	waH := handlers.NewWhatsAppWebhookHandler(a.sessions, a.settings)
	orderH := handlers.NewOrderHandler(a.pricing, a.create, a.verify)
	checkoutH := handlers.NewCheckoutHandler(a.registry)
	subH := handlers.NewSubscriptionHandler(a.subs)
	settingsH := handlers.NewSettingsHandler(a.settings)
	webhookH := handlers.NewWebhookHandler(a.reconcile, cfg.RazorpayWebhookSecret)

	health := handlers.NewHealthHandler(a.db, nil, nil, cfg.RazorpayKeyID)
	if a.rabbitMQ != nil {
		health.RabbitMQ = a.rabbitMQ.Conn
	}
	if a.redis != nil {
		health.Redis = a.redis
	}

	limiter := middleware.NewIPRateLimiter(cfg.LeadCaptureRPS, cfg.LeadCaptureBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookH.Handle)
		r.Get("/whatsapp", waH.Verify)
		r.Post("/whatsapp", waH.Receive)
	})

	auth := middleware.Auth(cfg.JWTSecret)

	r.Route("/leads", func(r chi.Router) {
		// Capture is public and only rate limited.
		r.With(limiter.Middleware).Post("/", leadH.CaptureLead)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Get("/", leadH.List)
			r.Get("/stats", leadH.Stats)
			r.Patch("/{id}/status", leadH.UpdateStatus)
			r.Post("/{id}/send-to-meta", leadH.SendToMeta)
			r.Post("/{id}/qualify", leadH.Qualify)
			r.Post("/{id}/convert", leadH.Convert)
			r.Post("/{id}/spam", leadH.MarkSpam)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Route("/chat-sessions", func(r chi.Router) {
			r.Get("/", chatH.List)
			r.Get("/{id}", chatH.Get)
			r.Post("/{id}/qualify", chatH.Qualify)
			r.Post("/{id}/reply", chatH.Reply)
			r.Post("/{id}/lead", chatH.MarkLead)
			r.Post("/{id}/convert", chatH.Convert)
		})

		r.Post("/coupons/validate", orderH.ValidateCoupon)
		r.Post("/orders", orderH.Create)
		r.Post("/orders/verify", orderH.VerifyPayment)
		r.Post("/orders/activate-free", orderH.ActivateFree)

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutH.Get)
			r.Post("/", checkoutH.Start)
			r.Post("/coupon", checkoutH.ApplyCoupon)
			r.Delete("/coupon", checkoutH.RemoveCoupon)
			r.Post("/capture", checkoutH.Capture)
			r.Post("/failure", checkoutH.Failure)
			r.Post("/cancel", checkoutH.Cancel)
		})

		r.Route("/settings/integrations", func(r chi.Router) {
			r.Get("/", settingsH.Get)
			r.Put("/", settingsH.Update)
			r.Post("/test", settingsH.Test)
			r.Post("/regenerate-token", settingsH.RegenerateToken)
		})

		r.Get("/me/subscription", subH.HandleGetMine)
	})

	return r
}
