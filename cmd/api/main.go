package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ligue-growth/internal/checkout"
	"github.com/xavierca1/ligue-growth/internal/config"
	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/cache"
	"github.com/xavierca1/ligue-growth/internal/infra/database"
	"github.com/xavierca1/ligue-growth/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/kommo"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/metacapi"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/razorpay"
	"github.com/xavierca1/ligue-growth/internal/infra/integration/whatsapp"
	"github.com/xavierca1/ligue-growth/internal/infra/mail"
	"github.com/xavierca1/ligue-growth/internal/infra/memory"
	"github.com/xavierca1/ligue-growth/internal/infra/queue"
	"github.com/xavierca1/ligue-growth/internal/infra/worker"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

// devAccountID is seeded when running on the in-memory store.
const devAccountID = "dev-account"

type repositories struct {
	leads    entity.LeadRepositoryInterface
	sessions entity.ChatSessionRepositoryInterface
	plans    entity.PlanRepositoryInterface
	coupons  entity.CouponRepositoryInterface
	orders   entity.OrderRepositoryInterface
	subs     entity.SubscriptionRepository
	accounts entity.AccountRepositoryInterface
	settings entity.SettingsRepositoryInterface
}

// app holds everything the router and the background jobs need.
type app struct {
	db       *sql.DB
	rabbitMQ *queue.RabbitMQ
	redis    *cache.RedisLocker

	leads     *usecase.LeadLifecycle
	sessions  *usecase.ChatSessions
	settings  *usecase.SettingsService
	pricing   *usecase.PricingEngine
	create    *usecase.CreateOrderUseCase
	verify    *usecase.VerifyPaymentUseCase
	reconcile *usecase.ReconcilePaymentUseCase
	registry  *checkout.Registry
	subs      entity.SubscriptionRepository

	expiry *worker.OrderExpirationWorker
	worker *queue.Worker
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuração inválida: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Falha ao iniciar: %v", err)
	}
	defer a.close()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes(cfg, a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("🔥 Server ligue-growth rodando em %s (%s)", cfg.HTTPAddr, cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Println("⚠️ Encerrando servidor HTTP")
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.expiry.Start(gctx)
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Start(gctx, queue.QueueName)
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("❌ Encerrado com erro: %v", err)
	}
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	repos, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	observer := middleware.TransitionMetrics{}

	// Settings and the Conversions API client depend on each other: the
	// client reads its credentials from the settings on every call.
	a.settings = usecase.NewSettingsService(repos.settings, nil, entity.IntegrationSettings{
		MetaPixelID:         cfg.MetaPixelID,
		MetaAccessToken:     cfg.MetaAccessToken,
		MetaTestEventCode:   cfg.MetaTestEventCode,
		WhatsAppPhoneID:     cfg.WhatsAppPhoneID,
		WhatsAppAccessToken: cfg.WhatsAppAccessToken,
		WhatsAppVerifyToken: cfg.WhatsAppVerifyToken,
	})
	capi := metacapi.NewClient(cfg.MetaBaseURL, a.settings.MetaCredentials)
	a.settings.Sink = capi
	wa := whatsapp.NewClient(cfg.WhatsAppBaseURL, cfg.WhatsAppLanguage, a.settings.WhatsAppCredentials)

	a.leads = usecase.NewLeadLifecycle(repos.leads, capi, observer, cfg.Currency)
	a.sessions = usecase.NewChatSessions(repos.sessions, capi, wa, observer, cfg.Currency)

	var producer usecase.QueueProducerInterface
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		a.rabbitMQ = rabbitMQ
		producer = queue.NewProducer(rabbitMQ.Ch)
		a.worker = queue.NewWorker(
			rabbitMQ.Ch,
			mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword, cfg.MailFrom, cfg.DashboardURL),
			mail.NewWhatsAppSender(wa, cfg.WhatsAppWelcomeTemplate),
			kommo.NewClient(cfg.KommoToken, cfg.KommoBaseURL, cfg.KommoStatusID),
		)
	} else {
		log.Println("⚠️ RABBITMQ_URL não configurada, ativações não serão notificadas")
	}

	gateway := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL)
	activator := usecase.NewActivateSubscriptionUseCase(repos.orders, repos.subs, repos.accounts, repos.plans, repos.coupons, producer, observer)
	a.pricing = usecase.NewPricingEngine(repos.plans, repos.coupons)
	a.create = usecase.NewCreateOrderUseCase(a.pricing, repos.orders, repos.accounts, gateway)
	a.verify = usecase.NewVerifyPaymentUseCase(repos.orders, gateway, activator)
	a.reconcile = usecase.NewReconcilePaymentUseCase(repos.orders, activator)
	a.subs = repos.subs

	var locker checkout.Locker = checkout.NewMemoryLocker()
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.redis = cache.NewRedisLocker(client, "ligue-growth")
		if err := a.redis.Ping(ctx); err != nil {
			return nil, err
		}
		locker = a.redis
	} else {
		log.Println("⚠️ REDIS_URL não configurada, lock de checkout apenas local")
	}

	backend := checkout.NewLocalBackend(a.pricing, a.create, a.verify, repos.subs)
	a.registry = checkout.NewRegistry(checkout.Config{
		Backend:       backend,
		Widget:        razorpay.NewWidget(cfg.RazorpayKeyID, cfg.BrandName, cfg.BrandColor, cfg.RazorpayScriptURL),
		Locker:        locker,
		Notifier:      middleware.CheckoutMetrics{},
		Profile:       backend,
		VerifyTimeout: cfg.CheckoutVerifyTimeout,
		LockTTL:       cfg.CheckoutLockTTL,
	})

	a.expiry = worker.NewOrderExpirationWorker(repos.orders, cfg.OrderTTL, cfg.ExpiryInterval)
	a.expiry.OnExpired(middleware.RecordOrdersExpired)

	return a, nil
}

// openStore connects to Postgres when DATABASE_URL is set and falls back to
// the in-memory store otherwise.
func (a *app) openStore(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.DatabaseURL == "" {
		log.Println("⚠️ DATABASE_URL não configurada, usando store em memória")
		store := memory.NewStore()
		seedMemory(store)
		store.Subscribe(func(c memory.Change) {
			log.Printf("🗂️ [STORE] %s %s -> %s", c.Kind, c.ID, c.Status)
		})
		return &repositories{
			leads:    store.Leads(),
			sessions: store.ChatSessions(),
			plans:    store.Plans(),
			coupons:  store.Coupons(),
			orders:   store.Orders(),
			subs:     store.Subscriptions(),
			accounts: store.Accounts(),
			settings: store.Settings(),
		}, nil
	}

	db, err := database.NewDBConnection(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.db = db

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, db); err != nil {
			return nil, err
		}
	}

	return &repositories{
		leads:    database.NewLeadRepository(db),
		sessions: database.NewChatSessionRepository(db),
		plans:    database.NewPlanRepository(db),
		coupons:  database.NewCouponRepository(db),
		orders:   database.NewOrderRepository(db),
		subs:     database.NewSubscriptionRepository(db),
		accounts: database.NewAccountRepository(db),
		settings: database.NewSettingsRepository(db),
	}, nil
}

// seedMemory mirrors the plans of the SQL migrations and adds one account
// for local testing.
func seedMemory(store *memory.Store) {
	store.Plans().Save(&entity.Plan{ID: "free", Name: "Free", Description: "Plano gratuito", Currency: "USD", IntervalMonths: 1})
	store.Plans().Save(&entity.Plan{ID: "pro", Name: "Pro", Description: "Campanhas ilimitadas", PriceCents: 4999, Currency: "USD", IntervalMonths: 1})
	store.Coupons().Save(&entity.Coupon{Code: "WELCOME10", DiscountType: entity.DiscountFixed, DiscountValue: 10, Active: true})
	store.Accounts().Save(&entity.Account{ID: devAccountID, Name: "Dev", Email: "dev@ligue.local", PlanID: "free", CreatedAt: time.Now()})
}

func (a *app) close() {
	if a.rabbitMQ != nil {
		a.rabbitMQ.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
