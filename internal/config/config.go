// Package config loads the service settings from the environment, reading
// a .env file first when one exists.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	HTTPAddr    string
	CORSOrigins []string

	// Empty DatabaseURL runs on the in-memory store.
	DatabaseURL   string
	RunMigrations bool
	RabbitMQURL   string
	RedisURL      string

	JWTSecret string
	Currency  string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayBaseURL       string
	RazorpayScriptURL     string
	BrandName             string
	BrandColor            string

	MetaBaseURL       string
	MetaPixelID       string
	MetaAccessToken   string
	MetaTestEventCode string

	WhatsAppBaseURL         string
	WhatsAppPhoneID         string
	WhatsAppAccessToken     string
	WhatsAppVerifyToken     string
	WhatsAppWelcomeTemplate string
	WhatsAppLanguage        string

	KommoBaseURL  string
	KommoToken    string
	KommoStatusID int

	MailHost     string
	MailPort     int
	MailUser     string
	MailPassword string
	MailFrom     string
	DashboardURL string

	OrderTTL              time.Duration
	ExpiryInterval        time.Duration
	CheckoutVerifyTimeout time.Duration
	CheckoutLockTTL       time.Duration
	LeadCaptureRPS        float64
	LeadCaptureBurst      int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RunMigrations: strings.EqualFold(getEnv("RUN_MIGRATIONS", "true"), "true"),
		RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		Currency:  getEnv("CURRENCY", "USD"),

		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		RazorpayBaseURL:       getEnv("RAZORPAY_BASE_URL", ""),
		RazorpayScriptURL:     getEnv("RAZORPAY_SCRIPT_URL", ""),
		BrandName:             getEnv("BRAND_NAME", "Ligue"),
		BrandColor:            getEnv("BRAND_COLOR", "#4F46E5"),

		MetaBaseURL:       getEnv("META_BASE_URL", ""),
		MetaPixelID:       getEnv("META_PIXEL_ID", ""),
		MetaAccessToken:   getEnv("META_ACCESS_TOKEN", ""),
		MetaTestEventCode: getEnv("META_TEST_EVENT_CODE", ""),

		WhatsAppBaseURL:         getEnv("WHATSAPP_BASE_URL", ""),
		WhatsAppPhoneID:         getEnv("WHATSAPP_PHONE_ID", ""),
		WhatsAppAccessToken:     getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppVerifyToken:     getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppWelcomeTemplate: getEnv("WHATSAPP_WELCOME_TEMPLATE", "boas_vindas"),
		WhatsAppLanguage:        getEnv("WHATSAPP_LANGUAGE", "pt_BR"),

		KommoBaseURL:  getEnv("KOMMO_BASE_URL", ""),
		KommoToken:    getEnv("KOMMO_TOKEN", ""),
		KommoStatusID: mustInt(getEnv("KOMMO_STATUS_ID", "0")),

		MailHost:     getEnv("MAIL_HOST", ""),
		MailPort:     mustInt(getEnv("MAIL_PORT", "587")),
		MailUser:     getEnv("MAIL_USER", ""),
		MailPassword: getEnv("MAIL_PASS", ""),
		MailFrom:     getEnv("MAIL_FROM", ""),
		DashboardURL: getEnv("DASHBOARD_URL", "http://localhost:5173"),

		OrderTTL:              mustDuration(getEnv("ORDER_TTL", "30m")),
		ExpiryInterval:        mustDuration(getEnv("ORDER_EXPIRY_INTERVAL", "1m")),
		CheckoutVerifyTimeout: mustDuration(getEnv("CHECKOUT_VERIFY_TIMEOUT", "30s")),
		CheckoutLockTTL:       mustDuration(getEnv("CHECKOUT_LOCK_TTL", "15m")),
		LeadCaptureRPS:        mustFloat(getEnv("LEAD_CAPTURE_RPS", "1")),
		LeadCaptureBurst:      mustInt(getEnv("LEAD_CAPTURE_BURST", "5")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in production"))
		}
		if c.RazorpayKeySecret == "" || c.RazorpayWebhookSecret == "" {
			errs = append(errs, errors.New("RAZORPAY_KEY_SECRET and RAZORPAY_WEBHOOK_SECRET are required in production"))
		}
	}
	if c.OrderTTL <= 0 || c.CheckoutVerifyTimeout <= 0 || c.CheckoutLockTTL <= 0 || c.ExpiryInterval <= 0 {
		errs = append(errs, errors.New("ORDER_TTL, ORDER_EXPIRY_INTERVAL, CHECKOUT_VERIFY_TIMEOUT and CHECKOUT_LOCK_TTL must be positive durations"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func mustFloat(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
