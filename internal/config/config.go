package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `validate:"required,oneof=development stage production"`
	Http Http

	Cors CORS `validate:"required"`

	Postgres Postgres `validate:"required"`

	Gateway Gateway `validate:"required"`

	Email Email

	Kafka Kafka

	Reconcile Reconcile `validate:"required"`

	Checkout Checkout

	Cache Cache
}

type Http struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1,dive,url"`
}

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`

	SSLMode string `validate:"required,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
}

type Gateway struct {
	BaseURL     string `validate:"required,url"`
	AccessToken string `validate:"required"`
	// WebhookSecret signs inbound payment notifications. It is required:
	// webhooks failing the signature check are rejected before any processing.
	WebhookSecret string `validate:"required"`

	Timeout time.Duration `validate:"gt=0"`

	FrontendURL     string `validate:"required,url"`
	NotificationURL string `validate:"required,url"`

	Currency            string `validate:"required,len=3"`
	StatementDescriptor string `validate:"required"`
}

type Email struct {
	// APIKey is optional. Without it the dispatcher degrades to a no-op
	// with a logged warning.
	APIKey     string
	BaseURL    string `validate:"required,url"`
	From       string `validate:"required"`
	AdminEmail string `validate:"omitempty,email"`
}

type Kafka struct {
	// Brokers is optional. Without brokers status-change events are not
	// published.
	Brokers      []string      `validate:"omitempty,dive,hostname_port"`
	Topic        string        `validate:"required"`
	BatchTimeout time.Duration `validate:"gte=0"`
}

const (
	PolicySticky        = "sticky"
	PolicyLastWriteWins = "last-write-wins"
)

type Reconcile struct {
	Workers   int    `validate:"required,gte=1"`
	QueueSize int    `validate:"required,gte=1"`
	Policy    string `validate:"required,oneof=sticky last-write-wins"`
}

type Checkout struct {
	DefaultShippingCost int64 `validate:"gte=0"`
}

type Cache struct {
	Capacity int           `validate:"required,gte=1"`
	TTL      time.Duration `validate:"required,gt=0"`
}

func New() Config {
	return Config{
		Env: env("ENV", "development"),

		Http: Http{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8080"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "http://localhost:5173"), ","),
		},

		Postgres: Postgres{
			Host:     env("POSTGRES_HOST", "localhost"),
			Port:     envInt("POSTGRES_PORT", 5432),
			DBName:   env("POSTGRES_DB", "checkout"),
			User:     env("POSTGRES_USER", ""),
			Password: env("POSTGRES_PASSWORD", ""),

			SSLMode: env("POSTGRES_SSL_MODE", "disable"),

			MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Gateway: Gateway{
			BaseURL:       env("GATEWAY_BASE_URL", "https://api.mercadopago.com"),
			AccessToken:   env("GATEWAY_ACCESS_TOKEN", ""),
			WebhookSecret: env("GATEWAY_WEBHOOK_SECRET", ""),

			Timeout: envDuration("GATEWAY_TIMEOUT", 5*time.Second),

			FrontendURL:     env("FRONTEND_URL", "http://localhost:5173"),
			NotificationURL: env("NOTIFICATION_URL", "http://localhost:8080/webhooks/payment"),

			Currency:            env("GATEWAY_CURRENCY", "CLP"),
			StatementDescriptor: env("GATEWAY_STATEMENT_DESCRIPTOR", "PETMAT"),
		},

		Email: Email{
			APIKey:     env("RESEND_API_KEY", ""),
			BaseURL:    env("RESEND_BASE_URL", "https://api.resend.com"),
			From:       env("EMAIL_FROM", "PetMAT <onboarding@resend.dev>"),
			AdminEmail: env("ADMIN_EMAIL", ""),
		},

		Kafka: Kafka{
			Brokers:      envList("KAFKA_BROKERS"),
			Topic:        env("KAFKA_ORDER_EVENTS_TOPIC", "order-events"),
			BatchTimeout: envDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},

		Reconcile: Reconcile{
			Workers:   envInt("RECONCILE_WORKERS", 4),
			QueueSize: envInt("RECONCILE_QUEUE_SIZE", 256),
			Policy:    env("RECONCILE_POLICY", PolicySticky),
		},

		Checkout: Checkout{
			DefaultShippingCost: int64(envInt("DEFAULT_SHIPPING_COST", 2990)),
		},

		Cache: Cache{
			Capacity: envInt("CACHE_CAPACITY", 1000),
			TTL:      envDuration("CACHE_TTL", 10*time.Minute),
		},
	}
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envList(key string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return strings.Split(value, ",")
	}
	return nil
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
