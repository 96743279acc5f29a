package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/petmat/checkout-service/docs"
	"github.com/petmat/checkout-service/internal/app"
	"github.com/petmat/checkout-service/internal/config"
	"github.com/petmat/checkout-service/internal/events"
	"github.com/petmat/checkout-service/internal/gateway"
	"github.com/petmat/checkout-service/internal/handler"
	"github.com/petmat/checkout-service/internal/notify"
	"github.com/petmat/checkout-service/internal/postgres"
	"github.com/petmat/checkout-service/internal/repo"
	"github.com/petmat/checkout-service/internal/service"
	"github.com/petmat/checkout-service/pkg/cache"

	"github.com/joho/godotenv"
)

// @title           Checkout Service API
// @version         1.0
// @description     Checkout orchestration and payment reconciliation API
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewPostgresRepo(db)
	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	gatewayClient := gateway.NewClient(logger, conf.Gateway)

	var sender notify.Sender
	if conf.Email.APIKey != "" {
		sender = notify.NewResendClient(conf.Email)
	} else {
		logger.Warn("no email api key configured, notifications disabled")
	}
	dispatcher := notify.NewDispatcher(logger, sender, conf.Email)

	var publisher service.EventPublisher = events.NopPublisher{}
	closers := []app.Closer{}
	if len(conf.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewPublisher(conf.Kafka)
		publisher = kafkaPublisher
		closers = append(closers, kafkaPublisher)
		logger.Info("kafka event publisher enabled")
	}

	checkoutService := service.NewCheckoutService(logger, gatewayClient, orderRepo, conf.Checkout)
	orderService := service.NewOrderService(logger, orderRepo, orderCache)
	reconciler := service.NewReconciler(logger, gatewayClient, orderRepo, dispatcher, publisher, orderCache, conf.Reconcile)
	closers = append(closers, reconciler)

	httpHandler := handler.NewHTTPHandler(logger, checkoutService, orderService, reconciler, conf.Gateway.WebhookSecret)

	application := app.New(logger, conf)
	application.SetHTTPHandlers(httpHandler)
	application.SetStarters(orderCache, reconciler)
	application.SetClosers(closers...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	panicIfErr("failed to start app", application.Start(ctx))
	<-ctx.Done()
	application.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
