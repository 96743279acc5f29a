package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/petmat/checkout-service/internal/config"
	"github.com/petmat/checkout-service/internal/entities"
	"github.com/petmat/checkout-service/internal/notify"
	"github.com/petmat/checkout-service/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
)

// taskTimeout bounds a single reconciliation attempt: one gateway fetch plus
// one store write.
const taskTimeout = 30 * time.Second

type PaymentFetcher interface {
	GetPayment(ctx context.Context, id string) (entities.Payment, error)
}

type ReconcileRepo interface {
	ApplyPaymentStatus(ctx context.Context, reference string, ps entities.PaymentStatus, paymentID string, sticky bool) (entities.StatusChange, error)
	RecordAnomaly(ctx context.Context, a entities.Anomaly) error
}

type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, snap notify.Snapshot)
}

type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, change entities.StatusChange) error
}

// Reconciler applies the order/payment state machine. Webhook handlers hand
// payment ids to Enqueue and return immediately; a worker pool fetches the
// authoritative payment state and writes the transition. Failures here never
// reach the webhook caller; the provider's own redelivery is the retry
// mechanism.
type Reconciler struct {
	logger   *slog.Logger
	gateway  PaymentFetcher
	repo     ReconcileRepo
	notifier Notifier
	events   EventPublisher
	cache    Cache

	sticky  bool
	workers int
	queue   chan string
	wg      sync.WaitGroup
}

func NewReconciler(
	logger *slog.Logger,
	gw PaymentFetcher,
	repo ReconcileRepo,
	notifier Notifier,
	events EventPublisher,
	cache Cache,
	cfg config.Reconcile,
) *Reconciler {
	return &Reconciler{
		logger:   logger.With(slog.String("service", "reconciler")),
		gateway:  gw,
		repo:     repo,
		notifier: notifier,
		events:   events,
		cache:    cache,
		sticky:   cfg.Policy == config.PolicySticky,
		workers:  cfg.Workers,
		queue:    make(chan string, cfg.QueueSize),
	}
}

// Enqueue hands a payment id to the worker pool without blocking. A full
// queue drops the event; the provider redelivers it later.
func (r *Reconciler) Enqueue(paymentID string) bool {
	select {
	case r.queue <- paymentID:
		return true
	default:
		eventsDroppedTotal.Inc()
		r.logger.Error("reconcile queue full, dropping event",
			slog.String("payment_id", paymentID))
		return false
	}
}

// Start launches the worker pool. Satisfies the application Starter interface.
func (r *Reconciler) Start(ctx context.Context) error {
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.logger.Info("reconciler started", slog.Int("workers", r.workers))
	return nil
}

// Close waits for in-flight reconciliations to finish. Workers stop once the
// start context is cancelled.
func (r *Reconciler) Close() error {
	r.wg.Wait()
	return nil
}

func (r *Reconciler) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case paymentID := <-r.queue:
			r.process(ctx, paymentID)
		}
	}
}

func (r *Reconciler) process(ctx context.Context, paymentID string) {
	// Once started, a reconciliation runs to completion even during
	// shutdown; only the per-task timeout bounds it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), taskTimeout)
	defer cancel()

	timer := prometheus.NewTimer(reconcileDuration)
	defer timer.ObserveDuration()

	logger := r.logger.With(slog.String("payment_id", paymentID))

	// The webhook body is never trusted for status; fetch the authoritative
	// state and take the reference from the payment itself.
	payment, err := r.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		reconciliationsTotal.WithLabelValues("gateway_error").Inc()
		logger.Error("failed to fetch payment", slog.Any("error", err))
		return
	}

	if payment.ExternalReference == "" {
		r.recordAnomaly(ctx, logger, entities.Anomaly{
			PaymentID: payment.ID,
			Reason:    entities.AnomalyMissingReference,
			Detail:    "payment carries no external reference",
		})
		return
	}

	logger = logger.With(slog.String("reference", payment.ExternalReference))

	var change entities.StatusChange
	fn := func() error {
		var err error
		change, err = r.repo.ApplyPaymentStatus(ctx, payment.ExternalReference, payment.Status, payment.ID, r.sticky)
		return err
	}
	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  3,
		Multiplier:   2,
	}
	err = utils.Retry(cfg, fn, entities.ErrOrderNotFound)

	if errors.Is(err, entities.ErrOrderNotFound) {
		// Never synthesize an order for an unknown reference.
		r.recordAnomaly(ctx, logger, entities.Anomaly{
			Reference: payment.ExternalReference,
			PaymentID: payment.ID,
			Reason:    entities.AnomalyUnknownReference,
			Detail:    "no order for payment reference",
		})
		return
	}
	if err != nil {
		reconciliationsTotal.WithLabelValues("store_error").Inc()
		logger.Error("failed to apply payment status", slog.Any("error", err))
		return
	}

	if !change.Applied {
		reconciliationsTotal.WithLabelValues("stale").Inc()
		logger.Info("stale event skipped",
			slog.String("order_status", string(change.Order.Status)),
			slog.String("payment_status", string(payment.Status)),
		)
		return
	}

	if data, err := change.Order.Marshal(); err == nil {
		r.cache.Set(change.Order.Reference, data)
	} else {
		// never leave a pre-transition snapshot behind
		r.cache.Remove(change.Order.Reference)
	}

	if err := r.events.PublishStatusChanged(ctx, change); err != nil {
		logger.Error("failed to publish status change", slog.Any("error", err))
	}

	logger.Info("payment status applied",
		slog.String("payment_status", string(payment.Status)),
		slog.String("status", string(change.Order.Status)),
		slog.String("previous", string(change.Previous)),
	)

	// Notify only on the edge that produced the first confirmation.
	if change.ConfirmedEdge() {
		reconciliationsTotal.WithLabelValues("confirmed").Inc()
		r.notifier.NotifyOrderConfirmed(ctx, notify.Snapshot{
			Order:   change.Order,
			Payment: payment,
		})
		return
	}
	reconciliationsTotal.WithLabelValues("applied").Inc()
}

func (r *Reconciler) recordAnomaly(ctx context.Context, logger *slog.Logger, a entities.Anomaly) {
	anomaliesTotal.WithLabelValues(a.Reason).Inc()
	reconciliationsTotal.WithLabelValues("anomaly").Inc()
	logger.Warn("reconciliation anomaly",
		slog.String("reason", a.Reason),
		slog.String("detail", a.Detail),
	)
	if err := r.repo.RecordAnomaly(ctx, a); err != nil {
		logger.Error("failed to record anomaly", slog.Any("error", err))
	}
}
