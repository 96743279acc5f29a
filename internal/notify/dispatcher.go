package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/petmat/checkout-service/internal/config"
	"github.com/petmat/checkout-service/internal/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var emailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "checkout_service",
	Subsystem: "notify",
	Name:      "emails_total",
	Help:      "Total confirmation email attempts by recipient kind and result.",
}, []string{"kind", "result"})

type Sender interface {
	Send(ctx context.Context, from, to, subject, html string) error
}

// Snapshot is the resolved order+payment view a confirmation is rendered from.
type Snapshot struct {
	Order   entities.Order
	Payment entities.Payment
}

// Dispatcher sends the two confirmation emails. Every send is best-effort:
// a failure is logged and counted, never propagated to reconciliation.
type Dispatcher struct {
	logger     *slog.Logger
	sender     Sender
	from       string
	adminEmail string
}

// NewDispatcher builds the dispatcher. A nil sender (no provider credential
// configured) degrades every dispatch to a logged no-op.
func NewDispatcher(logger *slog.Logger, sender Sender, cfg config.Email) *Dispatcher {
	return &Dispatcher{
		logger:     logger.With(slog.String("component", "notify")),
		sender:     sender,
		from:       cfg.From,
		adminEmail: cfg.AdminEmail,
	}
}

// NotifyOrderConfirmed sends the customer confirmation and the admin alert.
// The two sends are independent; failure of one does not block the other.
func (d *Dispatcher) NotifyOrderConfirmed(ctx context.Context, snap Snapshot) {
	if snap.Order.Customer.Email == "" {
		d.logger.Warn("order has no customer email, skipping notifications",
			slog.String("reference", snap.Order.Reference))
		return
	}

	if d.sender == nil {
		d.logger.Warn("email provider not configured, notifications disabled",
			slog.String("reference", snap.Order.Reference))
		return
	}

	customerHTML, err := render(customerTmpl, snap)
	if err != nil {
		d.logger.Error("failed to render customer email", slog.Any("error", err))
	} else {
		d.send(ctx, "customer", snap.Order.Customer.Email,
			fmt.Sprintf("Thank you for your purchase! Order %s", snap.Order.Reference),
			customerHTML)
	}

	if d.adminEmail == "" {
		return
	}
	adminHTML, err := render(adminTmpl, snap)
	if err != nil {
		d.logger.Error("failed to render admin email", slog.Any("error", err))
		return
	}
	d.send(ctx, "admin", d.adminEmail,
		fmt.Sprintf("New sale - Order %s", snap.Order.Reference),
		adminHTML)
}

func (d *Dispatcher) send(ctx context.Context, kind, to, subject, html string) {
	if err := d.sender.Send(ctx, d.from, to, subject, html); err != nil {
		emailsTotal.WithLabelValues(kind, "error").Inc()
		d.logger.Error("failed to send email",
			slog.String("kind", kind),
			slog.String("to", to),
			slog.Any("error", err),
		)
		return
	}
	emailsTotal.WithLabelValues(kind, "ok").Inc()
	d.logger.Info("email sent", slog.String("kind", kind), slog.String("to", to))
}
