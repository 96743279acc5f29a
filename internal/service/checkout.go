package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/petmat/checkout-service/internal/config"
	"github.com/petmat/checkout-service/internal/entities"
	"github.com/petmat/checkout-service/internal/gateway"

	"github.com/google/uuid"
)

var ErrInvalidCheckout = errors.New("invalid checkout input")

type PreferenceCreator interface {
	CreatePreference(ctx context.Context, spec gateway.PreferenceSpec) (gateway.Preference, error)
}

type OrderInserter interface {
	InsertOrder(ctx context.Context, o entities.Order) error
	RecordAnomaly(ctx context.Context, a entities.Anomaly) error
}

type CheckoutInput struct {
	Items    []entities.LineItem
	Customer entities.Customer
	// ShippingCost is nil when the caller did not supply one; the configured
	// default applies.
	ShippingCost *int64
}

type CheckoutResult struct {
	PreferenceID string
	RedirectURL  string
	Reference    string
}

type checkoutService struct {
	logger  *slog.Logger
	gateway PreferenceCreator
	repo    OrderInserter
	cfg     config.Checkout
}

func NewCheckoutService(logger *slog.Logger, gw PreferenceCreator, repo OrderInserter, cfg config.Checkout) *checkoutService {
	return &checkoutService{
		logger:  logger.With(slog.String("service", "checkout")),
		gateway: gw,
		repo:    repo,
		cfg:     cfg,
	}
}

// Submit validates the cart, creates the gateway preference and persists the
// order. The order row is written only after the gateway call succeeds, so a
// gateway failure leaves no local state behind.
func (s *checkoutService) Submit(ctx context.Context, input CheckoutInput) (CheckoutResult, error) {
	if err := validateInput(input); err != nil {
		checkoutFailedTotal.WithLabelValues("validation").Inc()
		return CheckoutResult{}, err
	}

	var subtotal int64
	for _, it := range input.Items {
		subtotal += it.UnitPrice * int64(it.Quantity)
	}

	shippingCost := s.cfg.DefaultShippingCost
	if input.ShippingCost != nil {
		shippingCost = *input.ShippingCost
	}
	total := subtotal + shippingCost

	reference := NewReference()

	pref, err := s.gateway.CreatePreference(ctx, gateway.PreferenceSpec{
		Reference:    reference,
		Items:        input.Items,
		Customer:     input.Customer,
		ShippingCost: shippingCost,
		Total:        total,
	})
	if err != nil {
		checkoutFailedTotal.WithLabelValues("gateway").Inc()
		return CheckoutResult{}, fmt.Errorf("failed to create preference: %w", err)
	}

	now := time.Now()
	order := entities.Order{
		Reference:     reference,
		PreferenceID:  pref.ID,
		Customer:      input.Customer,
		Items:         input.Items,
		Subtotal:      subtotal,
		ShippingCost:  shippingCost,
		Total:         total,
		Status:        entities.StatusPending,
		PaymentStatus: entities.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.InsertOrder(ctx, order); err != nil {
		checkoutFailedTotal.WithLabelValues("persistence").Inc()
		// The gateway preference already exists with no matching row. The
		// webhook for this reference will surface as an unknown-reference
		// anomaly; record the dangling preference now so both ends are
		// visible in the ledger.
		s.logger.Error("order insert failed after preference creation",
			slog.String("reference", reference),
			slog.String("preference_id", pref.ID),
			slog.Any("error", err),
		)
		anomaliesTotal.WithLabelValues(entities.AnomalyDanglingPreference).Inc()
		if recErr := s.repo.RecordAnomaly(ctx, entities.Anomaly{
			Reference: reference,
			Reason:    entities.AnomalyDanglingPreference,
			Detail:    "preference " + pref.ID + " has no order row",
		}); recErr != nil {
			s.logger.Error("failed to record anomaly", slog.Any("error", recErr))
		}
		return CheckoutResult{}, fmt.Errorf("failed to persist order: %w", err)
	}

	ordersCreatedTotal.Inc()
	s.logger.Info("order created",
		slog.String("reference", reference),
		slog.String("preference_id", pref.ID),
		slog.Int64("total", total),
	)

	return CheckoutResult{
		PreferenceID: pref.ID,
		RedirectURL:  pref.RedirectURL,
		Reference:    reference,
	}, nil
}

func validateInput(input CheckoutInput) error {
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: cart is empty", ErrInvalidCheckout)
	}
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %q has non-positive quantity", ErrInvalidCheckout, it.ID)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("%w: item %q has negative price", ErrInvalidCheckout, it.ID)
		}
	}
	if input.Customer.Name == "" || input.Customer.Email == "" {
		return fmt.Errorf("%w: customer name and email are required", ErrInvalidCheckout)
	}
	if input.ShippingCost != nil && *input.ShippingCost < 0 {
		return fmt.Errorf("%w: negative shipping cost", ErrInvalidCheckout)
	}
	return nil
}

// NewReference generates the idempotency key correlating the local order with
// the gateway preference: a millisecond timestamp plus 122 random bits, so
// collisions are negligible and the value is not forgeable beyond its time
// component.
func NewReference() string {
	id := uuid.New()
	return fmt.Sprintf("ord_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(id[:]))
}
