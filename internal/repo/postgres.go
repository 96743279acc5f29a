package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/petmat/checkout-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

var orderColumns = []string{
	"reference", "preference_id",
	"customer_name", "customer_email", "customer_phone",
	"customer_address", "customer_city", "customer_region",
	"items", "subtotal", "shipping_cost", "total",
	"status", "payment_status", "gateway_payment_id",
	"created_at", "updated_at",
}

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// InsertOrder persists a freshly checked-out order. The reference is unique
// and never reused; a collision is a hard error.
func (r *postgresRepo) InsertOrder(ctx context.Context, o entities.Order) error {
	items, err := encodeItems(o.Items)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	query, args := r.qb.Insert("orders").
		Columns(
			"reference", "preference_id",
			"customer_name", "customer_email", "customer_phone",
			"customer_address", "customer_city", "customer_region",
			"items", "subtotal", "shipping_cost", "total",
			"status", "payment_status",
		).
		Values(
			o.Reference, o.PreferenceID,
			o.Customer.Name, o.Customer.Email, nullString(o.Customer.Phone),
			nullString(o.Customer.Address), nullString(o.Customer.City), nullString(o.Customer.Region),
			items, o.Subtotal, o.ShippingCost, o.Total,
			string(o.Status), string(o.PaymentStatus),
		).
		MustSql()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return entities.ErrOrderExists
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetOrderByReference(ctx context.Context, reference string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"reference": reference}).
		MustSql()

	var row Order
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	return OrderToEntity(row)
}

// applyQuery updates payment state and the derived order status in a single
// conditional statement. The locking subselect pins the row and carries its
// pre-update status out through RETURNING. A concurrent duplicate delivery
// blocks on the row lock and, once it acquires it, reads the committed
// status, so only the first writer observes the edge into confirmed. A plain
// self-join is not enough here: under read committed the blocked statement
// re-evaluates against the latest version of the target row but keeps its
// snapshot of any independently scanned relation.
const applyQuery = `
UPDATE orders o SET
	payment_status = $1,
	status = CASE WHEN $1 = 'approved' THEN 'confirmed'
	              WHEN $1 = 'rejected' THEN 'cancelled'
	              ELSE 'pending' END,
	gateway_payment_id = COALESCE(o.gateway_payment_id, $2),
	updated_at = now()
FROM (
	SELECT reference, status AS prev_status
	FROM orders
	WHERE reference = $3
	FOR UPDATE
) prev
WHERE o.reference = prev.reference`

// stickyCond blocks regressions: once an order is terminal only another
// terminal payment state may overwrite it.
const stickyCond = `
  AND (o.status = 'pending' OR $1 IN ('approved', 'rejected'))`

const applyReturning = `
RETURNING o.reference, o.preference_id, o.customer_name, o.customer_email,
	o.customer_phone, o.customer_address, o.customer_city, o.customer_region,
	o.items, o.subtotal, o.shipping_cost, o.total, o.status, o.payment_status,
	o.gateway_payment_id, o.created_at, o.updated_at, prev.prev_status`

type appliedOrder struct {
	Order
	PrevStatus string `db:"prev_status"`
}

// ApplyPaymentStatus writes the authoritative payment state to the order and
// reports the transition. With sticky enabled a stale non-terminal event
// against a terminal order is skipped and returned with Applied=false.
func (r *postgresRepo) ApplyPaymentStatus(ctx context.Context, reference string, ps entities.PaymentStatus, paymentID string, sticky bool) (entities.StatusChange, error) {
	query := applyQuery
	if sticky {
		query += stickyCond
	}
	query += applyReturning

	var row appliedOrder
	err := r.db.GetContext(ctx, &row, query, string(ps), nullString(paymentID), reference)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the order does not exist or the sticky policy skipped the
		// write; a follow-up read tells them apart.
		current, getErr := r.GetOrderByReference(ctx, reference)
		if getErr != nil {
			return entities.StatusChange{}, getErr
		}
		return entities.StatusChange{Order: current, Previous: current.Status, Applied: false}, nil
	}
	if err != nil {
		return entities.StatusChange{}, fmt.Errorf("failed to apply payment status: %w", err)
	}

	order, err := OrderToEntity(row.Order)
	if err != nil {
		return entities.StatusChange{}, err
	}

	return entities.StatusChange{
		Order:    order,
		Previous: entities.OrderStatus(row.PrevStatus),
		Applied:  true,
	}, nil
}

// RecordAnomaly appends to the anomaly ledger. Anomalies are logged
// conditions, not failures; the webhook caller has already been acknowledged.
func (r *postgresRepo) RecordAnomaly(ctx context.Context, a entities.Anomaly) error {
	query, args := r.qb.Insert("payment_anomalies").
		Columns("reference", "gateway_payment_id", "reason", "detail").
		Values(nullString(a.Reference), nullString(a.PaymentID), a.Reason, nullString(a.Detail)).
		MustSql()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record anomaly: %w", err)
	}
	return nil
}
