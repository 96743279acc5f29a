package entities

type PaymentStatus string

// Known gateway payment states. The gateway may report states outside this
// list; anything that is not approved or rejected derives a pending order.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentApproved  PaymentStatus = "approved"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentInProcess PaymentStatus = "in_process"
)

// StatusFromPayment derives the order status from a gateway payment status.
// This is the only place the derivation lives; no other code path sets an
// order status directly.
func StatusFromPayment(ps PaymentStatus) OrderStatus {
	switch ps {
	case PaymentApproved:
		return StatusConfirmed
	case PaymentRejected:
		return StatusCancelled
	default:
		return StatusPending
	}
}

// Payment is the authoritative payment state fetched from the gateway.
// Webhook bodies are never trusted for status; this view is.
type Payment struct {
	ID                string
	Status            PaymentStatus
	ExternalReference string
	TransactionAmount int64
	PayerName         string
	PayerEmail        string
}
