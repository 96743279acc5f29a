package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromPayment(t *testing.T) {
	testCases := []struct {
		payment PaymentStatus
		want    OrderStatus
	}{
		{PaymentApproved, StatusConfirmed},
		{PaymentRejected, StatusCancelled},
		{PaymentPending, StatusPending},
		{PaymentInProcess, StatusPending},
		{PaymentStatus("refunded"), StatusPending},
	}

	for _, tc := range testCases {
		t.Run(string(tc.payment), func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFromPayment(tc.payment))
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusConfirmed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestStatusChange_ConfirmedEdge(t *testing.T) {
	testCases := []struct {
		name   string
		change StatusChange
		want   bool
	}{
		{
			name: "pending to confirmed",
			change: StatusChange{
				Order:    Order{Status: StatusConfirmed},
				Previous: StatusPending,
				Applied:  true,
			},
			want: true,
		},
		{
			name: "confirmed replay",
			change: StatusChange{
				Order:    Order{Status: StatusConfirmed},
				Previous: StatusConfirmed,
				Applied:  true,
			},
			want: false,
		},
		{
			name: "skipped write",
			change: StatusChange{
				Order:    Order{Status: StatusConfirmed},
				Previous: StatusPending,
				Applied:  false,
			},
			want: false,
		},
		{
			name: "cancellation",
			change: StatusChange{
				Order:    Order{Status: StatusCancelled},
				Previous: StatusPending,
				Applied:  true,
			},
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.change.ConfirmedEdge())
		})
	}
}

func TestOrder_MarshalRoundTrip(t *testing.T) {
	order := Order{
		Reference:     "ord_1_a",
		PreferenceID:  "pref-1",
		Customer:      Customer{Name: "Jane Doe", Email: "jane@example.com"},
		Items:         []LineItem{{ID: "sku1", Title: "Leash", Quantity: 2, UnitPrice: 5000}},
		Subtotal:      10000,
		ShippingCost:  2990,
		Total:         12990,
		Status:        StatusConfirmed,
		PaymentStatus: PaymentApproved,
		PaymentID:     "pay-1",
	}

	data, err := order.Marshal()
	require.NoError(t, err)

	var got Order
	require.NoError(t, got.Unmarshal(data))
	assert.Equal(t, order, got)
}

func TestOrder_UnmarshalGarbage(t *testing.T) {
	var order Order
	assert.ErrorIs(t, order.Unmarshal([]byte("garbage")), ErrInvalidOrder)
}
