package repo

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/petmat/checkout-service/internal/entities"
)

type Order struct {
	Reference    string `db:"reference"`
	PreferenceID string `db:"preference_id"`

	CustomerName    string         `db:"customer_name"`
	CustomerEmail   string         `db:"customer_email"`
	CustomerPhone   sql.NullString `db:"customer_phone"`
	CustomerAddress sql.NullString `db:"customer_address"`
	CustomerCity    sql.NullString `db:"customer_city"`
	CustomerRegion  sql.NullString `db:"customer_region"`

	Items []byte `db:"items"`

	Subtotal     int64 `db:"subtotal"`
	ShippingCost int64 `db:"shipping_cost"`
	Total        int64 `db:"total"`

	Status           string         `db:"status"`
	PaymentStatus    string         `db:"payment_status"`
	GatewayPaymentID sql.NullString `db:"gateway_payment_id"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type lineItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

func OrderToEntity(o Order) (entities.Order, error) {
	var items []lineItem
	if err := json.Unmarshal(o.Items, &items); err != nil {
		return entities.Order{}, fmt.Errorf("failed to decode line items: %w", err)
	}

	order := entities.Order{
		Reference:    o.Reference,
		PreferenceID: o.PreferenceID,
		Customer: entities.Customer{
			Name:    o.CustomerName,
			Email:   o.CustomerEmail,
			Phone:   nullStringToString(o.CustomerPhone),
			Address: nullStringToString(o.CustomerAddress),
			City:    nullStringToString(o.CustomerCity),
			Region:  nullStringToString(o.CustomerRegion),
		},
		Subtotal:      o.Subtotal,
		ShippingCost:  o.ShippingCost,
		Total:         o.Total,
		Status:        entities.OrderStatus(o.Status),
		PaymentStatus: entities.PaymentStatus(o.PaymentStatus),
		PaymentID:     nullStringToString(o.GatewayPaymentID),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.LineItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, entities.LineItem{
				ID:        it.ID,
				Title:     it.Title,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}
	}

	return order, nil
}

func encodeItems(items []entities.LineItem) ([]byte, error) {
	encoded := make([]lineItem, 0, len(items))
	for _, it := range items {
		encoded = append(encoded, lineItem{
			ID:        it.ID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return json.Marshal(encoded)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
