package handler

import (
	"time"

	"github.com/petmat/checkout-service/internal/entities"
	"github.com/petmat/checkout-service/internal/service"
)

// CheckoutRequest is the checkout submission body
type CheckoutRequest struct {
	Cart     []CartItem    `json:"cart" validate:"required,min=1,dive"`
	Customer CustomerInfo  `json:"customer" validate:"required"`
	Shipping *ShippingInfo `json:"shipping"`
}

// CartItem is one line of the submitted cart
type CartItem struct {
	ID       string `json:"id"`
	Title    string `json:"title" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Price    int64  `json:"price" validate:"gte=0"`
}

// CustomerInfo identifies the buyer; email is the notification target
type CustomerInfo struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Region  string `json:"region,omitempty"`
}

type ShippingInfo struct {
	Cost *int64 `json:"cost" validate:"omitempty,gte=0"`
}

// CheckoutResponse carries the gateway redirect for the storefront
type CheckoutResponse struct {
	PreferenceID string `json:"preferenceId"`
	RedirectURL  string `json:"redirectUrl"`
	Reference    string `json:"reference"`
}

// WebhookRequest is the gateway's payment notification body
type WebhookRequest struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// OrderResponse is the order snapshot returned on the read path
type OrderResponse struct {
	Reference     string       `json:"reference"`
	PreferenceID  string       `json:"preference_id"`
	Customer      CustomerInfo `json:"customer"`
	Items         []CartItem   `json:"items"`
	Subtotal      int64        `json:"subtotal"`
	ShippingCost  int64        `json:"shipping_cost"`
	Total         int64        `json:"total"`
	Status        string       `json:"status"`
	PaymentStatus string       `json:"payment_status"`
	PaymentID     string       `json:"payment_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func CheckoutInputFromJSON(req CheckoutRequest) service.CheckoutInput {
	items := make([]entities.LineItem, 0, len(req.Cart))
	for _, it := range req.Cart {
		items = append(items, entities.LineItem{
			ID:        it.ID,
			Title:     it.Title,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}

	input := service.CheckoutInput{
		Items: items,
		Customer: entities.Customer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
			City:    req.Customer.City,
			Region:  req.Customer.Region,
		},
	}
	if req.Shipping != nil {
		input.ShippingCost = req.Shipping.Cost
	}
	return input
}

func OrderEntityToJSON(o entities.Order) OrderResponse {
	items := make([]CartItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, CartItem{
			ID:       it.ID,
			Title:    it.Title,
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
		})
	}

	return OrderResponse{
		Reference:    o.Reference,
		PreferenceID: o.PreferenceID,
		Customer: CustomerInfo{
			Name:    o.Customer.Name,
			Email:   o.Customer.Email,
			Phone:   o.Customer.Phone,
			Address: o.Customer.Address,
			City:    o.Customer.City,
			Region:  o.Customer.Region,
		},
		Items:         items,
		Subtotal:      o.Subtotal,
		ShippingCost:  o.ShippingCost,
		Total:         o.Total,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentID:     o.PaymentID,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
