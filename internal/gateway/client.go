package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/petmat/checkout-service/internal/config"
	"github.com/petmat/checkout-service/internal/entities"
)

var (
	// ErrUnavailable covers transport failures, timeouts and 5xx responses.
	ErrUnavailable = errors.New("payment gateway unavailable")
	// ErrBadResponse covers 4xx responses and responses the client cannot use.
	ErrBadResponse = errors.New("payment gateway rejected the request")
)

// PreferenceSpec carries everything the gateway needs to host the payment
// flow for one order. Reference travels as external_reference and is the sole
// correlation key for later webhook reconciliation.
type PreferenceSpec struct {
	Reference    string
	Items        []entities.LineItem
	Customer     entities.Customer
	ShippingCost int64
	Total        int64
}

type Preference struct {
	ID          string
	RedirectURL string
}

type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	cfg        config.Gateway
}

func NewClient(logger *slog.Logger, cfg config.Gateway) *Client {
	return &Client{
		logger:     logger.With(slog.String("component", "gateway")),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

type preferenceItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CategoryID string `json:"category_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	CurrencyID string `json:"currency_id"`
}

type preferencePayer struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   struct {
		Number string `json:"number"`
	} `json:"phone"`
	Address struct {
		StreetName string `json:"street_name"`
		CityName   string `json:"city_name"`
		StateName  string `json:"state_name"`
	} `json:"address"`
}

type preferenceRequest struct {
	Items []preferenceItem `json:"items"`
	Payer preferencePayer  `json:"payer"`

	Shipments struct {
		Cost int64  `json:"cost"`
		Mode string `json:"mode"`
	} `json:"shipments"`

	BackURLs struct {
		Success string `json:"success"`
		Failure string `json:"failure"`
		Pending string `json:"pending"`
	} `json:"back_urls"`

	AutoReturn          string         `json:"auto_return"`
	ExternalReference   string         `json:"external_reference"`
	StatementDescriptor string         `json:"statement_descriptor"`
	NotificationURL     string         `json:"notification_url"`
	Metadata            map[string]any `json:"metadata"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreatePreference registers the payment preference for an order and returns
// the id and redirect URL the storefront sends the buyer to.
func (c *Client) CreatePreference(ctx context.Context, spec PreferenceSpec) (Preference, error) {
	req := preferenceRequest{
		Items:               make([]preferenceItem, 0, len(spec.Items)),
		AutoReturn:          "approved",
		ExternalReference:   spec.Reference,
		StatementDescriptor: c.cfg.StatementDescriptor,
		NotificationURL:     c.cfg.NotificationURL,
		Metadata: map[string]any{
			"customer_email": spec.Customer.Email,
			"items_count":    len(spec.Items),
			"total":          spec.Total,
		},
	}

	for _, it := range spec.Items {
		req.Items = append(req.Items, preferenceItem{
			ID:         it.ID,
			Title:      it.Title,
			CategoryID: "others",
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: c.cfg.Currency,
		})
	}

	first, rest, _ := strings.Cut(spec.Customer.Name, " ")
	req.Payer.Name = first
	req.Payer.Surname = rest
	req.Payer.Email = spec.Customer.Email
	req.Payer.Phone.Number = spec.Customer.Phone
	req.Payer.Address.StreetName = spec.Customer.Address
	req.Payer.Address.CityName = spec.Customer.City
	req.Payer.Address.StateName = spec.Customer.Region

	req.Shipments.Cost = spec.ShippingCost
	req.Shipments.Mode = "not_specified"

	req.BackURLs.Success = c.cfg.FrontendURL + "/success"
	req.BackURLs.Failure = c.cfg.FrontendURL + "/error"
	req.BackURLs.Pending = c.cfg.FrontendURL + "/success"

	var resp preferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &resp); err != nil {
		return Preference{}, err
	}

	if resp.ID == "" {
		return Preference{}, fmt.Errorf("%w: response carries no preference id", ErrBadResponse)
	}

	return Preference{ID: resp.ID, RedirectURL: resp.InitPoint}, nil
}

type paymentResponse struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	Payer             struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"payer"`
}

// GetPayment fetches the authoritative payment state by id.
func (c *Client) GetPayment(ctx context.Context, id string) (entities.Payment, error) {
	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil, &resp); err != nil {
		return entities.Payment{}, err
	}

	name := strings.TrimSpace(resp.Payer.FirstName + " " + resp.Payer.LastName)

	return entities.Payment{
		ID:                strconv.FormatInt(resp.ID, 10),
		Status:            entities.PaymentStatus(resp.Status),
		ExternalReference: resp.ExternalReference,
		TransactionAmount: int64(resp.TransactionAmount),
		PayerName:         name,
		PayerEmail:        resp.Payer.Email,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 500:
		return fmt.Errorf("%w: %s %s returned %d", ErrUnavailable, method, path, res.StatusCode)
	case res.StatusCode >= 400:
		return fmt.Errorf("%w: %s %s returned %d", ErrBadResponse, method, path, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrBadResponse, err)
	}
	return nil
}
