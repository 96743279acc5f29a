package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/petmat/checkout-service/internal/config"
	"github.com/petmat/checkout-service/internal/entities"
	"github.com/petmat/checkout-service/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string) *gateway.Client {
	return gateway.NewClient(testLogger(), config.Gateway{
		BaseURL:             baseURL,
		AccessToken:         "token-123",
		Timeout:             2 * time.Second,
		FrontendURL:         "https://shop.example.com",
		NotificationURL:     "https://api.example.com/webhooks/payment",
		Currency:            "CLP",
		StatementDescriptor: "PETMAT",
	})
}

func testSpec() gateway.PreferenceSpec {
	return gateway.PreferenceSpec{
		Reference: "ord_1_a",
		Items: []entities.LineItem{
			{ID: "sku1", Title: "Leash", Quantity: 2, UnitPrice: 5000},
		},
		Customer: entities.Customer{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			City:  "Santiago",
		},
		ShippingCost: 2990,
		Total:        12990,
	}
}

func TestClient_CreatePreference(t *testing.T) {
	var captured map[string]any
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]string{
			"id":         "pref-1",
			"init_point": "https://gw/redirect",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	pref, err := client.CreatePreference(context.Background(), testSpec())
	require.NoError(t, err)

	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://gw/redirect", pref.RedirectURL)
	assert.Equal(t, "Bearer token-123", gotAuth)

	assert.Equal(t, "ord_1_a", captured["external_reference"])
	assert.Equal(t, "https://api.example.com/webhooks/payment", captured["notification_url"])
	assert.Equal(t, "approved", captured["auto_return"])

	items, ok := captured["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Leash", item["title"])
	assert.Equal(t, "CLP", item["currency_id"])

	payer := captured["payer"].(map[string]any)
	assert.Equal(t, "Jane", payer["name"])
	assert.Equal(t, "Doe", payer["surname"])

	backURLs := captured["back_urls"].(map[string]any)
	assert.Equal(t, "https://shop.example.com/success", backURLs["success"])
	assert.Equal(t, "https://shop.example.com/error", backURLs["failure"])
}

func TestClient_CreatePreference_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: gateway.ErrUnavailable,
		},
		{
			name: "rejected request",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantErr: gateway.ErrBadResponse,
		},
		{
			name: "missing preference id",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"init_point": "https://gw/redirect"})
			},
			wantErr: gateway.ErrBadResponse,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("not json"))
			},
			wantErr: gateway.ErrBadResponse,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			client := newTestClient(srv.URL)
			_, err := client.CreatePreference(context.Background(), testSpec())
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestClient_CreatePreference_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.CreatePreference(context.Background(), testSpec())
	assert.ErrorIs(t, err, gateway.ErrUnavailable)
}

func TestClient_GetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payments/12345", r.URL.Path)
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"id":                 12345,
			"status":             "approved",
			"external_reference": "ord_1_a",
			"transaction_amount": 12990,
			"payer": map[string]string{
				"email":      "jane@example.com",
				"first_name": "Jane",
				"last_name":  "Doe",
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	payment, err := client.GetPayment(context.Background(), "12345")
	require.NoError(t, err)

	assert.Equal(t, "12345", payment.ID)
	assert.Equal(t, entities.PaymentApproved, payment.Status)
	assert.Equal(t, "ord_1_a", payment.ExternalReference)
	assert.Equal(t, int64(12990), payment.TransactionAmount)
	assert.Equal(t, "Jane Doe", payment.PayerName)
	assert.Equal(t, "jane@example.com", payment.PayerEmail)
}

func TestClient_GetPayment_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.GetPayment(context.Background(), "nope")
	assert.ErrorIs(t, err, gateway.ErrBadResponse)
}
