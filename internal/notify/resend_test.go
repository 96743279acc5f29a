package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/petmat/checkout-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendClient_Send(t *testing.T) {
	var captured sendRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewResendClient(config.Email{BaseURL: srv.URL, APIKey: "re_key"})
	err := client.Send(context.Background(), "store@example.com", "jane@example.com", "Subject", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_key", gotAuth)
	assert.Equal(t, "store@example.com", captured.From)
	assert.Equal(t, []string{"jane@example.com"}, captured.To)
	assert.Equal(t, "Subject", captured.Subject)
	assert.Equal(t, "<p>hi</p>", captured.HTML)
}

func TestResendClient_SendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewResendClient(config.Email{BaseURL: srv.URL, APIKey: "re_key"})
	err := client.Send(context.Background(), "store@example.com", "jane@example.com", "Subject", "<p>hi</p>")
	assert.Error(t, err)
}
