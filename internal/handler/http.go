package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/petmat/checkout-service/internal/entities"
	"github.com/petmat/checkout-service/internal/gateway"
	"github.com/petmat/checkout-service/internal/service"
	"github.com/petmat/checkout-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CheckoutService interface {
	Submit(ctx context.Context, input service.CheckoutInput) (service.CheckoutResult, error)
}

type OrderGetter interface {
	GetOrderByReference(ctx context.Context, reference string) (entities.Order, error)
}

// WebhookQueue accepts a payment id for out-of-band reconciliation.
type WebhookQueue interface {
	Enqueue(paymentID string) bool
}

type HTTPHandler struct {
	logger   *slog.Logger
	validate *validator.Validate

	checkout CheckoutService
	orders   OrderGetter
	queue    WebhookQueue

	webhookSecret string
}

func NewHTTPHandler(logger *slog.Logger, checkout CheckoutService, orders OrderGetter, queue WebhookQueue, webhookSecret string) *HTTPHandler {
	return &HTTPHandler{
		logger:        logger.With(slog.String("handler", "http")),
		validate:      validator.New(),
		checkout:      checkout,
		orders:        orders,
		queue:         queue,
		webhookSecret: webhookSecret,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Post("/checkout", h.SubmitCheckout)
	r.Post("/webhooks/payment", h.PaymentWebhook)
	r.Get("/orders/{reference}", h.GetOrderByReference)
	r.Get("/health", h.Health)
}

// SubmitCheckout creates the payment preference and persists the order.
// @Summary      Submit a checkout
// @Description  Validates the cart, creates a gateway payment preference and persists the order
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        body  body      CheckoutRequest  true  "Cart, customer and shipping data"
// @Success      200   {object}  CheckoutResponse
// @Failure      400   {object}  utils.ValidationErrorResponse "Validation error"
// @Failure      500   {object}  utils.ErrorResponse "Gateway or persistence error"
// @Router       /checkout [post]
func (h *HTTPHandler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CheckoutRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	result, err := h.checkout.Submit(ctx, CheckoutInputFromJSON(req))
	if errors.Is(err, service.ErrInvalidCheckout) {
		utils.WriteError(w, "invalid checkout input", http.StatusBadRequest)
		return
	}
	if err != nil {
		// Generic message only: gateway details and credentials never reach
		// the caller.
		h.logger.ErrorContext(ctx, "checkout failed", slog.Any("error", err))
		utils.WriteError(w, "failed to process checkout", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, CheckoutResponse{
		PreferenceID: result.PreferenceID,
		RedirectURL:  result.RedirectURL,
		Reference:    result.Reference,
	}, http.StatusOK)
}

// PaymentWebhook receives payment notifications from the gateway.
// @Summary      Receive a payment webhook
// @Description  Verifies the signature, acknowledges immediately and reconciles out of band
// @Tags         webhooks
// @Accept       json
// @Produce      plain
// @Param        body  body      WebhookRequest  true  "Gateway notification"
// @Success      200   {string}  string  "OK"
// @Failure      401   {object}  utils.ErrorResponse "Invalid signature"
// @Router       /webhooks/payment [post]
func (h *HTTPHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		webhooksTotal.WithLabelValues("bad_body").Inc()
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := gateway.VerifySignature(
		h.webhookSecret,
		r.Header.Get("x-signature"),
		r.Header.Get("x-request-id"),
		req.Data.ID,
	)
	if err != nil {
		webhooksTotal.WithLabelValues("rejected").Inc()
		h.logger.Warn("webhook signature verification failed",
			slog.String("remote", r.RemoteAddr))
		utils.WriteError(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	// The acknowledgment promises acceptance, not successful reconciliation.
	// Anything slow or failable happens on the worker pool.
	if req.Type != "payment" || req.Data.ID == "" {
		webhooksTotal.WithLabelValues("ignored").Inc()
	} else if h.queue.Enqueue(req.Data.ID) {
		webhooksTotal.WithLabelValues("accepted").Inc()
	} else {
		// still acknowledged; the provider redelivers dropped events
		webhooksTotal.WithLabelValues("dropped").Inc()
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GetOrderByReference returns an order snapshot.
// @Summary      Get an order by reference
// @Description  Returns the order snapshot for a checkout reference
// @Tags         orders
// @Produce      json
// @Param        reference  path      string  true  "Checkout reference"
// @Success      200  {object}  OrderResponse
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal server error"
// @Router       /orders/{reference} [get]
func (h *HTTPHandler) GetOrderByReference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reference := chi.URLParam(r, "reference")

	if err := h.validate.Var(reference, "required"); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.orders.GetOrderByReference(ctx, reference)

	if errors.Is(err, entities.ErrOrderNotFound) {
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get order",
			slog.Any("error", err), slog.String("reference", reference))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrderEntityToJSON(order), http.StatusOK)
}

// Health reports liveness.
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}
