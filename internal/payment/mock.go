package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Mock synthesises deterministic gateway orders without network calls.
// Used in development and integration tests.
type Mock struct{}

// Name identifies the gateway in logs and metrics.
func (Mock) Name() string { return "mock" }

// CreateOrder derives the gateway order id from the checkout id.
func (Mock) CreateOrder(_ context.Context, req OrderRequest) (OrderResponse, error) {
	if strings.TrimSpace(req.CheckoutID) == "" {
		return OrderResponse{}, errors.New("checkout id is required")
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	return OrderResponse{
		Provider:       "mock",
		GatewayOrderID: fmt.Sprintf("order_mock_%s", req.CheckoutID),
		Amount:         req.Amount,
		Currency:       currency,
	}, nil
}

// VerifyWebhook accepts any payload carrying an X-Mock-Signature header.
func (Mock) VerifyWebhook(r *http.Request, body []byte) WebhookResult {
	if strings.TrimSpace(r.Header.Get("X-Mock-Signature")) == "" {
		return WebhookResult{Valid: false, Err: errors.New("missing signature")}
	}
	var payload struct {
		OrderID   string `json:"orderId"`
		PaymentID string `json:"paymentId"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookResult{Valid: false, Err: err}
	}
	return WebhookResult{Valid: true, Event: "payment.captured", GatewayOrderID: payload.OrderID, PaymentID: payload.PaymentID}
}
