package payment

import (
	"context"
	"net/http"
)

// OrderRequest captures what the gateway needs to open a payment order.
// Amount is in rupees; providers convert to their own minor unit.
type OrderRequest struct {
	CheckoutID string
	Amount     float64
	Currency   string
	Notes      map[string]string
}

// OrderResponse is the minimal gateway order handle the storefront needs
// to start the client-side payment flow.
type OrderResponse struct {
	Provider       string
	GatewayOrderID string
	Amount         float64
	Currency       string
}

// WebhookResult contains the normalised data extracted from a webhook
// notification after signature verification.
type WebhookResult struct {
	Valid          bool
	Event          string
	GatewayOrderID string
	PaymentID      string
	Err            error
}

// Provider abstracts the upstream payment gateway.
type Provider interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (OrderResponse, error)
	VerifyWebhook(r *http.Request, body []byte) WebhookResult
}
