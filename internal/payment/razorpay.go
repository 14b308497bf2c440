package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/mobigear/backend-parts/internal/resilience"
)

const razorpayDefaultBaseURL = "https://api.razorpay.com/v1"

// Razorpay implements Provider against the Razorpay Orders API. Amounts
// cross the wire in paise.
type Razorpay struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	HTTP          resilience.HTTPClient
}

// Name identifies the gateway in logs and metrics.
func (Razorpay) Name() string { return "razorpay" }

// ToPaise converts a rupee amount to Razorpay's integer minor unit.
func ToPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// CreateOrder opens a gateway order for the given checkout.
func (rz Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	if strings.TrimSpace(req.CheckoutID) == "" {
		return OrderResponse{}, errors.New("checkout id is required")
	}
	if req.Amount <= 0 {
		return OrderResponse{}, errors.New("amount must be positive")
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	payload := map[string]any{
		"amount":   ToPaise(req.Amount),
		"currency": currency,
		"receipt":  req.CheckoutID,
	}
	if len(req.Notes) > 0 {
		payload["notes"] = req.Notes
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return OrderResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, rz.baseURL()+"/orders", bytes.NewReader(body))
	if err != nil {
		return OrderResponse{}, err
	}
	httpReq.SetBasicAuth(rz.KeyID, rz.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := rz.HTTP.Do(ctx, httpReq)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("razorpay create order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return OrderResponse{}, fmt.Errorf("razorpay create order: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var order razorpayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return OrderResponse{}, fmt.Errorf("razorpay decode order: %w", err)
	}
	if order.ID == "" {
		return OrderResponse{}, errors.New("razorpay returned an empty order id")
	}
	return OrderResponse{
		Provider:       "razorpay",
		GatewayOrderID: order.ID,
		Amount:         float64(order.Amount) / 100,
		Currency:       order.Currency,
	}, nil
}

// VerifyWebhook checks the X-Razorpay-Signature header (HMAC-SHA256 of
// the raw body) and extracts the payment entity.
func (rz Razorpay) VerifyWebhook(r *http.Request, body []byte) WebhookResult {
	expected := rz.computeSignature(body)
	provided := strings.TrimSpace(r.Header.Get("X-Razorpay-Signature"))
	if expected == "" || provided == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return WebhookResult{Valid: false, Err: errors.New("invalid signature")}
	}

	var payload struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
					Status  string `json:"status"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookResult{Valid: false, Err: err}
	}
	return WebhookResult{
		Valid:          true,
		Event:          payload.Event,
		GatewayOrderID: payload.Payload.Payment.Entity.OrderID,
		PaymentID:      payload.Payload.Payment.Entity.ID,
	}
}

func (rz Razorpay) computeSignature(body []byte) string {
	secret := strings.TrimSpace(rz.WebhookSecret)
	if secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (rz Razorpay) baseURL() string {
	host := strings.TrimRight(strings.TrimSpace(rz.BaseURL), "/")
	if host == "" {
		return razorpayDefaultBaseURL
	}
	return host
}
