package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mobigear/backend-parts/internal/resilience"
)

func TestToPaiseRoundsToNearest(t *testing.T) {
	require.Equal(t, int64(100000), ToPaise(1000))
	require.Equal(t, int64(68001), ToPaise(680.01))
	require.Equal(t, int64(23550), ToPaise(235.50))
}

func TestCreateOrderSendsPaiseAndBasicAuth(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(razorpayOrder{ID: "order_abc", Amount: 68000, Currency: "INR", Status: "created"})
	}))
	defer srv.Close()

	rz := Razorpay{
		KeyID:     "key",
		KeySecret: "secret",
		BaseURL:   srv.URL,
		HTTP:      resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 1, Timeout: time.Second},
	}
	resp, err := rz.CreateOrder(context.Background(), OrderRequest{CheckoutID: "chk-1", Amount: 680})
	require.NoError(t, err)
	require.Equal(t, "order_abc", resp.GatewayOrderID)
	require.Equal(t, 680.0, resp.Amount)
	require.Equal(t, float64(68000), gotBody["amount"])
	require.Equal(t, "chk-1", gotBody["receipt"])
	require.Equal(t, "INR", gotBody["currency"])
	require.NotEmpty(t, gotAuth)
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	rz := Razorpay{HTTP: resilience.HTTPClient{Client: http.DefaultClient}}
	_, err := rz.CreateOrder(context.Background(), OrderRequest{CheckoutID: "", Amount: 100})
	require.Error(t, err)
	_, err = rz.CreateOrder(context.Background(), OrderRequest{CheckoutID: "chk-1", Amount: 0})
	require.Error(t, err)
}

func TestCreateOrderRetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(razorpayOrder{ID: "order_retry", Amount: 10000, Currency: "INR"})
	}))
	defer srv.Close()

	rz := Razorpay{
		KeyID:     "key",
		KeySecret: "secret",
		BaseURL:   srv.URL,
		HTTP: resilience.HTTPClient{
			Client:      srv.Client(),
			MaxAttempts: 3,
			BaseBackoff: time.Millisecond,
			Timeout:     time.Second,
		},
	}
	resp, err := rz.CreateOrder(context.Background(), OrderRequest{CheckoutID: "chk-2", Amount: 100})
	require.NoError(t, err)
	require.Equal(t, "order_retry", resp.GatewayOrderID)
	require.Equal(t, 2, attempts)
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedWebhookBody(orderID, paymentID string) []byte {
	body, _ := json.Marshal(map[string]any{
		"event": "payment.captured",
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       paymentID,
					"order_id": orderID,
					"status":   "captured",
				},
			},
		},
	})
	return body
}

func TestVerifyWebhookAcceptsValidSignature(t *testing.T) {
	rz := Razorpay{WebhookSecret: "whsec"}
	body := capturedWebhookBody("order_abc", "pay_123")
	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	req.Header.Set("X-Razorpay-Signature", signBody("whsec", body))

	result := rz.VerifyWebhook(req, body)
	require.True(t, result.Valid)
	require.Equal(t, "payment.captured", result.Event)
	require.Equal(t, "order_abc", result.GatewayOrderID)
	require.Equal(t, "pay_123", result.PaymentID)
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	rz := Razorpay{WebhookSecret: "whsec"}
	body := capturedWebhookBody("order_abc", "pay_123")
	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	req.Header.Set("X-Razorpay-Signature", "deadbeef")

	result := rz.VerifyWebhook(req, body)
	require.False(t, result.Valid)
}

func TestVerifyWebhookRejectsWhenSecretUnset(t *testing.T) {
	rz := Razorpay{}
	body := capturedWebhookBody("order_abc", "pay_123")
	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	req.Header.Set("X-Razorpay-Signature", signBody("", body))

	result := rz.VerifyWebhook(req, body)
	require.False(t, result.Valid)
}
