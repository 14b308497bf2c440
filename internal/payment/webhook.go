package payment

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/obs"
	"github.com/mobigear/backend-parts/internal/store"
)

const maxWebhookBody = 1 << 20

// EventPaymentCaptured is the gateway event that settles an order.
const EventPaymentCaptured = "payment.captured"

// OrderMarker captures the order mutations the webhook needs.
type OrderMarker interface {
	ByRazorpayOrder(ctx context.Context, gatewayOrderID string) (store.Doc[store.Order], error)
	MarkPaid(ctx context.Context, id, paymentID string) error
}

// Enqueue pushes the post-payment follow-up work onto the task queue.
type Enqueue interface {
	ShippingSync(ctx context.Context, orderID string) error
}

// WebhookHandler receives gateway notifications, verifies them, and
// settles the matching order.
type WebhookHandler struct {
	Provider Provider
	Orders   OrderMarker
	Queue    Enqueue
	Logger   zerolog.Logger
}

// Handle processes POST /api/v1/payments/webhook. The gateway retries
// on non-2xx, so already-settled and unknown orders both return 200.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.record("bad_body")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable body", nil)
		return
	}
	result := h.Provider.VerifyWebhook(r, body)
	if !result.Valid {
		h.record("invalid_signature")
		h.Logger.Warn().AnErr("cause", result.Err).Msg("rejected payment webhook")
		common.JSONError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}
	if result.Event != EventPaymentCaptured {
		h.record("ignored")
		common.JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ctx := r.Context()
	doc, err := h.Orders.ByRazorpayOrder(ctx, result.GatewayOrderID)
	if errors.Is(err, store.ErrNotFound) {
		h.record("unknown_order")
		h.Logger.Warn().Str("gateway_order_id", result.GatewayOrderID).Msg("webhook for unknown order")
		common.JSON(w, http.StatusOK, map[string]string{"status": "unknown_order"})
		return
	}
	if err != nil {
		h.record("error")
		common.WriteError(w, err)
		return
	}
	if doc.Data.PaymentID != "" {
		h.record("already_settled")
		common.JSON(w, http.StatusOK, map[string]string{"status": "already_settled"})
		return
	}
	if err := h.Orders.MarkPaid(ctx, doc.ID, result.PaymentID); err != nil {
		h.record("error")
		common.WriteError(w, err)
		return
	}
	if h.Queue != nil {
		if err := h.Queue.ShippingSync(ctx, doc.ID); err != nil {
			h.Logger.Error().Err(err).Str("order_id", doc.ID).Msg("enqueue shipping sync")
		}
	}
	h.record("settled")
	h.Logger.Info().Str("order_id", doc.ID).Str("payment_id", result.PaymentID).Msg("order settled")
	common.JSON(w, http.StatusOK, map[string]string{"status": "settled"})
}

func (h *WebhookHandler) record(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues(h.Provider.Name(), result).Inc()
	}
}
