package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mobigear/backend-parts/internal/cart"
	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/events"
	"github.com/mobigear/backend-parts/internal/obs"
	"github.com/mobigear/backend-parts/internal/payment"
	"github.com/mobigear/backend-parts/internal/pricing"
	"github.com/mobigear/backend-parts/internal/store"
)

// Boundary validation messages surfaced to the storefront.
const (
	MsgEmptyCart         = "Product List Is Empty"
	MsgNonPositiveTotal  = "Price should be greater than 0"
	MsgIncompleteAddress = "Shipping Address Is Incomplete"
)

// Carts captures the cart access checkout needs.
type Carts interface {
	ForUser(ctx context.Context, userID string) (store.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// Quoter recomputes the authoritative price breakdown for a cart.
type Quoter interface {
	Quote(ctx context.Context, c store.Cart) (pricing.Breakdown, error)
}

// Orders captures order persistence for checkout.
type Orders interface {
	Place(ctx context.Context, order store.Order) (string, error)
	SetGatewayOrder(ctx context.Context, id, rzpOrderID string) error
}

// Queue publishes post-checkout tasks.
type Queue interface {
	OrderCreated(ctx context.Context, p events.OrderCreatedPayload) error
}

// Service finalises a checkout: it revalidates the cart at the
// submission boundary, recomputes the breakdown from scratch, opens the
// gateway order for the amount due now, and persists everything.
type Service struct {
	carts   Carts
	quoter  Quoter
	orders  Orders
	gateway payment.Provider
	queue   Queue
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Carts   Carts
	Quoter  Quoter
	Orders  Orders
	Gateway payment.Provider
	Queue   Queue
	Logger  zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		carts:   cfg.Carts,
		quoter:  cfg.Quoter,
		orders:  cfg.Orders,
		gateway: cfg.Gateway,
		queue:   cfg.Queue,
		logger:  cfg.Logger,
	}
}

// SubmitInput is the checkout submission payload.
type SubmitInput struct {
	Address store.Address `json:"address"`
}

// Result is the tuple the storefront needs to start (or skip) payment.
type Result struct {
	CheckoutID      string  `json:"checkoutId"`
	RazorpayOrderID string  `json:"razorpayOrderId,omitempty"`
	Amount          float64 `json:"amount"`
}

// Submit places the order. The amount charged now is the full total for
// online payment and the advance for COD; either way it goes through
// the gateway.
func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (result Result, err error) {
	mode := "online"
	defer func() {
		if obs.CheckoutTotal == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "rejected"
		}
		obs.CheckoutTotal.WithLabelValues(mode, outcome).Inc()
	}()

	c, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("load cart: %w", err)
	}
	if c.PaymentMode != "" {
		mode = string(c.PaymentMode)
	}
	if len(c.Lines) == 0 {
		return Result{}, common.BadRequest(MsgEmptyCart)
	}
	if err := validateAddress(in.Address); err != nil {
		return Result{}, err
	}
	if c.PaymentMode == pricing.PaymentCOD && len(c.AppliedCoupons) > 0 {
		return Result{}, common.BadRequest(cart.MsgCODUnavailable)
	}

	breakdown, err := s.quoter.Quote(ctx, c)
	if err != nil {
		return Result{}, err
	}
	if breakdown.Total <= 0 {
		return Result{}, common.BadRequest(MsgNonPositiveTotal)
	}
	amount := breakdown.Total
	if c.PaymentMode == pricing.PaymentCOD {
		amount = breakdown.Advance
	}

	orderID, err := s.orders.Place(ctx, store.Order{
		UserID:         userID,
		Lines:          c.Lines,
		AppliedCoupons: c.AppliedCoupons,
		PaymentMode:    c.PaymentMode,
		DeliveryType:   c.DeliveryType,
		Address:        in.Address,
		Breakdown:      breakdown,
	})
	if err != nil {
		return Result{}, fmt.Errorf("place order: %w", err)
	}

	gw, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		CheckoutID: orderID,
		Amount:     amount,
		Notes:      map[string]string{"userId": userID},
	})
	if err != nil {
		return Result{}, fmt.Errorf("open gateway order: %w", err)
	}
	if err := s.orders.SetGatewayOrder(ctx, orderID, gw.GatewayOrderID); err != nil {
		return Result{}, fmt.Errorf("record gateway order: %w", err)
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("clear cart after checkout")
	}
	if s.queue != nil {
		err := s.queue.OrderCreated(ctx, events.OrderCreatedPayload{
			OrderID:     orderID,
			UserID:      userID,
			PaymentMode: string(c.PaymentMode),
			Total:       breakdown.Total,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", orderID).Msg("enqueue order created")
		}
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("gateway_order_id", gw.GatewayOrderID).
		Float64("amount", amount).
		Msg("checkout submitted")
	return Result{CheckoutID: orderID, RazorpayOrderID: gw.GatewayOrderID, Amount: amount}, nil
}

func validateAddress(a store.Address) error {
	for _, field := range []string{a.Name, a.Phone, a.Line1, a.City, a.State, a.Pincode} {
		if strings.TrimSpace(field) == "" {
			return common.BadRequest(MsgIncompleteAddress)
		}
	}
	return nil
}
