package checkout

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/events"
	"github.com/mobigear/backend-parts/internal/payment"
	"github.com/mobigear/backend-parts/internal/pricing"
	"github.com/mobigear/backend-parts/internal/store"
)

type fakeCarts struct {
	cart    store.Cart
	cleared bool
}

func (f *fakeCarts) ForUser(ctx context.Context, userID string) (store.Cart, error) {
	return f.cart, nil
}

func (f *fakeCarts) Clear(ctx context.Context, userID string) error {
	f.cleared = true
	return nil
}

type fakeQuoter struct {
	breakdown pricing.Breakdown
}

func (f *fakeQuoter) Quote(ctx context.Context, c store.Cart) (pricing.Breakdown, error) {
	return f.breakdown, nil
}

type fakeOrderStore struct {
	placed  *store.Order
	gateway map[string]string
}

func (f *fakeOrderStore) Place(ctx context.Context, order store.Order) (string, error) {
	f.placed = &order
	return "ord-1", nil
}

func (f *fakeOrderStore) SetGatewayOrder(ctx context.Context, id, rzpOrderID string) error {
	f.gateway[id] = rzpOrderID
	return nil
}

type fakeCheckoutQueue struct {
	events []events.OrderCreatedPayload
}

func (f *fakeCheckoutQueue) OrderCreated(ctx context.Context, p events.OrderCreatedPayload) error {
	f.events = append(f.events, p)
	return nil
}

func validAddress() store.Address {
	return store.Address{
		Name:    "Asha",
		Phone:   "9999999999",
		Line1:   "12 MG Road",
		City:    "Pune",
		State:   "MH",
		Pincode: "411001",
	}
}

func onlineCart() store.Cart {
	return store.Cart{
		UserID:      "u-1",
		PaymentMode: pricing.PaymentOnline,
		Lines: []store.CartLine{{
			ID:      "line-1",
			Product: pricing.ProductSnapshot{ProductID: "p-1", CategoryID: "cat-1", Price: 1000},
			Qty:     1,
		}},
	}
}

func testCheckout(c store.Cart, b pricing.Breakdown) (*Service, *fakeCarts, *fakeOrderStore, *fakeCheckoutQueue) {
	carts := &fakeCarts{cart: c}
	orders := &fakeOrderStore{gateway: map[string]string{}}
	queue := &fakeCheckoutQueue{}
	svc := NewService(ServiceConfig{
		Carts:   carts,
		Quoter:  &fakeQuoter{breakdown: b},
		Orders:  orders,
		Gateway: payment.Mock{},
		Queue:   queue,
		Logger:  zerolog.Nop(),
	})
	return svc, carts, orders, queue
}

func TestSubmitOnlineChargesFullTotal(t *testing.T) {
	b := pricing.Breakdown{Subtotal: 1000, SubtotalAfterDiscount: 1000, Total: 1000, Advance: 1000}
	svc, carts, orders, queue := testCheckout(onlineCart(), b)

	result, err := svc.Submit(context.Background(), "u-1", SubmitInput{Address: validAddress()})
	require.NoError(t, err)
	require.Equal(t, "ord-1", result.CheckoutID)
	require.Equal(t, "order_mock_ord-1", result.RazorpayOrderID)
	require.Equal(t, 1000.0, result.Amount)
	require.True(t, carts.cleared)
	require.Equal(t, "order_mock_ord-1", orders.gateway["ord-1"])
	require.NotNil(t, orders.placed)
	require.Equal(t, b, orders.placed.Breakdown)
	require.Len(t, queue.events, 1)
	require.Equal(t, "ord-1", queue.events[0].OrderID)
}

func TestSubmitCODChargesAdvanceOnly(t *testing.T) {
	c := onlineCart()
	c.PaymentMode = pricing.PaymentCOD
	b := pricing.Breakdown{Subtotal: 1000, SubtotalAfterDiscount: 1000, Total: 1000, Advance: 100, Remaining: 900}
	svc, _, _, _ := testCheckout(c, b)

	result, err := svc.Submit(context.Background(), "u-1", SubmitInput{Address: validAddress()})
	require.NoError(t, err)
	require.Equal(t, 100.0, result.Amount)
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	svc, _, _, _ := testCheckout(store.Cart{UserID: "u-1"}, pricing.Breakdown{})

	_, err := svc.Submit(context.Background(), "u-1", SubmitInput{Address: validAddress()})
	requireBoundaryError(t, err, MsgEmptyCart)
}

func TestSubmitRejectsNonPositiveTotal(t *testing.T) {
	svc, _, _, _ := testCheckout(onlineCart(), pricing.Breakdown{Total: 0})

	_, err := svc.Submit(context.Background(), "u-1", SubmitInput{Address: validAddress()})
	requireBoundaryError(t, err, MsgNonPositiveTotal)
}

func TestSubmitRejectsCODWithCoupons(t *testing.T) {
	c := onlineCart()
	c.PaymentMode = pricing.PaymentCOD
	c.AppliedCoupons = []string{"SAVE10"}
	svc, _, orders, _ := testCheckout(c, pricing.Breakdown{Total: 900})

	_, err := svc.Submit(context.Background(), "u-1", SubmitInput{Address: validAddress()})
	require.Error(t, err)
	require.Nil(t, orders.placed)
}

func TestSubmitRejectsIncompleteAddress(t *testing.T) {
	svc, _, _, _ := testCheckout(onlineCart(), pricing.Breakdown{Total: 1000})

	addr := validAddress()
	addr.Pincode = ""
	_, err := svc.Submit(context.Background(), "u-1", SubmitInput{Address: addr})
	requireBoundaryError(t, err, MsgIncompleteAddress)
}

func requireBoundaryError(t *testing.T, err error, want string) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, want, appErr.Message)
}
