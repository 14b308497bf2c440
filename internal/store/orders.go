package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/mobigear/backend-parts/internal/pricing"
)

const ordersCollection = "orders"

// Order lifecycle states.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPacked    = "packed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Address is the shipping destination captured at checkout.
type Address struct {
	Name    string `firestore:"name" json:"name"`
	Phone   string `firestore:"phone" json:"phone"`
	Line1   string `firestore:"line1" json:"line1"`
	Line2   string `firestore:"line2,omitempty" json:"line2,omitempty"`
	City    string `firestore:"city" json:"city"`
	State   string `firestore:"state" json:"state"`
	Pincode string `firestore:"pincode" json:"pincode"`
}

// Order records a placed checkout with its full price breakdown, so a
// later settings or offer change never alters what the customer was
// charged.
type Order struct {
	UserID          string               `firestore:"userId"`
	Lines           []CartLine           `firestore:"lines"`
	AppliedCoupons  []string             `firestore:"appliedCoupons,omitempty"`
	PaymentMode     pricing.PaymentMode  `firestore:"paymentMode"`
	DeliveryType    pricing.DeliveryType `firestore:"deliveryType"`
	Address         Address              `firestore:"address"`
	Breakdown       pricing.Breakdown    `firestore:"breakdown"`
	Status          string               `firestore:"status"`
	RazorpayOrderID string               `firestore:"razorpayOrderId,omitempty"`
	PaymentID       string               `firestore:"paymentId,omitempty"`
	PaidAt          *time.Time           `firestore:"paidAt,omitempty"`
	TrackingID      string               `firestore:"trackingId,omitempty"`
	CreatedAt       time.Time            `firestore:"createdAt"`
	UpdatedAt       time.Time            `firestore:"updatedAt"`
}

// Orders exposes order persistence.
type Orders struct{ *Repo[Order] }

// NewOrders binds the orders repository.
func NewOrders(c *Client) Orders {
	return Orders{NewRepo[Order](c, ordersCollection)}
}

// Place creates the order document and returns its id.
func (o Orders) Place(ctx context.Context, order Order) (string, error) {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = OrderStatusPending
	}
	return o.Create(ctx, order)
}

// ListForUser returns the user's orders, newest first.
func (o Orders) ListForUser(ctx context.Context, userID string, limit int) ([]Doc[Order], error) {
	return o.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc)
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
}

// ByRazorpayOrder finds the order created for a gateway order id.
func (o Orders) ByRazorpayOrder(ctx context.Context, rzpOrderID string) (Doc[Order], error) {
	docs, err := o.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("razorpayOrderId", "==", rzpOrderID).Limit(1)
	})
	if err != nil {
		return Doc[Order]{}, err
	}
	if len(docs) == 0 {
		return Doc[Order]{}, ErrNotFound
	}
	return docs[0], nil
}

// SetGatewayOrder records the payment gateway order opened for checkout.
func (o Orders) SetGatewayOrder(ctx context.Context, id, rzpOrderID string) error {
	return o.Update(ctx, id, []firestore.Update{
		{Path: "razorpayOrderId", Value: rzpOrderID},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
}

// SetStatus transitions the order to a new lifecycle state.
func (o Orders) SetStatus(ctx context.Context, id, status string) error {
	return o.Update(ctx, id, []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
}

// MarkPaid records a verified gateway payment against the order.
func (o Orders) MarkPaid(ctx context.Context, id, paymentID string) error {
	now := time.Now().UTC()
	return o.Update(ctx, id, []firestore.Update{
		{Path: "status", Value: OrderStatusConfirmed},
		{Path: "paymentId", Value: paymentID},
		{Path: "paidAt", Value: now},
		{Path: "updatedAt", Value: now},
	})
}

// SetTracking records the shipping partner's tracking id.
func (o Orders) SetTracking(ctx context.Context, id, trackingID string) error {
	return o.Update(ctx, id, []firestore.Update{
		{Path: "trackingId", Value: trackingID},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
}
