package store

import (
	"context"
	"errors"
	"time"

	"github.com/mobigear/backend-parts/internal/pricing"
)

const cartsCollection = "carts"

// CartLine is one line of a persisted cart. The product snapshot and the
// replacement fee are frozen at the moment the line is added or edited.
type CartLine struct {
	ID              string                  `firestore:"id"`
	Product         pricing.ProductSnapshot `firestore:"product"`
	Qty             int                     `firestore:"qty"`
	SelectedColor   string                  `firestore:"selectedColor,omitempty"`
	SelectedQuality string                  `firestore:"selectedQuality,omitempty"`
	SelectedBrand   string                  `firestore:"selectedBrand,omitempty"`
	ReturnType      pricing.ReturnType      `firestore:"returnType,omitempty"`
	CapturedFee     float64                 `firestore:"capturedFee,omitempty"`
}

// Item converts the persisted line into the pricing engine's shape.
func (l CartLine) Item() pricing.LineItem {
	return pricing.LineItem{
		Product:           l.Product,
		Qty:               l.Qty,
		SelectedColor:     l.SelectedColor,
		SelectedQuality:   l.SelectedQuality,
		SelectedBrand:     l.SelectedBrand,
		ReturnType:        l.ReturnType,
		CapturedReturnFee: l.CapturedFee,
	}
}

// Cart is a per-user cart document keyed by the user id.
type Cart struct {
	UserID         string               `firestore:"userId"`
	Lines          []CartLine           `firestore:"lines"`
	AppliedCoupons []string             `firestore:"appliedCoupons,omitempty"`
	PaymentMode    pricing.PaymentMode  `firestore:"paymentMode,omitempty"`
	DeliveryType   pricing.DeliveryType `firestore:"deliveryType,omitempty"`
	UpdatedAt      time.Time            `firestore:"updatedAt"`
	ExpiresAt      time.Time            `firestore:"expiresAt,omitempty"`
}

// Expired reports whether the cart's lifetime has lapsed. Documents written
// before expiry stamping began carry a zero ExpiresAt and never expire.
func (c Cart) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Items converts every persisted line for the pricing engine.
func (c Cart) Items() []pricing.LineItem {
	items := make([]pricing.LineItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, l.Item())
	}
	return items
}

// Carts exposes per-user cart access. Carts saved with a positive ttl carry
// an expiry stamp and read back as empty once it passes.
type Carts struct {
	*Repo[Cart]
	ttl time.Duration
}

// NewCarts binds the carts repository.
func NewCarts(c *Client, ttl time.Duration) Carts {
	return Carts{Repo: NewRepo[Cart](c, cartsCollection), ttl: ttl}
}

// ForUser loads the user's cart, returning an empty cart when none exists or
// the stored one has expired.
func (c Carts) ForUser(ctx context.Context, userID string) (Cart, error) {
	doc, err := c.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Cart{UserID: userID}, nil
	}
	if err != nil {
		return Cart{}, err
	}
	if doc.Data.Expired(time.Now().UTC()) {
		return Cart{UserID: userID}, nil
	}
	return doc.Data, nil
}

// Save persists the cart under the user's id and refreshes its expiry.
func (c Carts) Save(ctx context.Context, cart Cart) error {
	now := time.Now().UTC()
	cart.UpdatedAt = now
	if c.ttl > 0 {
		cart.ExpiresAt = now.Add(c.ttl)
	}
	return c.Set(ctx, cart.UserID, cart)
}

// Clear removes the user's cart, typically after checkout.
func (c Carts) Clear(ctx context.Context, userID string) error {
	err := c.Delete(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
