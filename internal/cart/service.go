package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/obs"
	"github.com/mobigear/backend-parts/internal/pricing"
	"github.com/mobigear/backend-parts/internal/store"
)

// MsgCODUnavailable is returned when COD is selected on a couponed cart.
const MsgCODUnavailable = "Cash On Delivery Is Not Available With Coupons"

// CartStore captures cart persistence.
type CartStore interface {
	ForUser(ctx context.Context, userID string) (store.Cart, error)
	Save(ctx context.Context, cart store.Cart) error
	Clear(ctx context.Context, userID string) error
}

// Catalog supplies product snapshots and the name indexes used for display
// labels.
type Catalog interface {
	Snapshot(ctx context.Context, productID string) (pricing.ProductSnapshot, error)
	CategoryNamer(ctx context.Context) (func(string) string, error)
	BrandNamer(ctx context.Context) (func(string) string, error)
}

// Offers supplies coupon validation and the offer catalog.
type Offers interface {
	Apply(ctx context.Context, code string, cart store.Cart) (pricing.Offer, error)
	AppliedOffers(ctx context.Context, codes []string) ([]pricing.Offer, error)
	All(ctx context.Context) ([]pricing.Offer, error)
}

// SettingsSource supplies the shipping settings singleton.
type SettingsSource interface {
	Global(ctx context.Context) (pricing.Settings, error)
}

// Service encapsulates cart domain operations. Every mutation persists
// the whole cart document; the priced view is recomputed from scratch on
// each read so it always reflects the current offer catalog and settings.
type Service struct {
	carts    CartStore
	catalog  Catalog
	offers   Offers
	settings SettingsSource
	fees     pricing.FeeSchedule
	newID    func() string
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Carts    CartStore
	Catalog  Catalog
	Offers   Offers
	Settings SettingsSource
	Fees     *pricing.FeeSchedule
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	fees := pricing.DefaultFeeSchedule()
	if cfg.Fees != nil {
		fees = *cfg.Fees
	}
	return &Service{
		carts:    cfg.Carts,
		catalog:  cfg.Catalog,
		offers:   cfg.Offers,
		settings: cfg.Settings,
		fees:     fees,
		newID:    func() string { return uuid.NewString() },
	}
}

// AddItemInput is the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID       string             `json:"productId"`
	Qty             int                `json:"qty"`
	SelectedColor   string             `json:"selectedColor"`
	SelectedQuality string             `json:"selectedQuality"`
	SelectedBrand   string             `json:"selectedBrand"`
	ReturnType      pricing.ReturnType `json:"returnType"`
}

// LineView decorates a persisted line with the brand label resolved at read
// time, so a renamed brand shows its current name without rewriting carts.
type LineView struct {
	store.CartLine
	BrandName string `json:"brandName,omitempty"`
}

// View is the priced cart payload returned to the storefront.
type View struct {
	Lines          []LineView           `json:"lines"`
	AppliedCoupons []string             `json:"appliedCoupons"`
	PaymentMode    pricing.PaymentMode  `json:"paymentMode"`
	DeliveryType   pricing.DeliveryType `json:"deliveryType"`
	CODAvailable   bool                 `json:"codAvailable"`
	Breakdown      pricing.Breakdown    `json:"breakdown"`
}

// AddItem appends a line to the user's cart, merging into an existing
// line when the product, variant selection, and return type all match.
// The replacement fee is frozen at this moment; easy-return fees stay
// live and are recomputed on every quote.
func (s *Service) AddItem(ctx context.Context, userID string, in AddItemInput) (View, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return View{}, common.BadRequest("productId is required")
	}
	if in.Qty <= 0 {
		return View{}, common.BadRequest("qty must be positive")
	}
	if !validReturnType(in.ReturnType) {
		return View{}, common.BadRequest("invalid returnType")
	}
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}
	snap, err := s.catalog.Snapshot(ctx, in.ProductID)
	if err != nil {
		return View{}, err
	}
	line := store.CartLine{
		ID:              s.newID(),
		Product:         snap,
		Qty:             in.Qty,
		SelectedColor:   in.SelectedColor,
		SelectedQuality: in.SelectedQuality,
		SelectedBrand:   in.SelectedBrand,
		ReturnType:      in.ReturnType,
	}
	if in.ReturnType == pricing.ReturnEasyReplacement {
		line.CapturedFee = s.fees.ReplacementFlatFee
	}
	merged := false
	for i := range cart.Lines {
		if sameSelection(cart.Lines[i], line) {
			cart.Lines[i].Qty += in.Qty
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, line)
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return View{}, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, cart)
}

// UpdateQty sets a line's quantity; zero or negative removes the line.
func (s *Service) UpdateQty(ctx context.Context, userID, lineID string, qty int) (View, error) {
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}
	idx := lineIndex(cart, lineID)
	if idx < 0 {
		return View{}, common.NotFound("cart line not found")
	}
	if qty <= 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
	} else {
		cart.Lines[idx].Qty = qty
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return View{}, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, cart)
}

// RemoveLine deletes a line from the cart.
func (s *Service) RemoveLine(ctx context.Context, userID, lineID string) (View, error) {
	return s.UpdateQty(ctx, userID, lineID, 0)
}

// ApplyCoupon validates and records a coupon code on the cart. Applying
// a coupon makes COD unavailable, so a previously selected COD mode is
// reset.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) (View, error) {
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}
	matched, err := s.offers.Apply(ctx, code, cart)
	if obs.CouponApplyTotal != nil {
		outcome := "ok"
		if err != nil {
			outcome = "rejected"
		}
		obs.CouponApplyTotal.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return View{}, err
	}
	cart.AppliedCoupons = append(cart.AppliedCoupons, matched.CouponCode)
	if cart.PaymentMode == pricing.PaymentCOD {
		cart.PaymentMode = ""
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return View{}, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, cart)
}

// RemoveCoupon drops a previously applied code. Unknown codes are a
// no-op rather than an error.
func (s *Service) RemoveCoupon(ctx context.Context, userID, code string) (View, error) {
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}
	kept := cart.AppliedCoupons[:0]
	for _, c := range cart.AppliedCoupons {
		if !strings.EqualFold(c, strings.TrimSpace(code)) {
			kept = append(kept, c)
		}
	}
	cart.AppliedCoupons = kept
	if err := s.carts.Save(ctx, cart); err != nil {
		return View{}, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, cart)
}

// OptionsInput selects payment mode and delivery type.
type OptionsInput struct {
	PaymentMode  pricing.PaymentMode  `json:"paymentMode"`
	DeliveryType pricing.DeliveryType `json:"deliveryType"`
}

// SetOptions records the payment mode and delivery type selections.
func (s *Service) SetOptions(ctx context.Context, userID string, in OptionsInput) (View, error) {
	if !validPaymentMode(in.PaymentMode) {
		return View{}, common.BadRequest("invalid paymentMode")
	}
	if !validDeliveryType(in.DeliveryType) {
		return View{}, common.BadRequest("invalid deliveryType")
	}
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}
	if in.PaymentMode == pricing.PaymentCOD && len(cart.AppliedCoupons) > 0 {
		return View{}, common.BadRequest(MsgCODUnavailable)
	}
	cart.PaymentMode = in.PaymentMode
	cart.DeliveryType = in.DeliveryType
	if err := s.carts.Save(ctx, cart); err != nil {
		return View{}, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, cart)
}

// Get returns the priced cart view.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("load cart: %w", err)
	}
	return s.view(ctx, cart)
}

// Quote assembles the engine input for the given cart and runs it.
// Checkout reuses this so the charged amount always matches the view.
func (s *Service) Quote(ctx context.Context, cart store.Cart) (pricing.Breakdown, error) {
	coupons, err := s.offers.AppliedOffers(ctx, cart.AppliedCoupons)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	all, err := s.offers.All(ctx)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	settings, err := s.settings.Global(ctx)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	namer, err := s.catalog.CategoryNamer(ctx)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return pricing.Quote(pricing.Input{
		Items:        cart.Items(),
		Coupons:      coupons,
		Offers:       all,
		PaymentMode:  cart.PaymentMode,
		DeliveryType: cart.DeliveryType,
		Shipping:     settings,
		CategoryName: namer,
		Fees:         &s.fees,
	}), nil
}

func (s *Service) view(ctx context.Context, cart store.Cart) (View, error) {
	breakdown, err := s.Quote(ctx, cart)
	if err != nil {
		return View{}, err
	}
	brandName, err := s.catalog.BrandNamer(ctx)
	if err != nil {
		return View{}, err
	}
	lines := make([]LineView, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lv := LineView{CartLine: l}
		if l.Product.BrandID != "" {
			lv.BrandName = brandName(l.Product.BrandID)
		}
		lines = append(lines, lv)
	}
	coupons := cart.AppliedCoupons
	if coupons == nil {
		coupons = []string{}
	}
	return View{
		Lines:          lines,
		AppliedCoupons: coupons,
		PaymentMode:    cart.PaymentMode,
		DeliveryType:   cart.DeliveryType,
		CODAvailable:   len(coupons) == 0,
		Breakdown:      breakdown,
	}, nil
}

func sameSelection(a, b store.CartLine) bool {
	return a.Product.ProductID == b.Product.ProductID &&
		a.SelectedColor == b.SelectedColor &&
		a.SelectedQuality == b.SelectedQuality &&
		a.SelectedBrand == b.SelectedBrand &&
		a.ReturnType == b.ReturnType
}

func lineIndex(cart store.Cart, lineID string) int {
	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func validReturnType(rt pricing.ReturnType) bool {
	switch rt {
	case "", pricing.ReturnEasyReturn, pricing.ReturnEasyReplacement, pricing.ReturnSelfShipping:
		return true
	}
	return false
}

func validPaymentMode(m pricing.PaymentMode) bool {
	switch m {
	case "", pricing.PaymentCOD, pricing.PaymentOnline:
		return true
	}
	return false
}

func validDeliveryType(d pricing.DeliveryType) bool {
	switch d {
	case "", pricing.DeliveryStandard, pricing.DeliveryExpress:
		return true
	}
	return false
}
