package pricing

import "math"

// PaymentMode selects how the buyer settles the order.
type PaymentMode string

const (
	// PaymentCOD is cash on delivery: a 10% advance on the discounted
	// subtotal plus all fixed fees is collected upfront.
	PaymentCOD PaymentMode = "cod"
	// PaymentOnline is full prepaid payment through the gateway.
	PaymentOnline PaymentMode = "online"
	// PaymentUnset means the buyer has not picked a mode yet. Prepaid
	// offers still apply so the displayed total matches the online price.
	PaymentUnset PaymentMode = ""
)

// DeliveryType selects the shipping speed.
type DeliveryType string

const (
	DeliveryStandard DeliveryType = "standard"
	DeliveryExpress  DeliveryType = "express"
)

// ReturnType is the return-handling policy chosen per cart line at
// add-to-cart time. It is immutable for the lifetime of the line.
type ReturnType string

const (
	ReturnEasyReturn      ReturnType = "easy-return"
	ReturnEasyReplacement ReturnType = "easy-replacement"
	ReturnSelfShipping    ReturnType = "self-shipping"
)

// OfferTypePrepaid marks offers that auto-apply to online payment without a
// coupon code. Any other offer type requires a user-entered code.
const OfferTypePrepaid = "Prepaid Offer"

// OfferStatusActive is the only status eligible for the informational
// active-offer listing. Coupon matching itself does not filter on status.
const OfferStatusActive = "Active"

// Variation is one attribute tuple of a variable product with its own price.
// Empty attribute values mean the variation does not carry that attribute.
type Variation struct {
	Color     string   `json:"color,omitempty" firestore:"color,omitempty"`
	Quality   string   `json:"quality,omitempty" firestore:"quality,omitempty"`
	Brand     string   `json:"brand,omitempty" firestore:"brand,omitempty"`
	Price     float64  `json:"price" firestore:"price"`
	SalePrice *float64 `json:"salePrice,omitempty" firestore:"salePrice,omitempty"`
}

// ProductSnapshot is the denormalized slice of a product captured at
// add-to-cart time. It does not live-update when the catalog changes.
type ProductSnapshot struct {
	ProductID  string      `json:"productId" firestore:"productId"`
	Name       string      `json:"name" firestore:"name"`
	CategoryID string      `json:"categoryId" firestore:"categoryId"`
	BrandID    string      `json:"brandId" firestore:"brandId"`
	Variable   bool        `json:"variable" firestore:"variable"`
	Price      float64     `json:"price" firestore:"price"`
	SalePrice  *float64    `json:"salePrice,omitempty" firestore:"salePrice,omitempty"`
	Variations []Variation `json:"variations,omitempty" firestore:"variations,omitempty"`
}

// LineItem is one cart entry as consumed by the engine.
type LineItem struct {
	Product         ProductSnapshot `json:"product" firestore:"product"`
	Qty             int             `json:"qty" firestore:"qty"`
	SelectedColor   string          `json:"selectedColor,omitempty" firestore:"selectedColor,omitempty"`
	SelectedQuality string          `json:"selectedQuality,omitempty" firestore:"selectedQuality,omitempty"`
	SelectedBrand   string          `json:"selectedBrand,omitempty" firestore:"selectedBrand,omitempty"`
	ReturnType      ReturnType      `json:"returnType,omitempty" firestore:"returnType,omitempty"`
	// CapturedReturnFee is the fee frozen when the return type was picked.
	// Only frozen policies read it; easy-return recomputes on every pass.
	CapturedReturnFee float64 `json:"capturedReturnFee,omitempty" firestore:"capturedReturnFee,omitempty"`
}

// Offer is a coupon or prepaid discount rule restricted to categories.
type Offer struct {
	ID                 string   `json:"id" firestore:"-"`
	OfferType          string   `json:"offerType" firestore:"offerType"`
	CouponCode         string   `json:"couponCode,omitempty" firestore:"couponCode,omitempty"`
	DiscountPercentage float64  `json:"discountPercentage" firestore:"discountPercentage"`
	Categories         []string `json:"categories" firestore:"categories"`
	Status             string   `json:"status" firestore:"status"`
}

// Prepaid reports whether the offer auto-applies to online payment.
func (o Offer) Prepaid() bool { return o.OfferType == OfferTypePrepaid }

// AppliesTo reports whether the offer is restricted to the given category.
func (o Offer) AppliesTo(categoryID string) bool {
	for _, c := range o.Categories {
		if c == categoryID {
			return true
		}
	}
	return false
}

// Settings carries the shipping configuration consumed by the engine.
type Settings struct {
	MinFreeDeliveryAmount    float64 `json:"minFreeDeliveryAmount" firestore:"minFreeDeliveryAmount"`
	ShippingExtraCharges     float64 `json:"shippingExtraCharges" firestore:"shippingExtraCharges"`
	AirExpressDeliveryCharge float64 `json:"airExpressDeliveryCharge" firestore:"airExpressDeliveryCharge"`
}

// DiscountLine is one human-readable discount entry of the breakdown.
type DiscountLine struct {
	CategoryID string  `json:"categoryId" firestore:"categoryId"`
	Label      string  `json:"label" firestore:"label"`
	Percent    float64 `json:"percent" firestore:"percent"`
	Amount     float64 `json:"amount" firestore:"amount"`
}

// Breakdown is the full result of one pricing pass.
type Breakdown struct {
	Subtotal              float64        `json:"subtotal" firestore:"subtotal"`
	Discount              float64        `json:"discount" firestore:"discount"`
	DiscountLines         []DiscountLine `json:"discountLines" firestore:"discountLines"`
	SubtotalAfterDiscount float64        `json:"subtotalAfterDiscount" firestore:"subtotalAfterDiscount"`
	ShippingCharge        float64        `json:"shippingCharge" firestore:"shippingCharge"`
	ExpressCharge         float64        `json:"expressCharge" firestore:"expressCharge"`
	ReturnFees            float64        `json:"returnFees" firestore:"returnFees"`
	ReplacementFees       float64        `json:"replacementFees" firestore:"replacementFees"`
	Total                 float64        `json:"total" firestore:"total"`
	Advance               float64        `json:"advance" firestore:"advance"`
	Remaining             float64        `json:"remaining" firestore:"remaining"`
}

// num coerces malformed numeric input to zero. The engine never fails on bad
// data; it treats it as contributing nothing to the totals.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func qty(q int) int {
	if q < 0 {
		return 0
	}
	return q
}
