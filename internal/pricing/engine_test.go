package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func simpleLine(category string, qty int, price float64, sale *float64) LineItem {
	return LineItem{
		Product: ProductSnapshot{
			ProductID:  "p-" + category,
			CategoryID: category,
			Price:      price,
			SalePrice:  sale,
		},
		Qty: qty,
	}
}

func f(v float64) *float64 { return &v }

func TestQuoteEmptyCart(t *testing.T) {
	out := Quote(Input{
		PaymentMode:  PaymentCOD,
		DeliveryType: DeliveryExpress,
		Shipping:     Settings{MinFreeDeliveryAmount: 499, ShippingExtraCharges: 50, AirExpressDeliveryCharge: 100},
	})
	require.Zero(t, out.Subtotal)
	require.Zero(t, out.Discount)
	require.Zero(t, out.ShippingCharge)
	require.Zero(t, out.ExpressCharge)
	require.Zero(t, out.ReturnFees)
	require.Zero(t, out.ReplacementFees)
	require.Zero(t, out.Total)
	require.Zero(t, out.Advance)
	require.Zero(t, out.Remaining)
	require.Empty(t, out.DiscountLines)
}

func TestQuoteCouponBelowPrepaidOnline(t *testing.T) {
	coupon := Offer{OfferType: "Coupon", CouponCode: "SAVE10", DiscountPercentage: 10, Categories: []string{"A"}}
	prepaid := Offer{OfferType: OfferTypePrepaid, DiscountPercentage: 15, Categories: []string{"A"}}

	out := Quote(Input{
		Items:       []LineItem{simpleLine("A", 1, 1000, f(800))},
		Coupons:     []Offer{coupon},
		Offers:      []Offer{coupon, prepaid},
		PaymentMode: PaymentOnline,
		Shipping:    Settings{MinFreeDeliveryAmount: 499},
		CategoryName: func(id string) string {
			return id
		},
	})

	require.InDelta(t, 800, out.Subtotal, 1e-9)
	require.Len(t, out.DiscountLines, 2)
	require.Equal(t, "Coupon Discount for A (10%)", out.DiscountLines[0].Label)
	require.InDelta(t, 80, out.DiscountLines[0].Amount, 1e-9)
	require.Equal(t, "Additional Prepaid Discount for A (5%)", out.DiscountLines[1].Label)
	require.InDelta(t, 40, out.DiscountLines[1].Amount, 1e-9)
	require.InDelta(t, 120, out.Discount, 1e-9)
	require.InDelta(t, 680, out.SubtotalAfterDiscount, 1e-9)
	require.InDelta(t, 800*0.85, out.SubtotalAfterDiscount, 1e-9)
}

func TestQuoteDiscountLineAdditivity(t *testing.T) {
	coupon := Offer{OfferType: "Coupon", CouponCode: "C7", DiscountPercentage: 7, Categories: []string{"A"}}
	prepaid := Offer{OfferType: OfferTypePrepaid, DiscountPercentage: 12, Categories: []string{"A"}}
	out := Quote(Input{
		Items:       []LineItem{simpleLine("A", 3, 450, nil)},
		Coupons:     []Offer{coupon},
		Offers:      []Offer{prepaid},
		PaymentMode: PaymentOnline,
	})
	var lineSum float64
	for _, line := range out.DiscountLines {
		require.Equal(t, "A", line.CategoryID)
		lineSum += line.Amount
	}
	catSubtotal := 3 * 450.0
	require.InDelta(t, catSubtotal*12/100, lineSum, 1e-9)
	require.InDelta(t, out.Discount, lineSum, 1e-9)
}

func TestQuoteCouponDominatesPrepaid(t *testing.T) {
	coupon := Offer{OfferType: "Coupon", CouponCode: "BIG", DiscountPercentage: 20, Categories: []string{"A"}}
	prepaid := Offer{OfferType: OfferTypePrepaid, DiscountPercentage: 15, Categories: []string{"A"}}
	out := Quote(Input{
		Items:       []LineItem{simpleLine("A", 1, 500, nil)},
		Coupons:     []Offer{coupon},
		Offers:      []Offer{prepaid},
		PaymentMode: PaymentOnline,
	})
	require.Len(t, out.DiscountLines, 1)
	require.InDelta(t, 100, out.Discount, 1e-9)
}

func TestQuoteCODExcludesPrepaid(t *testing.T) {
	prepaid := Offer{OfferType: OfferTypePrepaid, DiscountPercentage: 15, Categories: []string{"A"}}
	in := Input{
		Items:  []LineItem{simpleLine("A", 1, 1000, nil)},
		Offers: []Offer{prepaid},
	}

	in.PaymentMode = PaymentOnline
	online := Quote(in)
	require.Len(t, online.DiscountLines, 1)
	require.Equal(t, "Prepaid Discount for A (15%)", online.DiscountLines[0].Label)
	require.InDelta(t, 850, online.Total, 1e-9)

	in.PaymentMode = PaymentCOD
	cod := Quote(in)
	require.Empty(t, cod.DiscountLines)
	require.Zero(t, cod.Discount)
	require.InDelta(t, 1000, cod.Total, 1e-9)
	require.GreaterOrEqual(t, cod.Total, online.Total)
}

func TestQuoteCODKeepsCouponRate(t *testing.T) {
	coupon := Offer{OfferType: "Coupon", CouponCode: "C10", DiscountPercentage: 10, Categories: []string{"A"}}
	prepaid := Offer{OfferType: OfferTypePrepaid, DiscountPercentage: 25, Categories: []string{"A"}}
	out := Quote(Input{
		Items:       []LineItem{simpleLine("A", 1, 1000, nil)},
		Coupons:     []Offer{coupon},
		Offers:      []Offer{prepaid},
		PaymentMode: PaymentCOD,
	})
	require.Len(t, out.DiscountLines, 1)
	require.Equal(t, "Coupon Discount for A (10%)", out.DiscountLines[0].Label)
	require.InDelta(t, 100, out.Discount, 1e-9)
}

func TestQuoteFreeShippingThreshold(t *testing.T) {
	settings := Settings{MinFreeDeliveryAmount: 499, ShippingExtraCharges: 49}

	atThreshold := Quote(Input{
		Items:    []LineItem{simpleLine("A", 1, 499, nil)},
		Shipping: settings,
	})
	require.Zero(t, atThreshold.ShippingCharge)

	belowThreshold := Quote(Input{
		Items:    []LineItem{simpleLine("A", 1, 498, nil)},
		Shipping: settings,
	})
	require.InDelta(t, 49, belowThreshold.ShippingCharge, 1e-9)
}

func TestQuoteExpressSurcharge(t *testing.T) {
	settings := Settings{MinFreeDeliveryAmount: 499, AirExpressDeliveryCharge: 99}
	out := Quote(Input{
		Items:        []LineItem{simpleLine("A", 1, 600, nil)},
		DeliveryType: DeliveryExpress,
		Shipping:     settings,
	})
	require.InDelta(t, 99, out.ExpressCharge, 1e-9)
	require.InDelta(t, 699, out.Total, 1e-9)

	out = Quote(Input{
		Items:        []LineItem{simpleLine("A", 1, 600, nil)},
		DeliveryType: DeliveryStandard,
		Shipping:     settings,
	})
	require.Zero(t, out.ExpressCharge)
}

func TestQuoteEasyReturnFeeRecomputedLive(t *testing.T) {
	line := simpleLine("A", 2, 500, nil)
	line.ReturnType = ReturnEasyReturn
	// A stale captured fee must be ignored for easy-return.
	line.CapturedReturnFee = 999

	out := Quote(Input{Items: []LineItem{line}, Shipping: Settings{MinFreeDeliveryAmount: 499}})
	require.InDelta(t, 160+0.05*1000, out.ReturnFees, 1e-9)
	require.InDelta(t, 210, out.ReturnFees, 1e-9)

	line.Qty = 3
	out = Quote(Input{Items: []LineItem{line}, Shipping: Settings{MinFreeDeliveryAmount: 499}})
	require.InDelta(t, 160+0.05*1500, out.ReturnFees, 1e-9)
	require.InDelta(t, 235, out.ReturnFees, 1e-9)
}

func TestQuoteReplacementFeeFrozenPerLine(t *testing.T) {
	line := simpleLine("A", 5, 400, nil)
	line.ReturnType = ReturnEasyReplacement
	line.CapturedReturnFee = 30

	out := Quote(Input{Items: []LineItem{line}, Shipping: Settings{MinFreeDeliveryAmount: 499}})
	require.InDelta(t, 30, out.ReplacementFees, 1e-9)
	require.Zero(t, out.ReturnFees)

	// Quantity does not influence the flat fee.
	line.Qty = 50
	out = Quote(Input{Items: []LineItem{line}, Shipping: Settings{MinFreeDeliveryAmount: 499}})
	require.InDelta(t, 30, out.ReplacementFees, 1e-9)
}

func TestQuoteSelfShippingNoFee(t *testing.T) {
	line := simpleLine("A", 2, 500, nil)
	line.ReturnType = ReturnSelfShipping
	line.CapturedReturnFee = 70

	out := Quote(Input{Items: []LineItem{line}, Shipping: Settings{MinFreeDeliveryAmount: 499}})
	require.Zero(t, out.ReturnFees)
	require.Zero(t, out.ReplacementFees)
}

func TestQuoteCODAdvanceSplit(t *testing.T) {
	out := Quote(Input{
		Items:       []LineItem{simpleLine("A", 1, 1000, nil)},
		PaymentMode: PaymentCOD,
		Shipping:    Settings{MinFreeDeliveryAmount: 499},
	})
	require.InDelta(t, 1000, out.SubtotalAfterDiscount, 1e-9)
	require.InDelta(t, 100, out.Advance, 1e-9)
	require.InDelta(t, 900, out.Remaining, 1e-9)
	require.InDelta(t, out.Total, out.Advance+out.Remaining, 1e-9)
}

func TestQuoteOnlineAdvanceIsTotal(t *testing.T) {
	out := Quote(Input{
		Items:       []LineItem{simpleLine("A", 1, 1000, nil)},
		PaymentMode: PaymentOnline,
		Shipping:    Settings{MinFreeDeliveryAmount: 499},
	})
	require.InDelta(t, out.Total, out.Advance, 1e-9)
	require.Zero(t, out.Remaining)
}

func TestQuoteCODAdvanceIncludesFixedFees(t *testing.T) {
	line := simpleLine("A", 1, 300, nil)
	line.ReturnType = ReturnEasyReturn
	out := Quote(Input{
		Items:        []LineItem{line},
		PaymentMode:  PaymentCOD,
		DeliveryType: DeliveryExpress,
		Shipping:     Settings{MinFreeDeliveryAmount: 499, ShippingExtraCharges: 40, AirExpressDeliveryCharge: 99},
	})
	fees := 40.0 + 99 + (160 + 0.05*300)
	require.InDelta(t, 0.10*300+fees, out.Advance, 1e-9)
	require.InDelta(t, out.Total-out.Advance, out.Remaining, 1e-9)
}

func TestQuoteNegativeSubtotalClamped(t *testing.T) {
	coupon := Offer{OfferType: "Coupon", CouponCode: "ALL", DiscountPercentage: 100, Categories: []string{"A"}}
	out := Quote(Input{
		Items:       []LineItem{simpleLine("A", 1, 100, nil)},
		Coupons:     []Offer{coupon},
		PaymentMode: PaymentOnline,
		Shipping:    Settings{MinFreeDeliveryAmount: 499, ShippingExtraCharges: 50},
	})
	require.Zero(t, out.SubtotalAfterDiscount)
	require.InDelta(t, 50, out.Total, 1e-9)
}

func TestQuoteSkipsZeroSubtotalCategories(t *testing.T) {
	// Variable product without a matching variation resolves to zero and the
	// category never emits a discount line.
	item := LineItem{
		Product: ProductSnapshot{
			ProductID:  "p1",
			CategoryID: "B",
			Variable:   true,
			Variations: []Variation{{Color: "Black", Price: 700}},
		},
		Qty:           1,
		SelectedColor: "Gold",
	}
	prepaid := Offer{OfferType: OfferTypePrepaid, DiscountPercentage: 15, Categories: []string{"B"}}
	out := Quote(Input{Items: []LineItem{item}, Offers: []Offer{prepaid}, PaymentMode: PaymentOnline})
	require.Zero(t, out.Subtotal)
	require.Empty(t, out.DiscountLines)
}

func TestQuoteUnsetModeAppliesPrepaid(t *testing.T) {
	prepaid := Offer{OfferType: OfferTypePrepaid, DiscountPercentage: 10, Categories: []string{"A"}}
	out := Quote(Input{
		Items:       []LineItem{simpleLine("A", 1, 1000, nil)},
		Offers:      []Offer{prepaid},
		PaymentMode: PaymentUnset,
	})
	require.Len(t, out.DiscountLines, 1)
	require.InDelta(t, 100, out.Discount, 1e-9)
}

func TestItemPriceSimpleProduct(t *testing.T) {
	require.InDelta(t, 800, ItemPrice(simpleLine("A", 1, 1000, f(800))), 1e-9)
	require.InDelta(t, 1000, ItemPrice(simpleLine("A", 1, 1000, nil)), 1e-9)
	// Negative values coerce to zero.
	require.Zero(t, ItemPrice(simpleLine("A", 1, -5, nil)))
}

func TestItemPriceVariableProduct(t *testing.T) {
	product := ProductSnapshot{
		ProductID:  "p1",
		CategoryID: "A",
		Variable:   true,
		Variations: []Variation{
			{Color: "Black", Quality: "OEM", Price: 900, SalePrice: f(850)},
			{Color: "Black", Quality: "Premium", Price: 1200},
			{Color: "White", Price: 950},
		},
	}

	item := LineItem{Product: product, Qty: 1, SelectedColor: "Black", SelectedQuality: "Premium"}
	require.InDelta(t, 1200, ItemPrice(item), 1e-9)

	// First match wins when the selection is ambiguous.
	item = LineItem{Product: product, Qty: 1, SelectedColor: "Black"}
	require.InDelta(t, 850, ItemPrice(item), 1e-9)

	// Absent selectors always match.
	item = LineItem{Product: product, Qty: 1, SelectedQuality: "Premium"}
	require.InDelta(t, 1200, ItemPrice(item), 1e-9)

	// No match defaults to zero.
	item = LineItem{Product: product, Qty: 1, SelectedColor: "Gold"}
	require.Zero(t, ItemPrice(item))
}

func TestQuoteDeterministic(t *testing.T) {
	in := Input{
		Items: []LineItem{
			simpleLine("A", 2, 300, nil),
			simpleLine("B", 1, 700, f(650)),
			simpleLine("A", 1, 120, nil),
		},
		Coupons:     []Offer{{OfferType: "Coupon", CouponCode: "X", DiscountPercentage: 5, Categories: []string{"A", "B"}}},
		Offers:      []Offer{{OfferType: OfferTypePrepaid, DiscountPercentage: 9, Categories: []string{"B"}}},
		PaymentMode: PaymentOnline,
		Shipping:    Settings{MinFreeDeliveryAmount: 499, ShippingExtraCharges: 45},
	}
	first := Quote(in)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Quote(in))
	}
	// Categories appear in first-seen cart order.
	require.Equal(t, "A", first.DiscountLines[0].CategoryID)
}
