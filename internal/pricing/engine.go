package pricing

import "strconv"

// Input carries everything one pricing pass consumes. The engine reads it as
// an immutable snapshot and holds no state between invocations; callers rerun
// Quote whenever any field changes.
type Input struct {
	Items []LineItem
	// Coupons are the offers the user explicitly activated by code.
	Coupons []Offer
	// Offers is the full offer catalog. Prepaid percentages are derived from
	// it without any user action, so every known prepaid offer contributes.
	Offers       []Offer
	PaymentMode  PaymentMode
	DeliveryType DeliveryType
	Shipping     Settings
	// CategoryName resolves a category id to its display name for discount
	// line labels. Nil falls back to the raw id.
	CategoryName func(id string) string
	// Fees overrides the default fee schedule when non-nil.
	Fees *FeeSchedule
}

// ItemPrice resolves the effective unit price for a cart line. Simple
// products use sale price when present, else list price. Variable products
// use the first variation matching every selection the line carries; no
// match yields zero rather than an error so a total can always be shown.
func ItemPrice(item LineItem) float64 {
	p := item.Product
	if !p.Variable {
		if p.SalePrice != nil {
			return num(*p.SalePrice)
		}
		return num(p.Price)
	}
	for _, v := range p.Variations {
		if variationMatches(v, item) {
			if v.SalePrice != nil {
				return num(*v.SalePrice)
			}
			return num(v.Price)
		}
	}
	return 0
}

// variationMatches checks each attribute independently; a selector the line
// does not carry, or an attribute the variation does not carry, always
// matches.
func variationMatches(v Variation, item LineItem) bool {
	if !attrMatches(v.Color, item.SelectedColor) {
		return false
	}
	if !attrMatches(v.Quality, item.SelectedQuality) {
		return false
	}
	return attrMatches(v.Brand, item.SelectedBrand)
}

func attrMatches(have, want string) bool {
	if want == "" || have == "" {
		return true
	}
	return have == want
}

// Quote runs the full single-pass pricing pipeline: per-line effective
// prices, per-category discount allocation, shipping and surcharge lines,
// return fees and the grand total with its COD advance split. It is a pure
// function of its input and never fails on malformed data.
func Quote(in Input) Breakdown {
	sched := DefaultFeeSchedule()
	if in.Fees != nil {
		sched = *in.Fees
	}

	var out Breakdown
	if len(in.Items) == 0 {
		// Nothing to ship and nothing to charge for; shipping and
		// surcharges only ever attach to actual lines.
		return out
	}
	for _, item := range in.Items {
		out.Subtotal += float64(qty(item.Qty)) * ItemPrice(item)
	}

	couponPct := categoryMaxPercent(in.Coupons, false)
	prepaidPct := categoryMaxPercent(in.Offers, true)

	for _, cat := range distinctCategories(in.Items) {
		catSubtotal := categorySubtotal(in.Items, cat)
		if catSubtotal == 0 {
			continue
		}
		couponP := couponPct[cat]
		prepaidP := prepaidPct[cat]
		label := categoryLabel(in.CategoryName, cat)

		var effectiveP float64
		switch {
		case in.PaymentMode == PaymentCOD:
			// Prepaid offers never apply to cash on delivery.
			effectiveP = couponP
			if couponP > 0 {
				out.DiscountLines = append(out.DiscountLines, DiscountLine{
					CategoryID: cat,
					Label:      "Coupon Discount for " + label + " (" + percent(couponP) + ")",
					Percent:    couponP,
					Amount:     catSubtotal * couponP / 100,
				})
			}
		case couponP > 0 && couponP < prepaidP:
			// The larger prepaid rate wins, but both lines are shown so the
			// buyer sees the coupon honoured; the two amounts sum exactly to
			// catSubtotal*prepaidP/100.
			effectiveP = prepaidP
			out.DiscountLines = append(out.DiscountLines,
				DiscountLine{
					CategoryID: cat,
					Label:      "Coupon Discount for " + label + " (" + percent(couponP) + ")",
					Percent:    couponP,
					Amount:     catSubtotal * couponP / 100,
				},
				DiscountLine{
					CategoryID: cat,
					Label:      "Additional Prepaid Discount for " + label + " (" + percent(prepaidP-couponP) + ")",
					Percent:    prepaidP - couponP,
					Amount:     catSubtotal * (prepaidP - couponP) / 100,
				})
		case couponP > 0:
			effectiveP = couponP
			out.DiscountLines = append(out.DiscountLines, DiscountLine{
				CategoryID: cat,
				Label:      "Coupon Discount for " + label + " (" + percent(couponP) + ")",
				Percent:    couponP,
				Amount:     catSubtotal * couponP / 100,
			})
		case prepaidP > 0:
			effectiveP = prepaidP
			out.DiscountLines = append(out.DiscountLines, DiscountLine{
				CategoryID: cat,
				Label:      "Prepaid Discount for " + label + " (" + percent(prepaidP) + ")",
				Percent:    prepaidP,
				Amount:     catSubtotal * prepaidP / 100,
			})
		}
		out.Discount += catSubtotal * effectiveP / 100
	}

	out.SubtotalAfterDiscount = out.Subtotal - out.Discount
	if out.SubtotalAfterDiscount < 0 {
		out.SubtotalAfterDiscount = 0
	}

	if out.SubtotalAfterDiscount >= num(in.Shipping.MinFreeDeliveryAmount) {
		out.ShippingCharge = 0
	} else {
		out.ShippingCharge = num(in.Shipping.ShippingExtraCharges)
	}
	if in.DeliveryType == DeliveryExpress {
		out.ExpressCharge = num(in.Shipping.AirExpressDeliveryCharge)
	}

	for _, item := range in.Items {
		policy, ok := PolicyFor(item, sched)
		if !ok {
			continue
		}
		lineValue := float64(qty(item.Qty)) * ItemPrice(item)
		fee := policy.Fee(sched, lineValue)
		if item.ReturnType == ReturnEasyReturn {
			out.ReturnFees += fee
		} else {
			out.ReplacementFees += fee
		}
	}

	out.Total = out.SubtotalAfterDiscount + out.ShippingCharge + out.ExpressCharge + out.ReturnFees + out.ReplacementFees

	if in.PaymentMode == PaymentCOD {
		// Only 10% of the discounted product value is collected upfront;
		// fixed fees represent real upfront costs and are charged in full.
		out.Advance = sched.CODAdvanceRate*out.SubtotalAfterDiscount + out.ShippingCharge + out.ExpressCharge + out.ReturnFees + out.ReplacementFees
		out.Remaining = out.Total - out.Advance
	} else {
		out.Advance = out.Total
		out.Remaining = 0
	}
	return out
}

// distinctCategories preserves first-appearance order so discount lines come
// out in a stable order for identical carts.
func distinctCategories(items []LineItem) []string {
	seen := make(map[string]struct{}, len(items))
	var cats []string
	for _, item := range items {
		cat := item.Product.CategoryID
		if cat == "" {
			continue
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		cats = append(cats, cat)
	}
	return cats
}

func categorySubtotal(items []LineItem, categoryID string) float64 {
	var total float64
	for _, item := range items {
		if item.Product.CategoryID != categoryID {
			continue
		}
		total += float64(qty(item.Qty)) * ItemPrice(item)
	}
	return total
}

// categoryMaxPercent builds category -> max discount percentage over offers
// of the requested kind.
func categoryMaxPercent(offers []Offer, prepaid bool) map[string]float64 {
	out := make(map[string]float64)
	for _, offer := range offers {
		if offer.Prepaid() != prepaid {
			continue
		}
		pct := num(offer.DiscountPercentage)
		if pct == 0 {
			continue
		}
		for _, cat := range offer.Categories {
			if pct > out[cat] {
				out[cat] = pct
			}
		}
	}
	return out
}

func categoryLabel(resolve func(string) string, categoryID string) string {
	if resolve == nil {
		return categoryID
	}
	return resolve(categoryID)
}

func percent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}
