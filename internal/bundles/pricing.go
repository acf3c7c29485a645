package bundles

import (
	"github.com/shopspring/decimal"

	"github.com/craftmarket/bundles-backend/pkg/enums"
)

const (
	// MoneyPlaces is the scale money is stored and displayed at.
	MoneyPlaces int32 = 2
	// PercentPlaces is the scale percentages are stored at.
	PercentPlaces int32 = 4
)

var hundred = decimal.NewFromInt(100)

// Gross is the sum of unit price times quantity over every item.
func Gross(items ItemSet) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Reconcile derives the effective price and the non-driving discount field
// from the items and the driving discount. It is recomputed from scratch after
// every change, so a percentage survives item edits while an amount is
// re-capped to the new gross. Arithmetic is exact; rounding happens only when
// the result is stored or displayed.
func Reconcile(items ItemSet, discount Discount) Pricing {
	gross := Gross(items)

	switch discount.Driver {
	case enums.DiscountDriverPercentage:
		p := clamp(discount.Value, decimal.Zero, hundred)
		effective := gross.Mul(hundred.Sub(p)).Div(hundred)
		amount := decimal.Max(gross.Sub(effective), decimal.Zero)
		return Pricing{
			Gross:              gross,
			EffectivePrice:     effective,
			DiscountAmount:     amount,
			DiscountPercentage: p,
		}
	case enums.DiscountDriverAmount:
		a := clamp(discount.Value, decimal.Zero, gross)
		effective := decimal.Max(gross.Sub(a), decimal.Zero)
		percentage := decimal.Zero
		if gross.IsPositive() {
			percentage = gross.Sub(effective).Div(gross).Mul(hundred)
		}
		return Pricing{
			Gross:              gross,
			EffectivePrice:     effective,
			DiscountAmount:     a,
			DiscountPercentage: percentage,
		}
	default:
		return Pricing{
			Gross:              gross,
			EffectivePrice:     gross,
			DiscountAmount:     decimal.Zero,
			DiscountPercentage: decimal.Zero,
		}
	}
}

// Rounded returns the pricing at storage scale.
func (p Pricing) Rounded() Pricing {
	gross := p.Gross.Round(MoneyPlaces)
	effective := p.EffectivePrice.Round(MoneyPlaces)
	return Pricing{
		Gross:              gross,
		EffectivePrice:     effective,
		DiscountAmount:     gross.Sub(effective),
		DiscountPercentage: p.DiscountPercentage.Round(PercentPlaces),
	}
}

// NormalizeDiscount rounds the seller's input to storage scale so a stored
// bundle reloads to the same pricing. Negative values become zero.
func NormalizeDiscount(d Discount) Discount {
	switch d.Driver {
	case enums.DiscountDriverPercentage:
		return Discount{Driver: d.Driver, Value: clamp(d.Value, decimal.Zero, hundred).Round(PercentPlaces)}
	case enums.DiscountDriverAmount:
		return Discount{Driver: d.Driver, Value: decimal.Max(d.Value, decimal.Zero).Round(MoneyPlaces)}
	default:
		return NoDiscount()
	}
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
