package catalog

import (
	"github.com/shopspring/decimal"
)

// VatRate is a Turkish KDV rate in percent
type VatRate int

// Valid VAT rates
const (
	VatRate0  VatRate = 0
	VatRate1  VatRate = 1
	VatRate8  VatRate = 8
	VatRate18 VatRate = 18
	VatRate20 VatRate = 20
)

// DefaultVatRate is used when a rate is missing or unparsable
const DefaultVatRate = VatRate18

// ValidVatRates lists the accepted rates in ascending order
var ValidVatRates = []VatRate{VatRate0, VatRate1, VatRate8, VatRate18, VatRate20}

var hundred = decimal.NewFromInt(100)

// IsValid reports whether the rate is one of ValidVatRates
func (r VatRate) IsValid() bool {
	for _, v := range ValidVatRates {
		if v == r {
			return true
		}
	}
	return false
}

// multiplier returns (100 + rate) / 100
func (r VatRate) multiplier() decimal.Decimal {
	return hundred.Add(decimal.NewFromInt(int64(r))).Div(hundred)
}

// PriceWithVat derives the VAT-inclusive price from a VAT-exclusive one, rounded to 2 places
func PriceWithVat(exclusive decimal.Decimal, rate VatRate) decimal.Decimal {
	return exclusive.Mul(rate.multiplier()).Round(2)
}

// PriceWithoutVat derives the VAT-exclusive price from a VAT-inclusive one, rounded to 2 places
func PriceWithoutVat(inclusive decimal.Decimal, rate VatRate) decimal.Decimal {
	return inclusive.DivRound(rate.multiplier(), 4).Round(2)
}

// NearestVatRate snaps an arbitrary percentage to the closest valid rate.
// Ties resolve to the lower rate.
func NearestVatRate(value decimal.Decimal) VatRate {
	best := ValidVatRates[0]
	bestDiff := value.Sub(decimal.NewFromInt(int64(best))).Abs()
	for _, r := range ValidVatRates[1:] {
		diff := value.Sub(decimal.NewFromInt(int64(r))).Abs()
		if diff.LessThan(bestDiff) {
			best, bestDiff = r, diff
		}
	}
	return best
}
