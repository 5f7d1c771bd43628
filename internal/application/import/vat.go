package importapp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kasapos/backend/internal/domain/catalog"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// vatLookup maps the spellings seen in supplier sheets to a rate
var vatLookup = buildVatLookup()

func buildVatLookup() map[string]catalog.VatRate {
	table := make(map[string]catalog.VatRate)
	for _, r := range catalog.ValidVatRates {
		n := int(r)
		fraction := decimal.New(int64(n), -2)
		forms := []string{
			fmt.Sprintf("%d", n),
			fmt.Sprintf("%%%d", n),
			fmt.Sprintf("%d%%", n),
			fmt.Sprintf("kdv%d", n),
			fmt.Sprintf("kdv%%%d", n),
			fmt.Sprintf("kdv%d%%", n),
			fmt.Sprintf("%%%dkdv", n),
			fmt.Sprintf("vat%d", n),
			fmt.Sprintf("vat%%%d", n),
			fraction.String(),
			fraction.StringFixed(2),
		}
		for _, f := range forms {
			table[f] = r
			table[strings.ReplaceAll(f, ".", ",")] = r
		}
	}
	return table
}

// ParseVatRate reads a VAT cell such as "%18", "18", "0,18" or "KDV %8".
// Known spellings resolve exactly; other numbers are snapped to the nearest
// valid rate with exact=false, and fractions below 1 are read as ratios.
// ok is false when no number can be read.
func ParseVatRate(value string) (rate catalog.VatRate, exact bool, ok bool) {
	key := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cases.Lower(language.Turkish).String(value))
	if key == "" {
		return catalog.DefaultVatRate, false, false
	}
	if r, found := vatLookup[key]; found {
		return r, true, true
	}

	numeric := strings.TrimFunc(key, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	d, parsed := csvimport.ParseLocaleNumber(numeric)
	if !parsed {
		return catalog.DefaultVatRate, false, false
	}
	if d.IsPositive() && d.LessThan(decimal.NewFromInt(1)) && strings.ContainsAny(numeric, ".,") {
		d = d.Mul(decimal.NewFromInt(100))
	}
	rate = catalog.NearestVatRate(d)
	return rate, d.Equal(decimal.NewFromInt(int64(rate))), true
}
