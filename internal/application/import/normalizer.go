package importapp

import (
	"fmt"
	"math"
	"strings"

	"github.com/kasapos/backend/internal/domain/catalog"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

// NormalizeOptions are the user's answers that affect how values are read
type NormalizeOptions struct {
	SalePriceIncludesVat bool `json:"sale_price_includes_vat"`
}

// NormalizedRow is the outcome of normalizing one raw row.
// Product is nil when the row cannot be imported; Warning then holds the reason.
type NormalizedRow struct {
	Line    int                   `json:"line"`
	Product *catalog.ProductInput `json:"product,omitempty"`
	Warning string                `json:"warning,omitempty"`

	// StockProvided is false when the stock cell was empty and 0 was substituted
	StockProvided bool `json:"stock_provided"`

	failure *rowFailure
}

// OK reports whether the row produced a product
func (r NormalizedRow) OK() bool {
	return r.Product != nil
}

// RowError converts a failed row to a row error; ok is false for a successful row
func (r NormalizedRow) RowError() (csvimport.RowError, bool) {
	if r.failure == nil {
		return csvimport.RowError{}, false
	}
	return csvimport.NewRowErrorWithValue(r.Line, r.failure.column, r.failure.code, r.Warning, r.failure.value), true
}

type rowFailure struct {
	column string
	code   string
	value  string
}

// RowNormalizer turns raw rows into product inputs under a confirmed mapping.
// It holds no store handle and is safe for concurrent use.
type RowNormalizer struct {
	mapping ColumnMapping
	opts    NormalizeOptions
}

// NewRowNormalizer creates a normalizer for one mapping
func NewRowNormalizer(mapping ColumnMapping, opts NormalizeOptions) *RowNormalizer {
	return &RowNormalizer{mapping: mapping, opts: opts}
}

type rowState struct {
	warnings []string
	failure  *rowFailure
	reason   string
}

func (s *rowState) warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

func (s *rowState) fail(column, code, value, format string, args ...any) {
	if s.failure != nil {
		return
	}
	s.failure = &rowFailure{column: column, code: code, value: value}
	s.reason = fmt.Sprintf(format, args...)
}

// Normalize maps one raw row. Missing required mappings and empty name or
// barcode are fatal; every other problem is replaced by a default and reported as a warning.
func (n *RowNormalizer) Normalize(line int, raw csvimport.RawRow) NormalizedRow {
	st := &rowState{}
	values := make(map[SystemField]string, len(RequiredFields))
	for _, f := range RequiredFields {
		col := n.mapping.Column(f)
		if col == "" {
			st.fail("", csvimport.ErrCodeImportUnmappedField, "", "required field %s is not mapped", f)
			continue
		}
		values[f] = strings.TrimSpace(raw[col])
	}
	if st.failure != nil {
		return NormalizedRow{Line: line, Warning: st.reason, failure: st.failure}
	}

	in := catalog.ProductInput{}

	in.Name = values[FieldName]
	if in.Name == "" {
		st.fail(n.mapping.Column(FieldName), csvimport.ErrCodeImportRequiredField, "", "name is empty")
	}

	rawBarcode := values[FieldBarcode]
	in.Barcode = sanitizeBarcode(rawBarcode)
	switch {
	case rawBarcode == "":
		st.fail(n.mapping.Column(FieldBarcode), csvimport.ErrCodeImportRequiredField, "", "barcode is empty")
	case in.Barcode == "":
		st.fail(n.mapping.Column(FieldBarcode), csvimport.ErrCodeImportInvalidBarcode, rawBarcode,
			"barcode %q has no digits", rawBarcode)
	case in.Barcode != rawBarcode:
		st.warn("barcode %q sanitized to %q", rawBarcode, in.Barcode)
	}
	if st.failure != nil {
		return NormalizedRow{Line: line, Warning: st.reason, failure: st.failure}
	}

	in.PurchasePrice = st.amount(FieldPurchasePrice, values[FieldPurchasePrice])
	salePrice := st.amount(FieldSalePrice, values[FieldSalePrice])
	in.VatRate = st.vatRate(values[FieldVatRate])

	stock, provided := st.stock(values[FieldStock])
	in.Stock = stock

	in.Category = values[FieldCategory]
	if in.Category == "" {
		st.warn("category empty, using %s", catalog.SentinelCategoryName)
		in.Category = catalog.SentinelCategoryName
	}

	if col := n.mapping.Column(FieldImageURL); col != "" {
		in.ImageURL = strings.TrimSpace(raw[col])
	}

	// the rate is final only now, so both prices are derived here
	if n.opts.SalePriceIncludesVat {
		inclusive := salePrice
		in.SalePrice = catalog.PriceWithoutVat(inclusive, in.VatRate)
		in.PriceWithVat = &inclusive
	} else {
		in.SalePrice = salePrice
		inclusive := catalog.PriceWithVat(salePrice, in.VatRate)
		in.PriceWithVat = &inclusive
	}

	if err := catalog.Validate(in); err != nil {
		return NormalizedRow{
			Line:    line,
			Warning: err.Error(),
			failure: &rowFailure{code: csvimport.ErrCodeImportRequiredField},
		}
	}

	return NormalizedRow{
		Line:          line,
		Product:       &in,
		Warning:       strings.Join(st.warnings, "; "),
		StockProvided: provided,
	}
}

// amount parses a price; empty, unparsable and negative values become safe defaults
func (s *rowState) amount(f SystemField, value string) decimal.Decimal {
	if value == "" {
		s.warn("%s empty, using 0", f)
		return decimal.Zero
	}
	d, ok := csvimport.ParseLocaleNumber(value)
	if !ok {
		s.warn("%s %q is not a number, using 0", f, value)
		return decimal.Zero
	}
	if d.IsNegative() {
		s.warn("%s %q is negative, using %s", f, value, d.Abs().String())
		return d.Abs()
	}
	return d
}

func (s *rowState) vatRate(value string) catalog.VatRate {
	if value == "" {
		s.warn("vatRate empty, using %d", catalog.DefaultVatRate)
		return catalog.DefaultVatRate
	}
	rate, exact, ok := ParseVatRate(value)
	switch {
	case !ok:
		s.warn("vatRate %q is not a number, using %d", value, catalog.DefaultVatRate)
		return catalog.DefaultVatRate
	case !exact:
		s.warn("vatRate %q rounded to %d", value, rate)
	}
	return rate
}

// maxStock bounds an imported stock count
var maxStock = decimal.NewFromInt(math.MaxInt32)

func (s *rowState) stock(value string) (int, bool) {
	if value == "" {
		s.warn("stock empty, using 0")
		return 0, false
	}
	d, ok := csvimport.ParseLocaleNumber(value)
	if !ok {
		s.warn("stock %q is not a number, using 0", value)
		return 0, false
	}
	if d.IsNegative() {
		s.warn("stock %q is negative, using its absolute value", value)
		d = d.Abs()
	}
	whole := d.Truncate(0)
	if whole.GreaterThan(maxStock) {
		s.warn("stock %q is out of range, using 0", value)
		return 0, false
	}
	if !whole.Equal(d) {
		s.warn("stock %q truncated to %s", value, whole.String())
	}
	return int(whole.IntPart()), true
}

// sanitizeBarcode keeps ASCII digits only
func sanitizeBarcode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
