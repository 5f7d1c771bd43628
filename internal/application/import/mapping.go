package importapp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kasapos/backend/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SystemField is a product attribute an import column can be mapped to
type SystemField string

const (
	FieldName          SystemField = "name"
	FieldBarcode       SystemField = "barcode"
	FieldPurchasePrice SystemField = "purchasePrice"
	FieldSalePrice     SystemField = "salePrice"
	FieldVatRate       SystemField = "vatRate"
	FieldStock         SystemField = "stock"
	FieldCategory      SystemField = "category"
	FieldImageURL      SystemField = "imageUrl"
)

// RequiredFields must all be mapped before processing, in processing order
var RequiredFields = []SystemField{
	FieldName,
	FieldBarcode,
	FieldPurchasePrice,
	FieldSalePrice,
	FieldVatRate,
	FieldStock,
	FieldCategory,
}

// OptionalFields may be left unmapped
var OptionalFields = []SystemField{FieldImageURL}

// ColumnMapping maps a system field to a source column header
type ColumnMapping map[SystemField]string

// Column returns the mapped source column, or "" when unmapped
func (m ColumnMapping) Column(f SystemField) string {
	return strings.TrimSpace(m[f])
}

// Missing lists required fields without a column
func (m ColumnMapping) Missing() []SystemField {
	var missing []SystemField
	for _, f := range RequiredFields {
		if m.Column(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Validate checks that every required field is mapped to one of headers
func (m ColumnMapping) Validate(headers []string) error {
	if missing := m.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		return shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("unmapped required fields: %s", strings.Join(names, ", ")))
	}
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}
	for f, col := range m {
		if col != "" && !known[col] {
			return shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("field %s mapped to unknown column %q", f, col))
		}
	}
	return nil
}

// MappingSuggestion is the guessed mapping shown before the user confirms it
type MappingSuggestion struct {
	Mapping ColumnMapping `json:"mapping"`
	// SalePriceIncludesVat is guessed from headers such as "KDV Dahil Fiyat"
	SalePriceIncludesVat bool `json:"sale_price_includes_vat"`
}

// fieldSynonyms are folded header spellings, Turkish first
var fieldSynonyms = map[SystemField][]string{
	FieldName:          {"urunadi", "urun", "urunismi", "ad", "adi", "isim", "stokadi", "name", "productname", "product", "title"},
	FieldBarcode:       {"barkod", "barkodno", "barkodnumarasi", "barcode", "ean", "ean13", "gtin", "upc"},
	FieldPurchasePrice: {"alisfiyati", "alisfiyat", "alis", "maliyet", "purchaseprice", "cost", "costprice", "buyprice"},
	FieldSalePrice:     {"satisfiyati", "satisfiyat", "satis", "fiyat", "etiketfiyati", "perakendefiyat", "saleprice", "price", "sellingprice", "retailprice"},
	FieldVatRate:       {"kdv", "kdvorani", "kdvoran", "kdvyuzdesi", "vergi", "vat", "vatrate", "tax", "taxrate"},
	FieldStock:         {"stok", "stokmiktari", "miktar", "adet", "mevcut", "stock", "quantity", "qty"},
	FieldCategory:      {"kategori", "kategoriadi", "reyon", "grup", "category", "categoryname"},
	FieldImageURL:      {"resim", "gorsel", "resimurl", "gorselurl", "image", "imageurl", "photo"},
}

// vatInclusiveMarkers in a sale price header mean the price already contains VAT
var vatInclusiveMarkers = []string{"kdvdahil", "kdvli", "dahil", "inclvat", "withvat", "gross"}

// suggestOrder puts purchase before sale so "Alış Fiyatı" is not taken by the generic "fiyat"
var suggestOrder = []SystemField{
	FieldName, FieldBarcode, FieldPurchasePrice, FieldSalePrice,
	FieldVatRate, FieldStock, FieldCategory, FieldImageURL,
}

// containsMinLen keeps short synonyms such as "ad" or "kdv" out of substring matching
const containsMinLen = 4

// SuggestMapping guesses a mapping from header names.
// Exact synonym matches are assigned first, then substring matches; each header is used once.
func SuggestMapping(headers []string) MappingSuggestion {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = foldHeader(h)
	}
	mapping := make(ColumnMapping)
	used := make([]bool, len(headers))

	assign := func(f SystemField, match func(key, syn string) bool) {
		if _, done := mapping[f]; done {
			return
		}
		for _, syn := range fieldSynonyms[f] {
			for i, key := range keys {
				if !used[i] && match(key, syn) {
					mapping[f] = headers[i]
					used[i] = true
					return
				}
			}
		}
	}
	for _, f := range suggestOrder {
		assign(f, func(key, syn string) bool { return key == syn })
	}
	for _, f := range suggestOrder {
		assign(f, func(key, syn string) bool {
			return len(syn) >= containsMinLen && strings.Contains(key, syn)
		})
	}

	suggestion := MappingSuggestion{Mapping: mapping}
	if col, ok := mapping[FieldSalePrice]; ok {
		key := foldHeader(col)
		for _, marker := range vatInclusiveMarkers {
			if strings.Contains(key, marker) {
				suggestion.SalePriceIncludesVat = true
				break
			}
		}
	}
	return suggestion
}

var asciiFold = strings.NewReplacer(
	"ı", "i", "ğ", "g", "ü", "u", "ş", "s", "ö", "o", "ç", "c", "â", "a", "î", "i", "û", "u",
)

// foldHeader lowercases with Turkish rules, folds to ASCII and keeps letters and digits only
func foldHeader(h string) string {
	folded := asciiFold.Replace(cases.Lower(language.Turkish).String(strings.TrimSpace(h)))
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, folded)
}
