package csvimport

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// currencyMarks are stripped from numeric cells before parsing
var currencyMarks = []string{"₺", "TL", "TRY"}

// ParseLocaleNumber parses numbers written with Turkish or plain separators.
// "2.065,42" and "2065.42" both yield 2065.42; a single separator of either
// kind is decimal, a repeated one is a thousands separator. When both appear
// the last one is decimal. Currency marks and spaces are ignored.
// The second result is false for empty or unparsable input.
func ParseLocaleNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	for _, mark := range currencyMarks {
		if strings.HasSuffix(upper, mark) {
			s = s[:len(s)-len(mark)]
			upper = upper[:len(upper)-len(mark)]
		}
		if strings.HasPrefix(upper, mark) {
			s = s[len(mark):]
			upper = upper[len(mark):]
		}
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	if !isPlainDecimal(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// isPlainDecimal accepts an optional sign, digits, and at most one point with digits on some side
func isPlainDecimal(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits, points := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			points++
		default:
			return false
		}
	}
	return digits > 0 && points <= 1
}
