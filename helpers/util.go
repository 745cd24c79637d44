package helpers

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var priceNumberRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)

// currency prefixes, longest first so "C $" wins over "$"
var currencySymbols = []struct {
	symbol   string
	currency string
}{
	{"AU $", "AUD"},
	{"C $", "CAD"},
	{"US $", "USD"},
	{"£", "GBP"},
	{"€", "EUR"},
	{"$", "USD"},
}

// ParsePrice extracts the first amount from price text such as "$1,234.56"
// or "$5.00 to $9.00" (the low end of a range is used). The second return
// value is the detected currency code, empty when no symbol is present.
func ParsePrice(text string) (decimal.NullDecimal, string) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	if text == "" {
		return decimal.NullDecimal{}, ""
	}

	if idx := strings.Index(strings.ToLower(text), " to "); idx != -1 {
		text = text[:idx]
	}

	currency := DetectCurrency(text)

	match := priceNumberRegex.FindString(text)
	if match == "" {
		return decimal.NullDecimal{}, currency
	}

	amount, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.NullDecimal{}, currency
	}
	return decimal.NewNullDecimal(amount), currency
}

// DetectCurrency returns the currency code for the symbol found in text
func DetectCurrency(text string) string {
	for _, c := range currencySymbols {
		if strings.Contains(text, c.symbol) {
			return c.currency
		}
	}
	return ""
}
