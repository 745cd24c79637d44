package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		text             string
		expectedValid    bool
		expectedAmount   string
		expectedCurrency string
	}{
		{text: "$8.50", expectedValid: true, expectedAmount: "8.5", expectedCurrency: "USD"},
		{text: "$1,234.56", expectedValid: true, expectedAmount: "1234.56", expectedCurrency: "USD"},
		{text: "$5.00 to $9.00", expectedValid: true, expectedAmount: "5", expectedCurrency: "USD"},
		{text: "C $12.99", expectedValid: true, expectedAmount: "12.99", expectedCurrency: "CAD"},
		{text: "AU $20", expectedValid: true, expectedAmount: "20", expectedCurrency: "AUD"},
		{text: "£7.25", expectedValid: true, expectedAmount: "7.25", expectedCurrency: "GBP"},
		{text: "+$4.99 delivery", expectedValid: true, expectedAmount: "4.99", expectedCurrency: "USD"},
		{text: "15", expectedValid: true, expectedAmount: "15", expectedCurrency: ""},
		{text: "Free delivery", expectedValid: false},
		{text: "", expectedValid: false},
	}

	for _, tc := range testCases {
		amount, currency := ParsePrice(tc.text)
		assert.Equal(t, tc.expectedValid, amount.Valid, tc.text)
		if tc.expectedValid {
			assert.Equal(t, tc.expectedAmount, amount.Decimal.String(), tc.text)
			assert.Equal(t, tc.expectedCurrency, currency, tc.text)
		}
	}
}
