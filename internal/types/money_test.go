package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoneyFormat(t *testing.T) {
	tests := []struct {
		name string
		m    Money
		want string
	}{
		{"dollars with cents", Money{Amount: 2140, Currency: "USD"}, "$21.40"},
		{"dollars below one", Money{Amount: 5, Currency: "USD"}, "$0.05"},
		{"pounds", Money{Amount: 1299, Currency: "GBP"}, "£12.99"},
		{"yen has no decimals", Money{Amount: 730, Currency: "JPY"}, "¥730"},
		{"yen grouping", Money{Amount: 2300, Currency: "JPY"}, "¥2,300"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Format())
		})
	}
}

func TestMinorDigits(t *testing.T) {
	assert.Equal(t, 2, MinorDigits("USD"))
	assert.Equal(t, 2, MinorDigits("GBP"))
	assert.Equal(t, 0, MinorDigits("JPY"))
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("USD"))
	assert.False(t, ValidCurrency("XXQ"))
}

func TestFormatRange(t *testing.T) {
	low := Money{Amount: 1900, Currency: "USD"}
	high := Money{Amount: 2300, Currency: "USD"}
	assert.Equal(t, "$19.00–$23.00", FormatRange(low, high))
	assert.Equal(t, "$19.00", FormatRange(low, low))
}
