// README: Common money value object used across modules.
package types

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in the smallest unit of its currency (cents, pence, whole yen).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

var symbols = map[string]string{
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
	"JPY": "¥",
	"KRW": "₩",
}

var printer = message.NewPrinter(language.English)

// ValidCurrency reports whether code is a known ISO 4217 code.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(code)
	return err == nil
}

// MinorDigits returns the number of decimal places used by a currency: 0 for whole-unit
// currencies such as JPY, 2 for USD/GBP. Unknown codes default to 2.
func MinorDigits(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Format renders the amount for display, e.g. "$21.40" or "¥2,300".
func (m Money) Format() string {
	sym, ok := symbols[m.Currency]
	if !ok {
		sym = m.Currency + " "
	}
	amount := m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := MinorDigits(m.Currency)
	if digits == 0 {
		return sign + sym + printer.Sprintf("%d", amount)
	}
	div := int64(1)
	for i := 0; i < digits; i++ {
		div *= 10
	}
	major := printer.Sprintf("%d", amount/div)
	minor := fmt.Sprintf("%0*d", digits, amount%div)
	return sign + sym + major + "." + minor
}

// FormatRange renders "low–high", collapsing to a single value when both ends match.
func FormatRange(low, high Money) string {
	if low.Amount == high.Amount {
		return low.Format()
	}
	return strings.Join([]string{low.Format(), high.Format()}, "–")
}
