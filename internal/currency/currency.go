// Package currency normalizes and formats currency codes for display.
// Stored values keep whatever code the extraction returned; normalization
// happens only at presentation time.
package currency

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Some upstream listings report local shorthand instead of ISO 4217.
var aliases = map[string]string{
	"TL": "TRY",
}

// Normalize maps free-text codes to their ISO equivalents. Empty input
// defaults to USD.
func Normalize(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "USD"
	}
	if iso, ok := aliases[c]; ok {
		return iso
	}
	return c
}

var printer = message.NewPrinter(language.English)

// Format renders an amount with its currency symbol. Unknown or malformed
// codes fall back to a plain "<CODE> <amount>" rendering instead of failing.
func Format(amount float64, code string) string {
	iso := Normalize(code)
	unit, err := currency.ParseISO(iso)
	if err != nil {
		return fmt.Sprintf("%s %.2f", iso, amount)
	}
	return printer.Sprintf("%v", currency.Symbol(unit.Amount(amount)))
}
