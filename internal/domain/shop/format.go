package shop

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPrice renders an amount using the currency configuration: round to
// the configured decimal places, group the whole part with the thousands
// separator, then attach the symbol on the configured side.
func FormatPrice(amount decimal.Decimal, c Currency) string {
	places := c.DecimalPlaces
	if places < 0 {
		places = 0
	}
	fixed := amount.StringFixed(int32(places))

	whole, frac, _ := strings.Cut(fixed, ".")

	negative := strings.HasPrefix(whole, "-")
	if negative {
		whole = whole[1:]
	}

	sep := c.ThousandsSeparator
	grouped := groupThousands(whole, sep)
	if negative {
		grouped = "-" + grouped
	}

	formatted := grouped
	if frac != "" {
		dec := c.DecimalSeparator
		if dec == "" {
			dec = "."
		}
		formatted += dec + frac
	}

	space := ""
	if c.SpaceBetweenAmount {
		space = " "
	}
	if c.SymbolPosition == SymbolAfter {
		return formatted + space + c.Symbol
	}
	return c.Symbol + space + formatted
}

func groupThousands(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
