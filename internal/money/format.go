package money

import "strings"

// FormatOptions controls display formatting.
type FormatOptions struct {
	// ShowSign prefixes positive amounts with "+".
	ShowSign bool
	// Precision overrides the currency's minor units when set.
	Precision *int
}

// Format renders m for display, e.g. "$1,234.50", "-$50.00" or "¥1,000".
// Rounding is applied to the rendered text only; m is never modified.
func Format(m Money, opts FormatOptions) string {
	places := Precision(m.Currency)
	if opts.Precision != nil {
		places = int32(max(*opts.Precision, 0))
	}

	rounded := m.Amount.Round(places)
	digits := rounded.Abs().StringFixed(places)

	intPart, frac, _ := strings.Cut(digits, ".")
	number := groupThousands(intPart)
	if frac != "" {
		number += "." + frac
	}

	var sign string
	switch {
	case rounded.IsNegative():
		sign = "-"
	case opts.ShowSign && rounded.IsPositive():
		sign = "+"
	}

	if sym, ok := Symbol(m.Currency); ok {
		return sign + sym + number
	}
	return sign + m.Currency + " " + number
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
