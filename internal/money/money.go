// Package money provides a fixed-precision monetary amount tied to an ISO 4217
// currency code. Arithmetic between two values requires identical currencies;
// a mismatch is reported as CURRENCY_MISMATCH and never coerced.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "hearth/internal/errors"
)

// Money is a decimal amount in a single currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// New creates a Money value. The currency code is upper-cased.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: normalize(currency)}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return New(decimal.Zero, currency)
}

// FromInt creates a Money value from whole currency units.
func FromInt(units int64, currency string) Money {
	return New(decimal.NewFromInt(units), currency)
}

// FromMinor creates a Money value from minor units (cents for USD, yen for JPY).
func FromMinor(minor int64, currency string) Money {
	currency = normalize(currency)
	return New(decimal.New(minor, -Precision(currency)), currency)
}

// Parse parses a plain decimal string such as "1234.56".
func Parse(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid amount %q", s))
	}
	return New(d, currency), nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests and constants.
func MustParse(s, currency string) Money {
	m, err := Parse(s, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func normalize(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

func mismatch(a, b Money) error {
	return apperrors.WithMessage(apperrors.ErrCurrencyMismatch,
		fmt.Sprintf("cannot combine %s and %s amounts", a.Currency, b.Currency))
}

// SameCurrency reports whether both values share a currency.
func (m Money) SameCurrency(o Money) bool {
	return m.Currency == o.Currency
}

// Add returns m + o.
func (m Money) Add(o Money) (Money, error) {
	if !m.SameCurrency(o) {
		return Money{}, mismatch(m, o)
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Sub returns m - o.
func (m Money) Sub(o Money) (Money, error) {
	if !m.SameCurrency(o) {
		return Money{}, mismatch(m, o)
	}
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}, nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Abs returns |m|.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs(), Currency: m.Currency}
}

// Cmp compares amounts: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) (int, error) {
	if !m.SameCurrency(o) {
		return 0, mismatch(m, o)
	}
	return m.Amount.Cmp(o.Amount), nil
}

// Equal reports whether both values have the same currency and numerically equal amounts.
func (m Money) Equal(o Money) bool {
	return m.SameCurrency(o) && m.Amount.Equal(o.Amount)
}

// IsNegative reports m < 0.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// IsZero reports m == 0. Zero is neither negative nor positive.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsPositive reports m > 0.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// Round returns a copy rounded to the currency's minor units.
func (m Money) Round() Money {
	return Money{Amount: m.Amount.Round(Precision(m.Currency)), Currency: m.Currency}
}

// String formats m with default options.
func (m Money) String() string {
	return Format(m, FormatOptions{})
}

// Sum adds values in the given currency. An empty list sums to zero.
func Sum(currency string, values ...Money) (Money, error) {
	total := Zero(currency)
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// Percent returns part / whole * 100. A zero whole yields 0 rather than an error.
func Percent(part, whole Money) (float64, error) {
	if !part.SameCurrency(whole) {
		return 0, mismatch(part, whole)
	}
	if whole.IsZero() {
		return 0, nil
	}
	return part.Amount.Div(whole.Amount).Mul(decimal.NewFromInt(100)).InexactFloat64(), nil
}

// Max returns the larger of a and b.
func Max(a, b Money) (Money, error) {
	c, err := a.Cmp(b)
	if err != nil {
		return Money{}, err
	}
	if c >= 0 {
		return a, nil
	}
	return b, nil
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON renders the amount as a string with at least the currency's minor
// units, keeping any extra stored digits.
func (m Money) MarshalJSON() ([]byte, error) {
	places := Precision(m.Currency)
	if exp := -m.Amount.Exponent(); exp > places {
		places = exp
	}
	return json.Marshal(moneyJSON{Amount: m.Amount.StringFixed(places), Currency: m.Currency})
}

// UnmarshalJSON accepts {"amount": "12.34", "currency": "USD"}.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = New(raw.Amount, raw.Currency)
	return nil
}
