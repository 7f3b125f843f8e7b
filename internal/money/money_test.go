package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "hearth/internal/errors"
)

func assertMismatch(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, apperrors.ErrCurrencyMismatch) {
		t.Fatalf("expected CURRENCY_MISMATCH, got %v", err)
	}
}

func TestArithmetic(t *testing.T) {
	t.Run("add_and_sub", func(t *testing.T) {
		a := MustParse("400.10", "usd")
		b := MustParse("0.90", "USD")

		sum, err := a.Add(b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sum.Equal(FromInt(401, "USD")) {
			t.Errorf("expected 401, got %s", sum.Amount)
		}

		diff, err := b.Sub(a)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !diff.Equal(MustParse("-399.20", "USD")) {
			t.Errorf("expected -399.20, got %s", diff.Amount)
		}
	})

	t.Run("currency_mismatch", func(t *testing.T) {
		usd := FromInt(1, "USD")
		eur := FromInt(1, "EUR")

		_, err := usd.Add(eur)
		assertMismatch(t, err)
		_, err = usd.Sub(eur)
		assertMismatch(t, err)
		_, err = usd.Cmp(eur)
		assertMismatch(t, err)
		_, err = Percent(usd, eur)
		assertMismatch(t, err)
	})

	t.Run("neg", func(t *testing.T) {
		if got := FromInt(5, "USD").Neg(); !got.Equal(FromInt(-5, "USD")) {
			t.Errorf("expected -5, got %s", got.Amount)
		}
	})

	t.Run("sum_empty_is_zero", func(t *testing.T) {
		total, err := Sum("USD")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !total.IsZero() || total.Currency != "USD" {
			t.Errorf("expected USD 0, got %v", total)
		}
	})

	t.Run("sum_has_no_drift", func(t *testing.T) {
		values := make([]Money, 0, 10)
		for i := 0; i < 10; i++ {
			values = append(values, MustParse("0.10", "USD"))
		}
		total, err := Sum("USD", values...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !total.Equal(FromInt(1, "USD")) {
			t.Errorf("expected exactly 1.00, got %s", total.Amount)
		}
	})
}

func TestSignPredicates(t *testing.T) {
	zero := Zero("USD")
	if zero.IsNegative() || zero.IsPositive() || !zero.IsZero() {
		t.Error("zero must be neither negative nor positive")
	}
	if !FromInt(-1, "USD").IsNegative() {
		t.Error("expected -1 to be negative")
	}
	if !MustParse("0.01", "USD").IsPositive() {
		t.Error("expected 0.01 to be positive")
	}
}

func TestCmp(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"2.00", "2", 0},
		{"-1", "-2", 1},
	}
	for _, tc := range cases {
		got, err := MustParse(tc.a, "USD").Cmp(MustParse(tc.b, "USD"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Errorf("Cmp(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPercent(t *testing.T) {
	got, err := Percent(FromInt(100, "USD"), FromInt(600, "USD"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 16.66 || got > 16.67 {
		t.Errorf("expected ~16.67, got %f", got)
	}

	got, err = Percent(FromInt(50, "USD"), Zero("USD"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0 for zero whole, got %f", got)
	}
}

func TestPrecision(t *testing.T) {
	if Precision("JPY") != 0 {
		t.Errorf("expected JPY precision 0, got %d", Precision("JPY"))
	}
	if Precision("kwd") != 3 {
		t.Errorf("expected KWD precision 3, got %d", Precision("kwd"))
	}
	if Precision("USD") != 2 {
		t.Errorf("expected USD precision 2, got %d", Precision("USD"))
	}
	if !Step("JPY").Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected JPY step 1, got %s", Step("JPY"))
	}
	if !Step("USD").Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("expected USD step 0.01, got %s", Step("USD"))
	}
	if got := FromMinor(1234, "USD"); !got.Equal(MustParse("12.34", "USD")) {
		t.Errorf("expected 12.34, got %s", got.Amount)
	}
	if got := FromMinor(1234, "JPY"); !got.Equal(FromInt(1234, "JPY")) {
		t.Errorf("expected 1234, got %s", got.Amount)
	}
}

func TestFormat(t *testing.T) {
	two := 2
	zero := 0
	cases := []struct {
		name string
		m    Money
		opts FormatOptions
		want string
	}{
		{"usd_default", MustParse("1234.5", "USD"), FormatOptions{}, "$1,234.50"},
		{"negative", MustParse("-50", "USD"), FormatOptions{}, "-$50.00"},
		{"show_sign_positive", MustParse("5", "USD"), FormatOptions{ShowSign: true}, "+$5.00"},
		{"show_sign_zero", Zero("USD"), FormatOptions{ShowSign: true}, "$0.00"},
		{"yen_no_decimals", MustParse("1000", "JPY"), FormatOptions{}, "¥1,000"},
		{"yen_forced_precision", MustParse("1000", "JPY"), FormatOptions{Precision: &two}, "¥1,000.00"},
		{"precision_zero_rounds", MustParse("16.5", "USD"), FormatOptions{Precision: &zero}, "$17"},
		{"unknown_currency", MustParse("1234567.891", "XYZ"), FormatOptions{}, "XYZ 1,234,567.89"},
		{"tiny_negative_rounds_to_zero", MustParse("-0.001", "USD"), FormatOptions{}, "$0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Format(tc.m, tc.opts); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}

	t.Run("does_not_mutate", func(t *testing.T) {
		m := MustParse("10.005", "USD")
		_ = Format(m, FormatOptions{})
		if !m.Amount.Equal(decimal.RequireFromString("10.005")) {
			t.Errorf("format mutated amount to %s", m.Amount)
		}
	})
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(MustParse("400", "USD"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"amount":"400.00","currency":"USD"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	data, err = json.Marshal(MustParse("0.125", "USD"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"amount":"0.125","currency":"USD"}` {
		t.Errorf("extra stored digits should be kept, got %s", data)
	}

	var m Money
	if err := json.Unmarshal([]byte(`{"amount":"12.34","currency":"eur"}`), &m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Equal(MustParse("12.34", "EUR")) {
		t.Errorf("unexpected decoded value: %v", m)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("abc", "USD"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	m, err := Parse(" 12.50 ", "usd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Currency != "USD" {
		t.Errorf("expected USD, got %s", m.Currency)
	}
}
