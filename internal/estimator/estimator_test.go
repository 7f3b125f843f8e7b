package estimator

import (
	"testing"
	"time"

	"hearth/internal/money"
	"hearth/internal/testutil"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func series(currency string, amounts ...string) []MonthTotal {
	out := make([]MonthTotal, 0, len(amounts))
	for i, a := range amounts {
		out = append(out, MonthTotal{Month: month(2025, time.Month(i+1)), Total: money.MustParse(a, currency)})
	}
	return out
}

func TestMedian(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   string
	}{
		{"single", []string{"42"}, "42"},
		{"odd", []string{"300", "100", "200"}, "200"},
		{"even_averages_middle", []string{"100", "400", "200", "300"}, "250"},
		{"even_rounds_to_cents", []string{"0.01", "0.02"}, "0.02"},
		{"outlier_resistant", []string{"500", "520", "480", "9000", "510"}, "510"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := make([]money.Money, 0, len(tc.values))
			for _, v := range tc.values {
				values = append(values, money.MustParse(v, "USD"))
			}
			got, ok, err := Median(values, "USD")
			testutil.AssertNoError(t, err)
			if !ok {
				t.Fatal("expected a median")
			}
			testutil.AssertMoney(t, got, money.MustParse(tc.want, "USD"))
		})
	}

	t.Run("empty", func(t *testing.T) {
		_, ok, err := Median(nil, "USD")
		testutil.AssertNoError(t, err)
		if ok {
			t.Error("expected no median for empty input")
		}
	})

	t.Run("yen_rounds_to_whole_units", func(t *testing.T) {
		got, _, err := Median([]money.Money{money.FromInt(1, "JPY"), money.FromInt(2, "JPY")}, "JPY")
		testutil.AssertNoError(t, err)
		testutil.AssertMoney(t, got, money.FromInt(2, "JPY"))
	})

	t.Run("currency_mismatch", func(t *testing.T) {
		_, _, err := Median([]money.Money{money.FromInt(1, "USD"), money.FromInt(2, "EUR")}, "USD")
		testutil.AssertAppError(t, err, "CURRENCY_MISMATCH")
	})
}

func TestEstimate(t *testing.T) {
	t.Run("trailing_window", func(t *testing.T) {
		e := New(3, "USD")
		// Jan..Jun; only Apr, May, Jun are considered.
		h := History{
			Income:   series("USD", "9000", "9000", "9000", "5000", "5200", "5100"),
			Spending: series("USD", "1", "1", "1", "3000", "2800", "3500"),
		}
		s, err := e.Estimate(h)
		testutil.AssertNoError(t, err)
		if s.EstimatedIncome == nil || s.EstimatedSpending == nil {
			t.Fatalf("expected both suggestions, got %+v", s)
		}
		testutil.AssertMoney(t, *s.EstimatedIncome, money.FromInt(5100, "USD"))
		testutil.AssertMoney(t, *s.EstimatedSpending, money.FromInt(3000, "USD"))
	})

	t.Run("no_history", func(t *testing.T) {
		s, err := New(0, "USD").Estimate(History{})
		testutil.AssertNoError(t, err)
		if s.EstimatedIncome != nil || s.EstimatedSpending != nil {
			t.Errorf("expected no suggestions, got %+v", s)
		}
	})

	t.Run("same_month_entries_are_summed", func(t *testing.T) {
		e := New(6, "USD")
		h := History{Spending: []MonthTotal{
			{Month: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), Total: money.FromInt(100, "USD")},
			{Month: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), Total: money.FromInt(50, "USD")},
		}}
		s, err := e.Estimate(h)
		testutil.AssertNoError(t, err)
		testutil.AssertMoney(t, *s.EstimatedSpending, money.FromInt(150, "USD"))
	})

	t.Run("default_lookback", func(t *testing.T) {
		if e := New(-1, "USD"); e.Lookback != DefaultLookback {
			t.Errorf("expected default lookback %d, got %d", DefaultLookback, e.Lookback)
		}
	})
}

func TestCategoryMedians(t *testing.T) {
	e := New(6, "USD")
	got, err := e.CategoryMedians(map[string][]MonthTotal{
		"groceries": series("USD", "400", "420", "380"),
		"empty":     nil,
	})
	testutil.AssertNoError(t, err)

	if _, ok := got["empty"]; ok {
		t.Error("expected categories without history to be omitted")
	}
	testutil.AssertMoney(t, got["groceries"], money.FromInt(400, "USD"))
}
