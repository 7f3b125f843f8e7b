package budget

import (
	"testing"

	"hearth/internal/testutil"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		budgeted    string
		actual      string
		initialized bool
		want        Status
	}{
		{"uninitialized_wins", "100", "500", false, StatusUninitialized},
		{"negative_available", "100", "100.01", true, StatusOverBudget},
		{"exactly_spent", "100", "100", true, StatusOnBudget},
		{"above_threshold", "100", "90.01", true, StatusOnBudget},
		{"at_threshold", "100", "90", true, StatusUnderBudget},
		{"nothing_spent", "100", "0", true, StatusUnderBudget},
		{"zero_budget_no_spend", "0", "0", true, StatusOnBudget},
		{"refund_exceeds_spend", "100", "-20", true, StatusUnderBudget},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Classify(usd(tc.budgeted), usd(tc.actual), tc.initialized)
			testutil.AssertNoError(t, err)
			if c.Status != tc.want {
				t.Errorf("expected %s, got %s", tc.want, c.Status)
			}
			if c.PercentSpent < 0 {
				t.Errorf("percent spent must not be negative, got %f", c.PercentSpent)
			}
		})
	}

	t.Run("currency_mismatch", func(t *testing.T) {
		_, err := Classify(usd("1"), eur("1"), true)
		testutil.AssertAppError(t, err, "CURRENCY_MISMATCH")
	})
}
