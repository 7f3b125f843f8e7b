package budget

import "hearth/internal/money"

// Status classifies a budget line's spending against its allocation.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusUnderBudget   Status = "under_budget"
	StatusOnBudget      Status = "on_budget"
	StatusOverBudget    Status = "over_budget"
)

// NearLimitPercent is the percent-spent above which a line that is not yet
// over budget is reported as on budget.
const NearLimitPercent = 90.0

// Classification is the classifier output: the status plus the two numbers a
// presenter needs to render it.
type Classification struct {
	Status           Status      `json:"status"`
	AvailableToSpend money.Money `json:"available_to_spend"`
	PercentSpent     float64     `json:"percent_spent"`
}

// Classify maps a line's numbers to a Status. Rules are evaluated in order:
// uninitialized budget, negative availability, exhausted or above
// NearLimitPercent, otherwise under budget.
func Classify(budgeted, actual money.Money, initialized bool) (Classification, error) {
	available, err := budgeted.Sub(actual)
	if err != nil {
		return Classification{}, err
	}
	pct, err := percentSpent(actual, budgeted)
	if err != nil {
		return Classification{}, err
	}

	c := Classification{AvailableToSpend: available, PercentSpent: pct}
	switch {
	case !initialized:
		c.Status = StatusUninitialized
	case available.IsNegative():
		c.Status = StatusOverBudget
	case available.IsZero() || pct > NearLimitPercent:
		c.Status = StatusOnBudget
	default:
		c.Status = StatusUnderBudget
	}
	return c, nil
}

// percentSpent is actual/budgeted*100, zero for a zero budget and never below
// zero. It is not capped at 100.
func percentSpent(actual, budgeted money.Money) (float64, error) {
	pct, err := money.Percent(actual, budgeted)
	if err != nil {
		return 0, err
	}
	return max(pct, 0), nil
}
