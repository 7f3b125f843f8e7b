package budget

import (
	"fmt"

	apperrors "hearth/internal/errors"
	"hearth/internal/money"
)

// BudgetCategory is one allocation line: a category within a budget period.
// ActualSpending is aggregated from transactions by the caller.
type BudgetCategory struct {
	ID               string
	Category         Category
	BudgetedSpending money.Money
	ActualSpending   money.Money
	// MedianMonthlyExpense is the historical hint shown while the budget is
	// uninitialized. Nil when there is no history.
	MedianMonthlyExpense *money.Money

	budget *Budget
}

// Budget returns the owning budget, or nil for a detached line.
func (bc *BudgetCategory) Budget() *Budget { return bc.budget }

func (bc *BudgetCategory) IsUncategorized() bool { return bc.Category.IsUncategorized() }
func (bc *BudgetCategory) IsSubcategory() bool   { return bc.Category.IsSubcategory() }

// Remaining is budgeted minus actual spending (available to spend). Negative when over.
func (bc *BudgetCategory) Remaining() (money.Money, error) {
	return bc.BudgetedSpending.Sub(bc.ActualSpending)
}

// PercentSpent is actual/budgeted*100, zero when nothing is budgeted. The
// value is not capped; presenters clamp progress bars themselves.
func (bc *BudgetCategory) PercentSpent() (float64, error) {
	return percentSpent(bc.ActualSpending, bc.BudgetedSpending)
}

// OverBy is how far actual spending exceeds the allocation, or zero.
func (bc *BudgetCategory) OverBy() (money.Money, error) {
	remaining, err := bc.Remaining()
	if err != nil {
		return money.Money{}, err
	}
	if remaining.IsNegative() {
		return remaining.Neg(), nil
	}
	return money.Zero(remaining.Currency), nil
}

// MaxAllocation is the most this line could be raised to while every other
// line keeps its current allocation: the budget's unallocated remainder plus
// this line's own allocation. Recomputed on every call. A detached line
// reports its own allocation.
func (bc *BudgetCategory) MaxAllocation() (money.Money, error) {
	if bc.budget == nil {
		return bc.BudgetedSpending, nil
	}
	available, err := bc.budget.AvailableToAllocate()
	if err != nil {
		return money.Money{}, err
	}
	return available.Add(bc.BudgetedSpending)
}

// WithinMaxAllocation reports budgeted <= MaxAllocation().
func (bc *BudgetCategory) WithinMaxAllocation() (bool, error) {
	limit, err := bc.MaxAllocation()
	if err != nil {
		return false, err
	}
	c, err := bc.BudgetedSpending.Cmp(limit)
	if err != nil {
		return false, err
	}
	return c <= 0, nil
}

// SetAllocation replaces the budgeted amount. Negative amounts fail with
// INVALID_ALLOCATION. Exceeding MaxAllocation is allowed; the budget's
// AllocationsValid reflects it.
func (bc *BudgetCategory) SetAllocation(amount money.Money) error {
	currency := bc.BudgetedSpending.Currency
	if bc.budget != nil {
		currency = bc.budget.Currency
	}
	if amount.Currency != currency {
		return apperrors.WithMessage(apperrors.ErrCurrencyMismatch,
			fmt.Sprintf("allocation in %s for a %s budget", amount.Currency, currency))
	}
	if amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidAllocation,
			fmt.Sprintf("allocation for %s must not be negative", bc.Category.Name))
	}
	bc.BudgetedSpending = amount
	return nil
}

// Status classifies the line using the owning budget's initialization state.
func (bc *BudgetCategory) Status() (Classification, error) {
	initialized := bc.budget != nil && bc.budget.Initialized()
	return Classify(bc.BudgetedSpending, bc.ActualSpending, initialized)
}
