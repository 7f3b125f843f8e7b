// Package budget is the allocation engine. It turns a family's monthly
// spending plan and its per-category allocations into allocated totals,
// remaining amounts, percent spent, status and validity.
//
// Every read is a recomputation over the in-memory snapshot; nothing is
// cached and nothing here blocks or locks. Callers that share a Budget across
// edits must serialize writes and reload before trusting MaxAllocation or
// AllocationsValid after an external change.
package budget

import (
	"fmt"
	"time"

	apperrors "hearth/internal/errors"
	"hearth/internal/money"
)

// State is the derived lifecycle position of a budget.
type State string

const (
	StateUninitialized State = "uninitialized"
	// StateAllocating is initialized but with invalid or untouched allocations.
	StateAllocating State = "allocating"
	// StateReady is initialized with valid allocations; the user may confirm.
	StateReady State = "ready"
)

// Budget is one family's spending plan for a month.
type Budget struct {
	ID       string
	FamilyID string
	Period   time.Time
	Currency string

	// BudgetedSpending is the total spending ceiling. Nil until set.
	BudgetedSpending *money.Money
	// ExpectedIncome is nil until set.
	ExpectedIncome *money.Money

	// EstimatedIncome and EstimatedSpending are advisory suggestions.
	EstimatedIncome   *money.Money
	EstimatedSpending *money.Money

	// ActualIncome is aggregated from transactions by the caller.
	ActualIncome money.Money

	Categories []*BudgetCategory

	// Tree, when set, names the parent group of subcategory lines whose
	// group has no line of its own.
	Tree *Tree
}

// New creates an empty budget for the month containing period.
func New(id, familyID string, period time.Time, currency string) *Budget {
	zero := money.Zero(currency)
	return &Budget{
		ID:           id,
		FamilyID:     familyID,
		Period:       MonthStart(period),
		Currency:     zero.Currency,
		ActualIncome: zero,
	}
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Name is the display name of the period, e.g. "January 2026".
func (b *Budget) Name() string {
	return b.Period.Format("January 2006")
}

// PeriodEnd is the last instant of the budget month.
func (b *Budget) PeriodEnd() time.Time {
	return b.Period.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// AddCategory attaches a line. Its amounts must be in the budget's currency
// and at most one Uncategorized line is allowed.
func (b *Budget) AddCategory(bc *BudgetCategory) error {
	if bc.BudgetedSpending.Currency != b.Currency || bc.ActualSpending.Currency != b.Currency {
		return apperrors.WithMessage(apperrors.ErrCurrencyMismatch,
			fmt.Sprintf("budget line %s is not in %s", bc.Category.Name, b.Currency))
	}
	if bc.IsUncategorized() && b.Uncategorized() != nil {
		return apperrors.ErrUncategorizedImmutable
	}
	bc.budget = b
	b.Categories = append(b.Categories, bc)
	return nil
}

// Category finds a line by ID.
func (b *Budget) Category(id string) (*BudgetCategory, error) {
	for _, bc := range b.Categories {
		if bc.ID == id {
			return bc, nil
		}
	}
	return nil, apperrors.ErrBudgetCategoryNotFound
}

// Uncategorized returns the synthetic line, or nil.
func (b *Budget) Uncategorized() *BudgetCategory {
	for _, bc := range b.Categories {
		if bc.IsUncategorized() {
			return bc
		}
	}
	return nil
}

// Initialized reports whether both the spending ceiling and expected income are set.
func (b *Budget) Initialized() bool {
	return b.BudgetedSpending != nil && b.ExpectedIncome != nil
}

func (b *Budget) ceiling() money.Money {
	if b.BudgetedSpending == nil {
		return money.Zero(b.Currency)
	}
	return *b.BudgetedSpending
}

// AllocatedSpending is the sum of every line's allocation.
func (b *Budget) AllocatedSpending() (money.Money, error) {
	total := money.Zero(b.Currency)
	for _, bc := range b.Categories {
		var err error
		if total, err = total.Add(bc.BudgetedSpending); err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}

// AvailableToAllocate is the ceiling minus allocated spending. Negative when over-allocated.
func (b *Budget) AvailableToAllocate() (money.Money, error) {
	allocated, err := b.AllocatedSpending()
	if err != nil {
		return money.Money{}, err
	}
	return b.ceiling().Sub(allocated)
}

// AllocationsValid holds when nothing is over-allocated and every user
// category is within its MaxAllocation. Gate confirmation on it.
func (b *Budget) AllocationsValid() (bool, error) {
	available, err := b.AvailableToAllocate()
	if err != nil {
		return false, err
	}
	if available.IsNegative() {
		return false, nil
	}
	for _, bc := range b.Categories {
		if bc.IsUncategorized() {
			continue
		}
		ok, err := bc.WithinMaxAllocation()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// SetAllocation is the single write the engine exposes. Setting the same
// amount twice is a no-op the second time.
func (b *Budget) SetAllocation(budgetCategoryID string, amount money.Money) error {
	bc, err := b.Category(budgetCategoryID)
	if err != nil {
		return err
	}
	return bc.SetAllocation(amount)
}

// ActualSpending is the sum of every line's actual spending.
func (b *Budget) ActualSpending() (money.Money, error) {
	total := money.Zero(b.Currency)
	for _, bc := range b.Categories {
		var err error
		if total, err = total.Add(bc.ActualSpending); err != nil {
			return money.Money{}, err
		}
	}
	return total, nil
}

// AvailableToSpend is the ceiling minus actual spending.
func (b *Budget) AvailableToSpend() (money.Money, error) {
	actual, err := b.ActualSpending()
	if err != nil {
		return money.Money{}, err
	}
	return b.ceiling().Sub(actual)
}

// PercentOfBudgetSpent is actual spending over the ceiling, uncapped.
func (b *Budget) PercentOfBudgetSpent() (float64, error) {
	actual, err := b.ActualSpending()
	if err != nil {
		return 0, err
	}
	return percentSpent(actual, b.ceiling())
}

// OveragePercent is how far spending exceeds the ceiling, as a percent of the ceiling.
func (b *Budget) OveragePercent() (float64, error) {
	pct, err := b.PercentOfBudgetSpent()
	if err != nil {
		return 0, err
	}
	return max(pct-100, 0), nil
}

// AllocatedPercent is allocated spending over the ceiling.
func (b *Budget) AllocatedPercent() (float64, error) {
	allocated, err := b.AllocatedSpending()
	if err != nil {
		return 0, err
	}
	return percentSpent(allocated, b.ceiling())
}

// RemainingExpectedIncome is expected income still to arrive. Negative once
// actual income exceeds the expectation.
func (b *Budget) RemainingExpectedIncome() (money.Money, error) {
	expected := money.Zero(b.Currency)
	if b.ExpectedIncome != nil {
		expected = *b.ExpectedIncome
	}
	return expected.Sub(b.ActualIncome)
}

// SurplusPercent is how far actual income exceeds expected income, in percent.
func (b *Budget) SurplusPercent() (float64, error) {
	if b.ExpectedIncome == nil {
		return 0, nil
	}
	pct, err := percentSpent(b.ActualIncome, *b.ExpectedIncome)
	if err != nil {
		return 0, err
	}
	return max(pct-100, 0), nil
}

// State derives the lifecycle position. Confirmation is outside the engine.
func (b *Budget) State() (State, error) {
	if !b.Initialized() {
		return StateUninitialized, nil
	}
	valid, err := b.AllocationsValid()
	if err != nil {
		return "", err
	}
	if !valid || b.untouched() {
		return StateAllocating, nil
	}
	return StateReady, nil
}

func (b *Budget) untouched() bool {
	for _, bc := range b.Categories {
		if !bc.BudgetedSpending.IsZero() {
			return false
		}
	}
	return true
}
