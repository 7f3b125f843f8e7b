package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/money"
)

// CategoryLine is the read-only projection of one BudgetCategory.
type CategoryLine struct {
	ID               string       `json:"id"`
	CategoryID       string       `json:"category_id,omitempty"`
	Name             string       `json:"name"`
	Color            string       `json:"color"`
	Icon             string       `json:"icon,omitempty"`
	Kind             Kind         `json:"kind"`
	ParentID         string       `json:"parent_id,omitempty"`
	BudgetedSpending money.Money  `json:"budgeted_spending"`
	ActualSpending   money.Money  `json:"actual_spending"`
	Remaining        money.Money  `json:"remaining"`
	PercentSpent     float64      `json:"percent_spent"`
	MaxAllocation    money.Money  `json:"max_allocation"`
	OverBy           money.Money  `json:"over_by"`
	Status           Status       `json:"status"`
	MedianMonthly    *money.Money `json:"median_monthly_expense,omitempty"`
}

// GroupLine is the rollup of one group and its subcategory lines.
type GroupLine struct {
	Name             string         `json:"name"`
	Color            string         `json:"color,omitempty"`
	Row              *CategoryLine  `json:"row,omitempty"`
	Subcategories    []CategoryLine `json:"subcategories"`
	BudgetedSpending money.Money    `json:"budgeted_spending"`
	ActualSpending   money.Money    `json:"actual_spending"`
	Remaining        money.Money    `json:"remaining"`
}

// Overview is every engine output for one budget, computed at a single point in time.
type Overview struct {
	ID                      string        `json:"id"`
	FamilyID                string        `json:"family_id"`
	Name                    string        `json:"name"`
	StartDate               time.Time     `json:"start_date"`
	EndDate                 time.Time     `json:"end_date"`
	Currency                string        `json:"currency"`
	Version                 int64         `json:"version"`
	Initialized             bool          `json:"initialized"`
	State                   State         `json:"state"`
	BudgetedSpending        *money.Money  `json:"budgeted_spending"`
	ExpectedIncome          *money.Money  `json:"expected_income"`
	EstimatedSpending       *money.Money  `json:"estimated_spending,omitempty"`
	EstimatedIncome         *money.Money  `json:"estimated_income,omitempty"`
	AllocatedSpending       money.Money   `json:"allocated_spending"`
	AvailableToAllocate     money.Money   `json:"available_to_allocate"`
	AllocatedPercent        float64       `json:"allocated_percent"`
	AllocationsValid        bool          `json:"allocations_valid"`
	ActualSpending          money.Money   `json:"actual_spending"`
	AvailableToSpend        money.Money   `json:"available_to_spend"`
	PercentOfBudgetSpent    float64       `json:"percent_of_budget_spent"`
	OveragePercent          float64       `json:"overage_percent"`
	ActualIncome            money.Money   `json:"actual_income"`
	RemainingExpectedIncome money.Money   `json:"remaining_expected_income"`
	SurplusPercent          float64       `json:"surplus_percent"`
	Groups                  []GroupLine   `json:"groups"`
	Uncategorized           *CategoryLine `json:"uncategorized,omitempty"`

	// AllocationStep is the smallest amount an allocation input accepts.
	AllocationStep decimal.Decimal `json:"allocation_step"`
}

// Overview computes the snapshot. Version is left for the caller to fill in.
func (b *Budget) Overview() (*Overview, error) {
	o := &Overview{
		ID:                b.ID,
		FamilyID:          b.FamilyID,
		Name:              b.Name(),
		StartDate:         b.Period,
		EndDate:           b.PeriodEnd(),
		Currency:          b.Currency,
		AllocationStep:    money.Step(b.Currency),
		Initialized:       b.Initialized(),
		BudgetedSpending:  b.BudgetedSpending,
		ExpectedIncome:    b.ExpectedIncome,
		EstimatedSpending: b.EstimatedSpending,
		EstimatedIncome:   b.EstimatedIncome,
		ActualIncome:      b.ActualIncome,
	}

	var err error
	if o.State, err = b.State(); err != nil {
		return nil, err
	}
	if o.AllocatedSpending, err = b.AllocatedSpending(); err != nil {
		return nil, err
	}
	if o.AvailableToAllocate, err = b.AvailableToAllocate(); err != nil {
		return nil, err
	}
	if o.AllocatedPercent, err = b.AllocatedPercent(); err != nil {
		return nil, err
	}
	if o.AllocationsValid, err = b.AllocationsValid(); err != nil {
		return nil, err
	}
	if o.ActualSpending, err = b.ActualSpending(); err != nil {
		return nil, err
	}
	if o.AvailableToSpend, err = b.AvailableToSpend(); err != nil {
		return nil, err
	}
	if o.PercentOfBudgetSpent, err = b.PercentOfBudgetSpent(); err != nil {
		return nil, err
	}
	if o.OveragePercent, err = b.OveragePercent(); err != nil {
		return nil, err
	}
	if o.RemainingExpectedIncome, err = b.RemainingExpectedIncome(); err != nil {
		return nil, err
	}
	if o.SurplusPercent, err = b.SurplusPercent(); err != nil {
		return nil, err
	}

	groups, uncat := b.GroupCategories()
	o.Groups = make([]GroupLine, 0, len(groups))
	for i := range groups {
		gl, err := groupLine(&groups[i])
		if err != nil {
			return nil, err
		}
		o.Groups = append(o.Groups, gl)
	}
	if uncat != nil {
		line, err := categoryLine(uncat)
		if err != nil {
			return nil, err
		}
		o.Uncategorized = &line
	}
	return o, nil
}

func groupLine(g *Group) (GroupLine, error) {
	gl := GroupLine{
		Name:          g.Category.Name,
		Color:         g.Category.Color,
		Subcategories: make([]CategoryLine, 0, len(g.Subcategories)),
	}
	var err error
	if gl.BudgetedSpending, err = g.BudgetedSpending(); err != nil {
		return GroupLine{}, err
	}
	if gl.ActualSpending, err = g.ActualSpending(); err != nil {
		return GroupLine{}, err
	}
	if gl.Remaining, err = g.Remaining(); err != nil {
		return GroupLine{}, err
	}
	if g.Row != nil {
		row, err := categoryLine(g.Row)
		if err != nil {
			return GroupLine{}, err
		}
		gl.Row = &row
	}
	for _, bc := range g.Subcategories {
		line, err := categoryLine(bc)
		if err != nil {
			return GroupLine{}, err
		}
		gl.Subcategories = append(gl.Subcategories, line)
	}
	return gl, nil
}

func categoryLine(bc *BudgetCategory) (CategoryLine, error) {
	line := CategoryLine{
		ID:               bc.ID,
		CategoryID:       bc.Category.ID,
		Name:             bc.Category.Name,
		Color:            bc.Category.Color,
		Icon:             bc.Category.Icon,
		Kind:             bc.Category.Kind,
		ParentID:         bc.Category.ParentID,
		BudgetedSpending: bc.BudgetedSpending,
		ActualSpending:   bc.ActualSpending,
		MedianMonthly:    bc.MedianMonthlyExpense,
	}
	status, err := bc.Status()
	if err != nil {
		return CategoryLine{}, err
	}
	line.Status = status.Status
	line.Remaining = status.AvailableToSpend
	line.PercentSpent = status.PercentSpent
	if line.MaxAllocation, err = bc.MaxAllocation(); err != nil {
		return CategoryLine{}, err
	}
	if line.OverBy, err = bc.OverBy(); err != nil {
		return CategoryLine{}, err
	}
	return line, nil
}
