package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is one family's spending plan for a calendar month. BudgetedSpending
// and ExpectedIncome stay nil until the family initializes the budget.
type Budget struct {
	Base
	FamilyID         string           `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_family_start" json:"family_id"`
	StartDate        time.Time        `gorm:"not null;uniqueIndex:idx_budgets_family_start" json:"start_date"`
	EndDate          time.Time        `gorm:"not null" json:"end_date"`
	Currency         string           `gorm:"size:3;not null" json:"currency"`
	BudgetedSpending *decimal.Decimal `gorm:"type:decimal(19,4)" json:"budgeted_spending"`
	ExpectedIncome   *decimal.Decimal `gorm:"type:decimal(19,4)" json:"expected_income"`
	Version          int64            `gorm:"not null;default:0" json:"version"`

	// Relationships
	BudgetCategories []BudgetCategory `gorm:"foreignKey:BudgetID" json:"budget_categories,omitempty"`
}

// BudgetCategory is one allocation line. A nil CategoryID is the
// Uncategorized line.
type BudgetCategory struct {
	Base
	BudgetID         string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	CategoryID       *string         `gorm:"type:uuid;index" json:"category_id"`
	BudgetedSpending decimal.Decimal `gorm:"type:decimal(19,4);not null;default:0" json:"budgeted_spending"`
	Currency         string          `gorm:"size:3;not null" json:"currency"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
