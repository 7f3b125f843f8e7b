package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/budget"
	"hearth/internal/models"
	"hearth/internal/money"
	"hearth/internal/pagination"
)

// FamilyServicer defines the contract for family-related business logic.
type FamilyServicer interface {
	CreateFamily(name, currency string) (*models.Family, error)
	GetFamily(familyID string) (*models.Family, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(familyID, name string, categoryType models.CategoryType, icon, color string, parentID *string) (*models.Category, error)
	GetFamilyCategories(familyID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(familyID, categoryID string) (*models.Category, error)
	UpdateCategory(familyID, categoryID, name, icon, color string, parentID *string) (*models.Category, error)
	DeleteCategory(familyID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	Type          *models.TransactionType
	CategoryID    *string
	Uncategorized bool
}

// TransactionInput is one transaction to record. A zero Date means now and an
// empty Currency means the family's currency.
type TransactionInput struct {
	CategoryID  *string
	Type        models.TransactionType
	Amount      decimal.Decimal
	Currency    string
	Description string
	Date        time.Time
}

// MonthlyTotal is the sum of a family's transactions for one calendar month.
type MonthlyTotal struct {
	Month time.Time
	Total decimal.Decimal
}

// TransactionServicer is the transaction store. Besides CRUD it aggregates
// the actual spending and income the allocation engine consumes.
type TransactionServicer interface {
	CreateTransaction(familyID string, in TransactionInput) (*models.Transaction, error)
	CreateTransactions(familyID string, in []TransactionInput) ([]models.Transaction, error)
	GetFamilyTransactions(familyID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(familyID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(familyID, transactionID string) error

	// SpendingByCategory sums expenses in [from, to] by category ID. Uncategorized
	// expenses are keyed by the empty string.
	SpendingByCategory(ctx context.Context, familyID string, from, to time.Time) (map[string]decimal.Decimal, error)
	IncomeTotal(ctx context.Context, familyID string, from, to time.Time) (decimal.Decimal, error)
	MonthlyTotals(ctx context.Context, familyID string, txType models.TransactionType, from, to time.Time) ([]MonthlyTotal, error)
	MonthlyCategoryTotals(ctx context.Context, familyID string, from, to time.Time) (map[string][]MonthlyTotal, error)
}

// CategorySuggestion is the median monthly expense of one budget line.
type CategorySuggestion struct {
	BudgetCategoryID     string      `json:"budget_category_id"`
	CategoryID           *string     `json:"category_id"`
	MedianMonthlyExpense money.Money `json:"median_monthly_expense"`
}

// Suggestions is the auto-suggest output for a budget. Nothing is applied automatically.
type Suggestions struct {
	BudgetID          string               `json:"budget_id"`
	LookbackMonths    int                  `json:"lookback_months"`
	EstimatedIncome   *money.Money         `json:"estimated_income"`
	EstimatedSpending *money.Money         `json:"estimated_spending"`
	Categories        []CategorySuggestion `json:"categories"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	FindOrCreateBudget(familyID string, month time.Time) (*models.Budget, bool, error)
	GetBudgets(familyID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	DeleteBudget(familyID, budgetID string) error
	GetBudgetOverview(ctx context.Context, familyID, budgetID string) (*budget.Overview, error)
	UpdateBudgetTargets(ctx context.Context, familyID, budgetID string, budgetedSpending, expectedIncome *decimal.Decimal, expectedVersion *int64) (*budget.Overview, error)
	SetAllocation(ctx context.Context, familyID, budgetID, budgetCategoryID string, amount decimal.Decimal, expectedVersion *int64) (*budget.Overview, error)
	GetSuggestions(ctx context.Context, familyID, budgetID string) (*Suggestions, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(familyID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
