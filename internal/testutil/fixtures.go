package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"hearth/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestFamily creates a USD family with a unique name.
func CreateTestFamily(t *testing.T, db *gorm.DB) *models.Family {
	t.Helper()
	return CreateTestFamilyWithCurrency(t, db, "USD")
}

// CreateTestFamilyWithCurrency creates a family that records amounts in currency.
func CreateTestFamilyWithCurrency(t *testing.T, db *gorm.DB, currency string) *models.Family {
	t.Helper()

	family := &models.Family{
		Name:     fmt.Sprintf("Test Family %d", nextID()),
		Currency: currency,
	}
	if err := db.Create(family).Error; err != nil {
		t.Fatalf("failed to create test family: %v", err)
	}
	return family
}

// CreateTestCategory creates a top-level category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, familyID string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return createCategory(t, db, familyID, categoryType, nil)
}

// CreateTestSubcategory creates an expense category nested under parentID.
func CreateTestSubcategory(t *testing.T, db *gorm.DB, familyID, parentID string) *models.Category {
	t.Helper()
	return createCategory(t, db, familyID, models.CategoryTypeExpense, &parentID)
}

func createCategory(t *testing.T, db *gorm.DB, familyID string, categoryType models.CategoryType, parentID *string) *models.Category {
	t.Helper()

	category := &models.Category{
		FamilyID: familyID,
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		Color:    "#3366ff",
		ParentID: parentID,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction records a transaction in the family's currency.
// amount is a decimal string such as "12.50". Dates are stored in UTC.
func CreateTestTransaction(t *testing.T, db *gorm.DB, familyID string, categoryID *string, txType models.TransactionType, amount string, date time.Time) *models.Transaction {
	t.Helper()

	var family models.Family
	if err := db.First(&family, "id = ?", familyID).Error; err != nil {
		t.Fatalf("failed to load family for test transaction: %v", err)
	}

	tx := &models.Transaction{
		FamilyID:    familyID,
		CategoryID:  categoryID,
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Currency:    family.Currency,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        date.UTC(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates an uninitialized budget record for the month
// containing month, without any budget category lines.
func CreateTestBudget(t *testing.T, db *gorm.DB, familyID string, month time.Time) *models.Budget {
	t.Helper()

	var family models.Family
	if err := db.First(&family, "id = ?", familyID).Error; err != nil {
		t.Fatalf("failed to load family for test budget: %v", err)
	}

	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	budget := &models.Budget{
		FamilyID:  familyID,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
		Currency:  family.Currency,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
