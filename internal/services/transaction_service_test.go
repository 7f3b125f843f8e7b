package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hearth/internal/models"
	"hearth/internal/pagination"
	"hearth/internal/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateTransaction(t *testing.T) {
	t.Run("defaults_currency_and_date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db).(*transactionService)
		fixed := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return fixed }
		family := testutil.CreateTestFamilyWithCurrency(t, db, "EUR")

		tx, err := svc.CreateTransaction(family.ID, TransactionInput{
			Type:        models.TransactionTypeExpense,
			Amount:      dec("12.50"),
			Description: "Coffee",
		})
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected transaction ID")
		}
		if tx.Currency != "EUR" {
			t.Errorf("expected currency EUR, got %s", tx.Currency)
		}
		if !tx.Date.Equal(fixed) {
			t.Errorf("expected date %s, got %s", fixed, tx.Date)
		}
	})

	t.Run("with_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)
		cat := testutil.CreateTestCategory(t, db, family.ID, models.CategoryTypeExpense)

		tx, err := svc.CreateTransaction(family.ID, TransactionInput{
			CategoryID: &cat.ID,
			Type:       models.TransactionTypeExpense,
			Amount:     dec("40"),
		})
		testutil.AssertNoError(t, err)
		if tx.CategoryID == nil || *tx.CategoryID != cat.ID {
			t.Errorf("expected category %s, got %v", cat.ID, tx.CategoryID)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)

		_, err := svc.CreateTransaction(family.ID, TransactionInput{Type: models.TransactionTypeExpense, Amount: decimal.Zero})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)

		_, err := svc.CreateTransaction(family.ID, TransactionInput{Type: "transfer", Amount: dec("1")})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("foreign_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)

		_, err := svc.CreateTransaction(family.ID, TransactionInput{Type: models.TransactionTypeExpense, Amount: dec("1"), Currency: "jpy"})
		testutil.AssertAppError(t, err, "CURRENCY_MISMATCH")
	})

	t.Run("category_type_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)
		income := testutil.CreateTestCategory(t, db, family.ID, models.CategoryTypeIncome)

		_, err := svc.CreateTransaction(family.ID, TransactionInput{CategoryID: &income.ID, Type: models.TransactionTypeExpense, Amount: dec("1")})
		testutil.AssertAppError(t, err, "INVALID_CATEGORY")
	})

	t.Run("category_of_other_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)
		other := testutil.CreateTestFamily(t, db)
		cat := testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense)

		_, err := svc.CreateTransaction(family.ID, TransactionInput{CategoryID: &cat.ID, Type: models.TransactionTypeExpense, Amount: dec("1")})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestCreateTransactions(t *testing.T) {
	t.Run("atomic_batch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)

		_, err := svc.CreateTransactions(family.ID, []TransactionInput{
			{Type: models.TransactionTypeExpense, Amount: dec("5")},
			{Type: models.TransactionTypeExpense, Amount: dec("-1")},
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		var count int64
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
		if count != 0 {
			t.Errorf("expected no transactions after a rejected batch, got %d", count)
		}
	})

	t.Run("valid_batch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)

		created, err := svc.CreateTransactions(family.ID, []TransactionInput{
			{Type: models.TransactionTypeExpense, Amount: dec("5")},
			{Type: models.TransactionTypeIncome, Amount: dec("100")},
		})
		testutil.AssertNoError(t, err)
		if len(created) != 2 {
			t.Errorf("expected 2 transactions, got %d", len(created))
		}
	})

	t.Run("empty_batch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		family := testutil.CreateTestFamily(t, db)

		_, err := svc.CreateTransactions(family.ID, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetFamilyTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db)
	family := testutil.CreateTestFamily(t, db)
	cat := testutil.CreateTestCategory(t, db, family.ID, models.CategoryTypeExpense)

	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	testutil.CreateTestTransaction(t, db, family.ID, &cat.ID, models.TransactionTypeExpense, "10", jan)
	testutil.CreateTestTransaction(t, db, family.ID, nil, models.TransactionTypeExpense, "20", feb)
	testutil.CreateTestTransaction(t, db, family.ID, nil, models.TransactionTypeIncome, "1000", feb)

	t.Run("all_newest_first", func(t *testing.T) {
		result, err := svc.GetFamilyTransactions(family.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 3 {
			t.Fatalf("expected 3 transactions, got %d", result.TotalItems)
		}
		if !result.Data[len(result.Data)-1].Date.Equal(jan) {
			t.Errorf("expected oldest transaction last")
		}
	})

	t.Run("date_range", func(t *testing.T) {
		from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		result, err := svc.GetFamilyTransactions(family.ID, pagination.PageRequest{}, TransactionFilter{FromDate: &from})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 transactions, got %d", result.TotalItems)
		}
	})

	t.Run("by_type", func(t *testing.T) {
		income := models.TransactionTypeIncome
		result, err := svc.GetFamilyTransactions(family.ID, pagination.PageRequest{}, TransactionFilter{Type: &income})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 transaction, got %d", result.TotalItems)
		}
	})

	t.Run("by_category", func(t *testing.T) {
		result, err := svc.GetFamilyTransactions(family.ID, pagination.PageRequest{}, TransactionFilter{CategoryID: &cat.ID})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 transaction, got %d", result.TotalItems)
		}
	})

	t.Run("uncategorized", func(t *testing.T) {
		result, err := svc.GetFamilyTransactions(family.ID, pagination.PageRequest{}, TransactionFilter{Uncategorized: true})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 transactions, got %d", result.TotalItems)
		}
	})
}

func TestDeleteTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db)
	family := testutil.CreateTestFamily(t, db)
	other := testutil.CreateTestFamily(t, db)
	tx := testutil.CreateTestTransaction(t, db, family.ID, nil, models.TransactionTypeExpense, "10", time.Now())

	t.Run("other_family", func(t *testing.T) {
		err := svc.DeleteTransaction(other.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("deleted", func(t *testing.T) {
		testutil.AssertNoError(t, svc.DeleteTransaction(family.ID, tx.ID))
		_, err := svc.GetTransactionByID(family.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestAggregations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db)
	ctx := context.Background()
	family := testutil.CreateTestFamily(t, db)
	food := testutil.CreateTestCategory(t, db, family.ID, models.CategoryTypeExpense)
	salary := testutil.CreateTestCategory(t, db, family.ID, models.CategoryTypeIncome)

	testutil.CreateTestTransaction(t, db, family.ID, &food.ID, models.TransactionTypeExpense, "10.10", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))
	testutil.CreateTestTransaction(t, db, family.ID, &food.ID, models.TransactionTypeExpense, "0.20", time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC))
	testutil.CreateTestTransaction(t, db, family.ID, nil, models.TransactionTypeExpense, "5", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	testutil.CreateTestTransaction(t, db, family.ID, &food.ID, models.TransactionTypeExpense, "7", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	testutil.CreateTestTransaction(t, db, family.ID, &salary.ID, models.TransactionTypeIncome, "3000", time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC))

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)

	t.Run("spending_by_category", func(t *testing.T) {
		spent, err := svc.SpendingByCategory(ctx, family.ID, from, to)
		testutil.AssertNoError(t, err)
		if !spent[food.ID].Equal(dec("10.30")) {
			t.Errorf("expected food 10.30, got %s", spent[food.ID])
		}
		if !spent[""].Equal(dec("5")) {
			t.Errorf("expected uncategorized 5, got %s", spent[""])
		}
	})

	t.Run("income_total", func(t *testing.T) {
		income, err := svc.IncomeTotal(ctx, family.ID, from, to)
		testutil.AssertNoError(t, err)
		if !income.Equal(dec("3000")) {
			t.Errorf("expected 3000, got %s", income)
		}
	})

	t.Run("monthly_totals", func(t *testing.T) {
		totals, err := svc.MonthlyTotals(ctx, family.ID, models.TransactionTypeExpense, from, from.AddDate(0, 2, 0))
		testutil.AssertNoError(t, err)
		if len(totals) != 2 {
			t.Fatalf("expected 2 months, got %d", len(totals))
		}
		if !totals[0].Month.Equal(from) || !totals[0].Total.Equal(dec("15.30")) {
			t.Errorf("unexpected January total %+v", totals[0])
		}
		if !totals[1].Total.Equal(dec("7")) {
			t.Errorf("expected February total 7, got %s", totals[1].Total)
		}
	})

	t.Run("monthly_category_totals", func(t *testing.T) {
		series, err := svc.MonthlyCategoryTotals(ctx, family.ID, from, from.AddDate(0, 2, 0))
		testutil.AssertNoError(t, err)
		if len(series[food.ID]) != 2 {
			t.Errorf("expected 2 months for food, got %d", len(series[food.ID]))
		}
		if len(series[""]) != 1 {
			t.Errorf("expected 1 uncategorized month, got %d", len(series[""]))
		}
	})
}
