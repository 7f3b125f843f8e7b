package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db, now: time.Now}
}

// CreateTransaction records a single transaction.
func (s *transactionService) CreateTransaction(familyID string, in TransactionInput) (*models.Transaction, error) {
	created, err := s.CreateTransactions(familyID, []TransactionInput{in})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// CreateTransactions validates every input before writing any of them and
// records the batch atomically.
func (s *transactionService) CreateTransactions(familyID string, in []TransactionInput) ([]models.Transaction, error) {
	if len(in) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one transaction is required")
	}

	family, err := findFamily(s.db, familyID)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]*models.Category)
	transactions := make([]models.Transaction, 0, len(in))
	for i, input := range in {
		tx, err := s.prepare(family, input, categories)
		if err != nil {
			if len(in) > 1 {
				return nil, withIndex(err, i)
			}
			return nil, err
		}
		transactions = append(transactions, *tx)
	}

	if err := s.db.Create(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

func (s *transactionService) prepare(family *models.Family, in TransactionInput, categories map[string]*models.Category) (*models.Transaction, error) {
	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = family.Currency
	}
	if currency != family.Currency {
		return nil, apperrors.WithMessage(apperrors.ErrCurrencyMismatch,
			fmt.Sprintf("transaction currency %s does not match family currency %s", currency, family.Currency))
	}

	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	if in.CategoryID != nil {
		category, ok := categories[*in.CategoryID]
		if !ok {
			var c models.Category
			if err := s.db.Where("id = ? AND family_id = ?", *in.CategoryID, family.ID).First(&c).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, apperrors.ErrCategoryNotFound
				}
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			category = &c
			categories[c.ID] = category
		}
		if string(category.Type) != string(in.Type) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory,
				fmt.Sprintf("category %q is not an %s category", category.Name, in.Type))
		}
	}

	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	return &models.Transaction{
		FamilyID:    family.ID,
		CategoryID:  in.CategoryID,
		Type:        in.Type,
		Amount:      in.Amount,
		Currency:    currency,
		Description: in.Description,
		Date:        date.UTC(),
	}, nil
}

func withIndex(err error, i int) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return apperrors.WithMessage(appErr, fmt.Sprintf("transaction %d: %s", i, appErr.Message))
	}
	return err
}

// GetFamilyTransactions retrieves a paginated, filtered list of transactions.
func (s *transactionService) GetFamilyTransactions(familyID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	q := s.db.Model(&models.Transaction{}).Where("family_id = ?", familyID)
	q = applyTransactionFilters(q, filter)

	result, err := pagination.Find[models.Transaction](q, page, "date DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", f.FromDate.UTC())
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", f.ToDate.UTC())
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Uncategorized {
		q = q.Where("category_id IS NULL")
	} else if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific family
func (s *transactionService) GetTransactionByID(familyID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND family_id = ?", transactionID, familyID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction soft-deletes a transaction. Budgets recompute their
// actuals on the next read.
func (s *transactionService) DeleteTransaction(familyID, transactionID string) error {
	transaction, err := s.GetTransactionByID(familyID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// txRow is the projection the aggregations scan. Sums are computed in Go so
// decimals never pass through a float column type.
type txRow struct {
	CategoryID *string
	Amount     decimal.Decimal
	Date       time.Time
}

func (s *transactionService) scan(ctx context.Context, familyID string, txType models.TransactionType, from, to time.Time) ([]txRow, error) {
	var rows []txRow
	err := s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("category_id", "amount", "date").
		Where("family_id = ? AND type = ? AND date >= ? AND date <= ?", familyID, txType, from.UTC(), to.UTC()).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// SpendingByCategory sums expenses in [from, to] by category ID.
func (s *transactionService) SpendingByCategory(ctx context.Context, familyID string, from, to time.Time) (map[string]decimal.Decimal, error) {
	rows, err := s.scan(ctx, familyID, models.TransactionTypeExpense, from, to)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	for _, r := range rows {
		key := ""
		if r.CategoryID != nil {
			key = *r.CategoryID
		}
		out[key] = out[key].Add(r.Amount)
	}
	return out, nil
}

// IncomeTotal sums income in [from, to].
func (s *transactionService) IncomeTotal(ctx context.Context, familyID string, from, to time.Time) (decimal.Decimal, error) {
	rows, err := s.scan(ctx, familyID, models.TransactionTypeIncome, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total, nil
}

// MonthlyTotals sums transactions of txType by calendar month, oldest first.
// Months without transactions are absent.
func (s *transactionService) MonthlyTotals(ctx context.Context, familyID string, txType models.TransactionType, from, to time.Time) ([]MonthlyTotal, error) {
	rows, err := s.scan(ctx, familyID, txType, from, to)
	if err != nil {
		return nil, err
	}
	return byMonth(rows), nil
}

// MonthlyCategoryTotals sums expenses by category and calendar month.
// Uncategorized expenses are keyed by the empty string.
func (s *transactionService) MonthlyCategoryTotals(ctx context.Context, familyID string, from, to time.Time) (map[string][]MonthlyTotal, error) {
	rows, err := s.scan(ctx, familyID, models.TransactionTypeExpense, from, to)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]txRow)
	for _, r := range rows {
		key := ""
		if r.CategoryID != nil {
			key = *r.CategoryID
		}
		grouped[key] = append(grouped[key], r)
	}
	out := make(map[string][]MonthlyTotal, len(grouped))
	for key, rs := range grouped {
		out[key] = byMonth(rs)
	}
	return out, nil
}

func byMonth(rows []txRow) []MonthlyTotal {
	sums := make(map[time.Time]decimal.Decimal)
	for _, r := range rows {
		d := r.Date.UTC()
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		sums[month] = sums[month].Add(r.Amount)
	}
	out := make([]MonthlyTotal, 0, len(sums))
	for month, total := range sums {
		out = append(out, MonthlyTotal{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}
