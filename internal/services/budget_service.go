package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"hearth/internal/budget"
	apperrors "hearth/internal/errors"
	"hearth/internal/estimator"
	"hearth/internal/lock"
	"hearth/internal/logger"
	"hearth/internal/metrics"
	"hearth/internal/models"
	"hearth/internal/money"
	"hearth/internal/pagination"
)

// BudgetOptions configures a budget service. Zero values fall back to a
// process-local lock, an always-open edit policy and the default lookback.
type BudgetOptions struct {
	Locker   lock.Locker
	Policy   budget.EditPolicy
	Lookback int
	Metrics  *metrics.Registry
	Now      func() time.Time
}

// budgetService loads budgets into the allocation engine and persists edits.
type budgetService struct {
	db           *gorm.DB
	transactions TransactionServicer
	locker       lock.Locker
	policy       budget.EditPolicy
	lookback     int
	metrics      *metrics.Registry
	now          func() time.Time
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, transactions TransactionServicer, opts BudgetOptions) BudgetServicer {
	s := &budgetService{
		db:           db,
		transactions: transactions,
		locker:       opts.Locker,
		policy:       opts.Policy,
		lookback:     opts.Lookback,
		metrics:      opts.Metrics,
		now:          opts.Now,
	}
	if s.locker == nil {
		s.locker = lock.NewLocalLocker()
	}
	if s.policy == nil {
		s.policy = budget.OpenPolicy{}
	}
	if s.lookback <= 0 {
		s.lookback = estimator.DefaultLookback
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// FindOrCreateBudget returns the family's budget for the month containing
// month, creating it with one zero line per expense category plus the
// Uncategorized line. An existing budget gains lines for categories created
// since. created reports whether a new budget was inserted.
func (s *budgetService) FindOrCreateBudget(familyID string, month time.Time) (*models.Budget, bool, error) {
	family, err := findFamily(s.db, familyID)
	if err != nil {
		return nil, false, err
	}
	start := budget.MonthStart(month)

	record, err := s.findByStart(familyID, start)
	if err == nil {
		if err := s.syncLines(record); err != nil {
			return nil, false, err
		}
		return record, false, nil
	}
	if !errors.Is(err, apperrors.ErrBudgetNotFound) {
		return nil, false, err
	}

	record = &models.Budget{
		FamilyID:  familyID,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
		Currency:  family.Currency,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return s.createMissingLines(tx, record)
	})
	if err != nil {
		// A concurrent request may have created the same month.
		if existing, findErr := s.findByStart(familyID, start); findErr == nil {
			return existing, false, nil
		}
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Named("budget").Infow("budget created", "family_id", familyID, "budget_id", record.ID, "start_date", start.Format("2006-01"))
	created, err := s.findByID(s.db, familyID, record.ID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *budgetService) findByStart(familyID string, start time.Time) (*models.Budget, error) {
	var record models.Budget
	err := s.db.Preload("BudgetCategories").
		Where("family_id = ? AND start_date = ?", familyID, start).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

func (s *budgetService) findByID(db *gorm.DB, familyID, budgetID string) (*models.Budget, error) {
	var record models.Budget
	err := db.Preload("BudgetCategories").
		Preload("BudgetCategories.Category").
		Where("id = ? AND family_id = ?", budgetID, familyID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

func (s *budgetService) syncLines(record *models.Budget) error {
	before := len(record.BudgetCategories)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.createMissingLines(tx, record)
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if added := len(record.BudgetCategories) - before; added > 0 {
		logger.Named("budget").Infow("budget lines synced", "budget_id", record.ID, "added", added)
	}
	return nil
}

// createMissingLines adds a zero line for every expense category without one
// and the Uncategorized line if absent. New lines are appended to record.
func (s *budgetService) createMissingLines(tx *gorm.DB, record *models.Budget) error {
	var categories []models.Category
	if err := tx.Where("family_id = ? AND type = ?", record.FamilyID, models.CategoryTypeExpense).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return err
	}

	have := make(map[string]bool, len(record.BudgetCategories))
	hasUncategorized := false
	for _, line := range record.BudgetCategories {
		if line.CategoryID == nil {
			hasUncategorized = true
			continue
		}
		have[*line.CategoryID] = true
	}

	var missing []models.BudgetCategory
	for i := range categories {
		if have[categories[i].ID] {
			continue
		}
		id := categories[i].ID
		missing = append(missing, models.BudgetCategory{BudgetID: record.ID, CategoryID: &id, Currency: record.Currency})
	}
	if !hasUncategorized {
		missing = append(missing, models.BudgetCategory{BudgetID: record.ID, Currency: record.Currency})
	}
	if len(missing) == 0 {
		return nil
	}
	if err := tx.Create(&missing).Error; err != nil {
		return err
	}
	record.BudgetCategories = append(record.BudgetCategories, missing...)
	return nil
}

// GetBudgets retrieves a paginated list of a family's budgets, newest first.
func (s *budgetService) GetBudgets(familyID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	q := s.db.Model(&models.Budget{}).Where("family_id = ?", familyID)
	result, err := pagination.Find[models.Budget](q, page, "start_date DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// DeleteBudget removes a budget and its lines. The month can be created again.
func (s *budgetService) DeleteBudget(familyID, budgetID string) error {
	record, err := s.findByID(s.db, familyID, budgetID)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", record.ID).Delete(&models.BudgetCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Budget{}, "id = ?", record.ID).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// snapshot is a budget record and the engine view built from it.
type snapshot struct {
	record *models.Budget
	engine *budget.Budget
}

func (s *snapshot) overview() (*budget.Overview, error) {
	ov, err := s.engine.Overview()
	if err != nil {
		return nil, err
	}
	ov.Version = s.record.Version
	return ov, nil
}

// load reads the budget, its month's actuals and the estimator hints into an
// engine snapshot.
func (s *budgetService) load(ctx context.Context, familyID, budgetID string) (*snapshot, error) {
	record, err := s.findByID(s.db.WithContext(ctx), familyID, budgetID)
	if err != nil {
		return nil, err
	}

	var (
		spending map[string]decimal.Decimal
		income   decimal.Decimal
		hints    *estimates
		tree     *budget.Tree
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tree, err = s.categoryTree(gctx, familyID)
		return err
	})
	g.Go(func() error {
		var err error
		spending, err = s.transactions.SpendingByCategory(gctx, familyID, record.StartDate, record.EndDate)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = s.transactions.IncomeTotal(gctx, familyID, record.StartDate, record.EndDate)
		return err
	})
	g.Go(func() error {
		var err error
		hints, err = s.estimate(gctx, record)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := budget.New(record.ID, record.FamilyID, record.StartDate, record.Currency)
	if record.BudgetedSpending != nil {
		m := money.New(*record.BudgetedSpending, record.Currency)
		b.BudgetedSpending = &m
	}
	if record.ExpectedIncome != nil {
		m := money.New(*record.ExpectedIncome, record.Currency)
		b.ExpectedIncome = &m
	}
	b.ActualIncome = money.New(income, record.Currency)
	b.EstimatedIncome = hints.suggestion.EstimatedIncome
	b.EstimatedSpending = hints.suggestion.EstimatedSpending
	b.Tree = tree

	// Spend on a category without a line in this budget counts as uncategorized.
	unassigned := spending[""]
	lined := make(map[string]bool, len(record.BudgetCategories))
	for _, line := range record.BudgetCategories {
		if line.CategoryID != nil {
			lined[*line.CategoryID] = true
		}
	}
	for categoryID, amount := range spending {
		if categoryID != "" && !lined[categoryID] {
			unassigned = unassigned.Add(amount)
		}
	}

	for _, line := range record.BudgetCategories {
		var (
			category budget.Category
			actual   decimal.Decimal
			key      string
		)
		if line.CategoryID == nil {
			category = budget.Uncategorized()
			actual = unassigned
		} else {
			var ok bool
			if category, ok = tree.Lookup(*line.CategoryID); !ok {
				logger.Named("budget").Warnw("budget line references a missing category", "budget_id", record.ID, "line_id", line.ID)
				continue
			}
			actual = spending[category.ID]
			key = category.ID
		}

		bc := &budget.BudgetCategory{
			ID:               line.ID,
			Category:         category,
			BudgetedSpending: money.New(line.BudgetedSpending, record.Currency),
			ActualSpending:   money.New(actual, record.Currency),
		}
		if median, ok := hints.medians[key]; ok {
			bc.MedianMonthlyExpense = &median
		}
		if err := b.AddCategory(bc); err != nil {
			return nil, err
		}
	}

	return &snapshot{record: record, engine: b}, nil
}

// categoryTree loads the family's expense categories into a validated
// two-level tree. A broken hierarchy fails with INVALID_CATEGORY.
func (s *budgetService) categoryTree(ctx context.Context, familyID string) (*budget.Tree, error) {
	var records []models.Category
	if err := s.db.WithContext(ctx).
		Where("family_id = ? AND type = ?", familyID, models.CategoryTypeExpense).
		Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	categories := make([]budget.Category, 0, len(records))
	for _, c := range records {
		categories = append(categories, budget.CategoryFrom(c.ID, c.Name, c.Color, c.Icon, c.ParentID))
	}
	return budget.NewTree(categories)
}

// GetBudgetOverview returns the engine's computed view of a budget.
func (s *budgetService) GetBudgetOverview(ctx context.Context, familyID, budgetID string) (*budget.Overview, error) {
	snap, err := s.load(ctx, familyID, budgetID)
	if err != nil {
		return nil, err
	}
	return snap.overview()
}

// UpdateBudgetTargets sets the spending ceiling and expected income. Nil
// arguments leave the current value unchanged.
func (s *budgetService) UpdateBudgetTargets(ctx context.Context, familyID, budgetID string, budgetedSpending, expectedIncome *decimal.Decimal, expectedVersion *int64) (*budget.Overview, error) {
	if budgetedSpending != nil && budgetedSpending.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgeted spending must not be negative")
	}
	if expectedIncome != nil && expectedIncome.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "expected income must not be negative")
	}

	unlock, err := s.locker.Lock(ctx, lock.BudgetKey(budgetID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	snap, err := s.load(ctx, familyID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(snap.record, expectedVersion); err != nil {
		return nil, err
	}
	if err := s.policy.CanEdit(snap.engine, s.now()); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if budgetedSpending != nil {
		m := money.New(*budgetedSpending, snap.record.Currency).Round()
		updates["budgeted_spending"] = m.Amount
		snap.engine.BudgetedSpending = &m
	}
	if expectedIncome != nil {
		m := money.New(*expectedIncome, snap.record.Currency).Round()
		updates["expected_income"] = m.Amount
		snap.engine.ExpectedIncome = &m
	}
	if len(updates) == 0 {
		return snap.overview()
	}
	updates["version"] = gorm.Expr("version + ?", 1)

	if err := s.bumpBudget(ctx, snap.record, updates, nil); err != nil {
		return nil, err
	}

	logger.Named("budget").Infow("budget targets updated",
		"family_id", familyID,
		"budget_id", budgetID,
		"version", snap.record.Version,
	)
	return snap.overview()
}

// SetAllocation assigns amount to one budget line. The edit holds the budget's
// lock for its whole read-validate-write cycle and is rejected when the
// budget changed since expectedVersion or is closed for editing. Writing the
// current amount again is a no-op and does not bump the version.
func (s *budgetService) SetAllocation(ctx context.Context, familyID, budgetID, budgetCategoryID string, amount decimal.Decimal, expectedVersion *int64) (*budget.Overview, error) {
	ov, overAllocated, err := s.setAllocation(ctx, familyID, budgetID, budgetCategoryID, amount, expectedVersion)
	s.metrics.RecordAllocationEdit(editResult(err), overAllocated)
	return ov, err
}

func (s *budgetService) setAllocation(ctx context.Context, familyID, budgetID, budgetCategoryID string, amount decimal.Decimal, expectedVersion *int64) (*budget.Overview, bool, error) {
	unlock, err := s.locker.Lock(ctx, lock.BudgetKey(budgetID))
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	snap, err := s.load(ctx, familyID, budgetID)
	if err != nil {
		return nil, false, err
	}
	if err := checkVersion(snap.record, expectedVersion); err != nil {
		return nil, false, err
	}
	if err := s.policy.CanEdit(snap.engine, s.now()); err != nil {
		return nil, false, err
	}

	line, err := snap.engine.Category(budgetCategoryID)
	if err != nil {
		return nil, false, err
	}
	// Checked before rounding so tiny negatives cannot round up to zero.
	if amount.IsNegative() {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidAllocation,
			fmt.Sprintf("allocation for %s must not be negative", line.Category.Name))
	}
	previous := line.BudgetedSpending
	next := money.New(amount, snap.record.Currency).Round()
	if err := snap.engine.SetAllocation(budgetCategoryID, next); err != nil {
		return nil, false, err
	}

	available, err := snap.engine.AvailableToAllocate()
	if err != nil {
		return nil, false, err
	}
	overAllocated := available.IsNegative()

	if !next.Equal(previous) {
		lineUpdate := func(tx *gorm.DB) error {
			return tx.Model(&models.BudgetCategory{}).
				Where("id = ? AND budget_id = ?", budgetCategoryID, budgetID).
				Update("budgeted_spending", next.Amount).Error
		}
		updates := map[string]interface{}{"version": gorm.Expr("version + ?", 1)}
		if err := s.bumpBudget(ctx, snap.record, updates, lineUpdate); err != nil {
			return nil, false, err
		}

		logger.Named("budget").Infow("allocation set",
			"family_id", familyID,
			"budget_id", budgetID,
			"budget_category_id", budgetCategoryID,
			"previous", previous.Amount.String(),
			"amount", next.Amount.String(),
			"available_to_allocate", available.Amount.String(),
			"version", snap.record.Version,
		)
	}

	ov, err := snap.overview()
	if err != nil {
		return nil, false, err
	}
	return ov, overAllocated, nil
}

// bumpBudget applies updates to the budget row guarded by its current version
// and runs extra in the same transaction. On success record.Version is
// advanced.
func (s *budgetService) bumpBudget(ctx context.Context, record *models.Budget, updates map[string]interface{}, extra func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if extra != nil {
			if err := extra(tx); err != nil {
				return err
			}
		}
		res := tx.Model(&models.Budget{}).
			Where("id = ? AND version = ?", record.ID, record.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrStaleBudget
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleBudget) {
			return apperrors.ErrStaleBudget
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	record.Version++
	return nil
}

func checkVersion(record *models.Budget, expected *int64) error {
	if expected != nil && *expected != record.Version {
		return apperrors.WithMessage(apperrors.ErrStaleBudget,
			fmt.Sprintf("budget is at version %d, not %d; reload and retry", record.Version, *expected))
	}
	return nil
}

func editResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, apperrors.ErrBudgetClosed):
		return metrics.ResultClosed
	case errors.Is(err, apperrors.ErrStaleBudget), errors.Is(err, apperrors.ErrBudgetBusy):
		return metrics.ResultConflict
	case errors.Is(err, apperrors.ErrInvalidAllocation),
		errors.Is(err, apperrors.ErrCurrencyMismatch),
		errors.Is(err, apperrors.ErrBudgetCategoryNotFound):
		return metrics.ResultInvalid
	}
	return metrics.ResultError
}

// estimates holds the estimator output for one budget.
type estimates struct {
	suggestion estimator.Suggestion
	medians    map[string]money.Money
}

// estimate runs the estimator over the lookback window ending just before
// the budget's month.
func (s *budgetService) estimate(ctx context.Context, record *models.Budget) (*estimates, error) {
	from := record.StartDate.AddDate(0, -s.lookback, 0)
	to := record.StartDate.Add(-time.Nanosecond)

	var (
		income, spending []MonthlyTotal
		byCategory       map[string][]MonthlyTotal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.transactions.MonthlyTotals(gctx, record.FamilyID, models.TransactionTypeIncome, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		spending, err = s.transactions.MonthlyTotals(gctx, record.FamilyID, models.TransactionTypeExpense, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.transactions.MonthlyCategoryTotals(gctx, record.FamilyID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	est := estimator.New(s.lookback, record.Currency)
	suggestion, err := est.Estimate(estimator.History{
		Income:   toSeries(income, record.Currency),
		Spending: toSeries(spending, record.Currency),
	})
	if err != nil {
		return nil, err
	}

	series := make(map[string][]estimator.MonthTotal, len(byCategory))
	for key, totals := range byCategory {
		series[key] = toSeries(totals, record.Currency)
	}
	medians, err := est.CategoryMedians(series)
	if err != nil {
		return nil, err
	}
	return &estimates{suggestion: suggestion, medians: medians}, nil
}

func toSeries(totals []MonthlyTotal, currency string) []estimator.MonthTotal {
	out := make([]estimator.MonthTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, estimator.MonthTotal{Month: t.Month, Total: money.New(t.Total, currency)})
	}
	return out
}

// GetSuggestions returns the estimator's advisory targets for a budget.
func (s *budgetService) GetSuggestions(ctx context.Context, familyID, budgetID string) (*Suggestions, error) {
	record, err := s.findByID(s.db.WithContext(ctx), familyID, budgetID)
	if err != nil {
		return nil, err
	}
	hints, err := s.estimate(ctx, record)
	if err != nil {
		return nil, err
	}

	out := &Suggestions{
		BudgetID:          record.ID,
		LookbackMonths:    s.lookback,
		EstimatedIncome:   hints.suggestion.EstimatedIncome,
		EstimatedSpending: hints.suggestion.EstimatedSpending,
		Categories:        []CategorySuggestion{},
	}
	for _, line := range record.BudgetCategories {
		key := ""
		if line.CategoryID != nil {
			key = *line.CategoryID
		}
		median, ok := hints.medians[key]
		if !ok {
			continue
		}
		out.Categories = append(out.Categories, CategorySuggestion{
			BudgetCategoryID:     line.ID,
			CategoryID:           line.CategoryID,
			MedianMonthlyExpense: median,
		})
	}
	return out, nil
}
