package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
	"hearth/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn     func(familyID string, in services.TransactionInput) (*models.Transaction, error)
	createTransactionsFn    func(familyID string, in []services.TransactionInput) ([]models.Transaction, error)
	getFamilyTransactionsFn func(familyID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn    func(familyID, transactionID string) (*models.Transaction, error)
	deleteTransactionFn     func(familyID, transactionID string) error
}

func (m *mockTransactionService) CreateTransaction(familyID string, in services.TransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(familyID, in)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) CreateTransactions(familyID string, in []services.TransactionInput) ([]models.Transaction, error) {
	if m.createTransactionsFn != nil {
		return m.createTransactionsFn(familyID, in)
	}
	return make([]models.Transaction, len(in)), nil
}

func (m *mockTransactionService) GetFamilyTransactions(familyID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getFamilyTransactionsFn != nil {
		return m.getFamilyTransactionsFn(familyID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(familyID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(familyID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(familyID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(familyID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) SpendingByCategory(context.Context, string, time.Time, time.Time) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{}, nil
}

func (m *mockTransactionService) IncomeTotal(context.Context, string, time.Time, time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *mockTransactionService) MonthlyTotals(context.Context, string, models.TransactionType, time.Time, time.Time) ([]services.MonthlyTotal, error) {
	return nil, nil
}

func (m *mockTransactionService) MonthlyCategoryTotals(context.Context, string, time.Time, time.Time) (map[string][]services.MonthlyTotal, error) {
	return map[string][]services.MonthlyTotal{}, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/families/:family_id")
	g.POST("/transactions", handler.CreateTransaction)
	g.GET("/transactions", handler.GetFamilyTransactions)
	g.GET("/transactions/:id", handler.GetTransactionByID)
	g.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 and parses amount and date", func(t *testing.T) {
		var got services.TransactionInput
		svc := &mockTransactionService{
			createTransactionFn: func(_ string, in services.TransactionInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{Base: models.Base{ID: testLineID}, Type: in.Type, Amount: in.Amount}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(svc, audit))

		rec := doRequest(r, "POST", familyPath("/transactions"),
			`{"type":"expense","amount":"42.10","category_id":"`+testCategoryID+`","date":"2026-01-15"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Amount.Equal(decimal.RequireFromString("42.10")) {
			t.Errorf("expected amount 42.10, got %s", got.Amount)
		}
		if want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC); !got.Date.Equal(want) {
			t.Errorf("expected date %v, got %v", want, got.Date)
		}
		if got.CategoryID == nil || *got.CategoryID != testCategoryID {
			t.Errorf("expected category %s, got %v", testCategoryID, got.CategoryID)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "CREATE_TRANSACTION" {
			t.Errorf("expected CREATE_TRANSACTION audit, got %v", actions)
		}
	})

	t.Run("accepts numeric amount and RFC3339 date", func(t *testing.T) {
		var got services.TransactionInput
		svc := &mockTransactionService{
			createTransactionFn: func(_ string, in services.TransactionInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", familyPath("/transactions"),
			`{"type":"income","amount":3000,"date":"2026-01-31T18:00:00Z"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Amount.Equal(decimal.NewFromInt(3000)) {
			t.Errorf("expected 3000, got %s", got.Amount)
		}
		if got.Date.Hour() != 18 {
			t.Errorf("expected 18:00, got %v", got.Date)
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", familyPath("/transactions"), `{"type":"expense"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on transfer type", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", familyPath("/transactions"), `{"type":"transfer","amount":"5"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", familyPath("/transactions"), `{"type":"expense","amount":"5","date":"15/01/2026"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 422 on currency mismatch", func(t *testing.T) {
		svc := &mockTransactionService{
			createTransactionFn: func(string, services.TransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrCurrencyMismatch
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", familyPath("/transactions"), `{"type":"expense","amount":"5","currency":"EUR"}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CURRENCY_MISMATCH")
	})
}

func TestTransactionHandler_GetFamilyTransactions(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.TransactionFilter
		svc := &mockTransactionService{
			getFamilyTransactionsFn: func(_ string, _ pagination.PageRequest, f services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				got = f
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", familyPath("/transactions?from_date=2026-01-01&to_date=2026-01-31T23:59:59Z&type=expense&category_id="+testCategoryID), "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.FromDate == nil || got.ToDate == nil {
			t.Fatal("expected both dates set")
		}
		if got.Type == nil || *got.Type != models.TransactionTypeExpense {
			t.Errorf("expected expense filter, got %v", got.Type)
		}
		if got.CategoryID == nil || *got.CategoryID != testCategoryID {
			t.Errorf("expected category filter, got %v", got.CategoryID)
		}
	})

	t.Run("none selects uncategorized", func(t *testing.T) {
		var got services.TransactionFilter
		svc := &mockTransactionService{
			getFamilyTransactionsFn: func(_ string, _ pagination.PageRequest, f services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				got = f
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", familyPath("/transactions?category_id=none"), "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !got.Uncategorized || got.CategoryID != nil {
			t.Errorf("expected uncategorized filter, got %+v", got)
		}
	})

	t.Run("returns 400 on bad filters", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		for _, q := range []string{"from_date=yesterday", "to_date=2026-13-01", "type=transfer", "category_id=42"} {
			rec := doRequest(r, "GET", familyPath("/transactions?"+q), "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, rec.Code)
			}
		}
	})
}

func TestTransactionHandler_GetAndDelete(t *testing.T) {
	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockTransactionService{
			getTransactionByIDFn: func(_, _ string) (*models.Transaction, error) { return nil, apperrors.ErrTransactionNotFound },
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", familyPath("/transactions/"+testLineID), "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("deletes and audits", func(t *testing.T) {
		var deleted string
		svc := &mockTransactionService{
			deleteTransactionFn: func(_, id string) error { deleted = id; return nil },
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(svc, audit))

		rec := doRequest(r, "DELETE", familyPath("/transactions/"+testLineID), "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if deleted != testLineID {
			t.Errorf("expected %s deleted, got %s", testLineID, deleted)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != "DELETE_TRANSACTION" {
			t.Errorf("expected DELETE_TRANSACTION audit, got %v", actions)
		}
	})
}
