package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
	"hearth/internal/services"
	"hearth/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Amount accepts a JSON string or number; the currency defaults to the family's.
type CreateTransactionRequest struct {
	CategoryID  *string                `json:"category_id" binding:"omitempty,uuid"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount      *decimal.Decimal       `json:"amount" binding:"required"`
	Currency    string                 `json:"currency" binding:"omitempty,iso4217"`
	Description string                 `json:"description" binding:"max=500"`
	Date        *string                `json:"date"`
}

func (r CreateTransactionRequest) input() (services.TransactionInput, error) {
	in := services.TransactionInput{
		CategoryID:  r.CategoryID,
		Type:        r.Type,
		Amount:      *r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
	}
	if r.Date != nil && *r.Date != "" {
		d, err := parseFlexibleTime(*r.Date)
		if err != nil {
			return in, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD")
		}
		in.Date = d
	}
	return in, nil
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Record a transaction
// @Description Record an income or expense. Budgets pick it up on their next read.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} map[string]interface{} "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Currency mismatch"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /families/{family_id}/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	in, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(fid, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(fid, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetFamilyTransactions handles listing a family's transactions
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       type query string false "income or expense"
// @Param       category_id query string false "Category ID, or 'none' for uncategorized"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /families/{family_id}/transactions [get]
func (h *TransactionHandler) GetFamilyTransactions(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetFamilyTransactions(fid, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID handles the retrieval of one transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]interface{} "Transaction details"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /families/{family_id}/transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	txID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(fid, txID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]interface{} "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /families/{family_id}/transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	txID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(fid, txID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(fid, "DELETE_TRANSACTION", "transaction", txID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypeIncome, models.TransactionTypeExpense:
			filter.Type = &txType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income or expense")
		}
	}

	switch v := c.Query("category_id"); {
	case v == "none":
		filter.Uncategorized = true
	case v != "":
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
		}
		filter.CategoryID = &v
	}

	return filter, nil
}

// parseFlexibleTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates (UTC).
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
