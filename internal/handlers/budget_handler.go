package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hearth/internal/errors"
	"hearth/internal/pagination"
	"hearth/internal/services"
	"hearth/internal/validator"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for opening a monthly budget.
type CreateBudgetRequest struct {
	Month string `json:"month" binding:"required,month" example:"2026-01"`
}

// UpdateBudgetTargetsRequest sets the spending ceiling and income target.
// Omitted fields are left unchanged. Version, when given, must match the
// budget's current version.
type UpdateBudgetTargetsRequest struct {
	BudgetedSpending *decimal.Decimal `json:"budgeted_spending" swaggertype:"string"`
	ExpectedIncome   *decimal.Decimal `json:"expected_income" swaggertype:"string"`
	Version          *int64           `json:"version"`
}

// SetAllocationRequest allocates an amount to one budget category.
type SetAllocationRequest struct {
	Amount  *decimal.Decimal `json:"amount" binding:"required" swaggertype:"string"`
	Version *int64           `json:"version"`
}

// CreateBudget handles opening the budget for a month.
// @Summary     Open a monthly budget
// @Description Return the family's budget for a month, creating it with a zero line per expense category if needed
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       request body CreateBudgetRequest true "Budget month"
// @Success     201 {object} map[string]interface{} "Budget created"
// @Success     200 {object} map[string]interface{} "Budget already existed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Family not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /families/{family_id}/budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	month, err := time.Parse(validator.MonthLayout, req.Month)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be YYYY-MM"))
		return
	}

	budget, created, err := h.budgetService.FindOrCreateBudget(fid, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.auditService.Log(fid, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
			map[string]interface{}{"month": req.Month})
	}

	c.JSON(status, gin.H{"budget": budget})
}

// GetBudgets handles listing a family's budgets.
// @Summary     List budgets
// @Tags        budgets
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated budgets, newest first"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /families/{family_id}/budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
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

	result, err := h.budgetService.GetBudgets(fid, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudgetOverview handles reading the computed view of a budget.
// @Summary     Budget overview
// @Description Allocation totals, actuals, state and per-category lines
// @Tags        budgets
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]interface{} "Budget overview"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /families/{family_id}/budgets/{id} [get]
func (h *BudgetHandler) GetBudgetOverview(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.budgetService.GetBudgetOverview(c.Request.Context(), fid, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": overview})
}

// UpdateBudgetTargets handles setting the spending ceiling and income target.
// @Summary     Update budget targets
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       id path string true "Budget ID"
// @Param       request body UpdateBudgetTargetsRequest true "Targets"
// @Success     200 {object} map[string]interface{} "Budget overview"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Stale version, budget busy or closed"
// @Router      /families/{family_id}/budgets/{id} [put]
func (h *BudgetHandler) UpdateBudgetTargets(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.BudgetedSpending == nil && req.ExpectedIncome == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "budgeted_spending or expected_income is required"))
		return
	}

	overview, err := h.budgetService.UpdateBudgetTargets(c.Request.Context(), fid, budgetID,
		req.BudgetedSpending, req.ExpectedIncome, req.Version)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.BudgetedSpending != nil {
		changes["budgeted_spending"] = req.BudgetedSpending.String()
	}
	if req.ExpectedIncome != nil {
		changes["expected_income"] = req.ExpectedIncome.String()
	}
	h.auditService.Log(fid, "UPDATE_BUDGET_TARGETS", "budget", budgetID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"budget": overview})
}

// SetAllocation handles allocating money to one budget category.
// @Summary     Set a category allocation
// @Description Over-allocation is accepted; the returned overview reports allocations_valid=false. Negative amounts are rejected.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       id path string true "Budget ID"
// @Param       budget_category_id path string true "Budget category ID"
// @Param       request body SetAllocationRequest true "Allocation"
// @Success     200 {object} map[string]interface{} "Budget overview"
// @Failure     400 {object} ErrorResponse "Invalid allocation"
// @Failure     404 {object} ErrorResponse "Budget or budget category not found"
// @Failure     409 {object} ErrorResponse "Stale version, budget busy or closed"
// @Router      /families/{family_id}/budgets/{id}/categories/{budget_category_id} [put]
func (h *BudgetHandler) SetAllocation(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	lineID, err := pathID(c, "budget_category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	overview, err := h.budgetService.SetAllocation(c.Request.Context(), fid, budgetID, lineID, *req.Amount, req.Version)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(fid, "SET_ALLOCATION", "budget_category", lineID, c.ClientIP(),
		map[string]interface{}{"budget_id": budgetID, "amount": req.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"budget": overview})
}

// DeleteBudget handles deleting a budget and its allocations.
// @Summary     Delete budget
// @Tags        budgets
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]interface{} "Budget deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /families/{family_id}/budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(fid, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(fid, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// GetSuggestions handles the auto-suggest view of a budget.
// @Summary     Allocation suggestions
// @Description Estimated income, estimated spending and median monthly expense per category from recent history
// @Tags        budgets
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.Suggestions "Suggestions"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /families/{family_id}/budgets/{id}/suggestions [get]
func (h *BudgetHandler) GetSuggestions(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	budgetID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	suggestions, err := h.budgetService.GetSuggestions(c.Request.Context(), fid, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
