package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/services"
)

// FamilyHandler handles family-related requests
type FamilyHandler struct {
	familyService services.FamilyServicer
	auditService  services.AuditServicer
}

// NewFamilyHandler creates a new FamilyHandler
func NewFamilyHandler(familyService services.FamilyServicer, auditService services.AuditServicer) *FamilyHandler {
	return &FamilyHandler{familyService: familyService, auditService: auditService}
}

// CreateFamilyRequest represents the request payload for creating a family
type CreateFamilyRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Currency string `json:"currency" binding:"omitempty,iso4217"`
}

// CreateFamily handles the creation of a new family
// @Summary     Create a family
// @Description Create a household that owns categories, transactions and budgets
// @Tags        families
// @Accept      json
// @Produce     json
// @Param       request body CreateFamilyRequest true "Family details"
// @Success     201 {object} map[string]interface{} "Family created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /families [post]
func (h *FamilyHandler) CreateFamily(c *gin.Context) {
	var req CreateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	family, err := h.familyService.CreateFamily(req.Name, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(family.ID, "CREATE_FAMILY", "family", family.ID, c.ClientIP(),
		map[string]interface{}{"name": family.Name, "currency": family.Currency})

	c.JSON(http.StatusCreated, gin.H{"family": family})
}

// GetFamily handles the retrieval of a family
// @Summary     Get family
// @Tags        families
// @Produce     json
// @Param       family_id path string true "Family ID"
// @Success     200 {object} map[string]interface{} "Family details"
// @Failure     400 {object} ErrorResponse "Invalid family ID"
// @Failure     404 {object} ErrorResponse "Family not found"
// @Router      /families/{family_id} [get]
func (h *FamilyHandler) GetFamily(c *gin.Context) {
	id, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	family, err := h.familyService.GetFamily(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"family": family})
}
