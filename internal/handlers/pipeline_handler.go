package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
	"hearth/internal/services"
)

// PipelineHandler serves the endpoints used by the external transaction
// aggregation pipeline.
type PipelineHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *PipelineHandler {
	return &PipelineHandler{transactionService: transactionService, auditService: auditService}
}

// IngestTransactionsRequest is a batch of aggregated transactions.
type IngestTransactionsRequest struct {
	Transactions []CreateTransactionRequest `json:"transactions" binding:"required,min=1,max=1000,dive"`
}

// IngestTransactions handles bulk ingestion of transactions
// @Summary     Ingest transactions
// @Description Record a batch of transactions atomically (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string true "Pipeline API key"
// @Param       family_id path string true "Family ID"
// @Param       request body IngestTransactionsRequest true "Transactions"
// @Success     201 {object} map[string]int "Transactions recorded count"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/families/{family_id}/transactions [post]
func (h *PipelineHandler) IngestTransactions(c *gin.Context) {
	fid, err := familyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IngestTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	inputs := make([]services.TransactionInput, 0, len(req.Transactions))
	for _, r := range req.Transactions {
		in, err := r.input()
		if err != nil {
			respondWithError(c, err)
			return
		}
		inputs = append(inputs, in)
	}

	created, err := h.transactionService.CreateTransactions(fid, inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Named("pipeline").Infow("pipeline transactions ingested", "family_id", fid, "count", len(created))
	h.auditService.Log(fid, "INGEST_TRANSACTIONS", "transaction", "", c.ClientIP(),
		map[string]interface{}{"count": len(created)})

	c.JSON(http.StatusCreated, gin.H{"transactions_recorded": len(created)})
}
