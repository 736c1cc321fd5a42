package handlers

import (
	"errors"
	"net/http"

	"gasstation_backend/internal/services"
	"gasstation_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TransactionHandler holds the transaction service.
type TransactionHandler struct {
	transactionService services.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ts services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: ts}
}

// RecordTransaction handles recording a fuel sale against the open shift.
func (h *TransactionHandler) RecordTransaction(c *gin.Context) {
	var req services.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RecordTransaction: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	transaction, err := h.transactionService.RecordTransaction(req)
	if err != nil {
		utils.LogError(err, "RecordTransaction: Error from transactionService.RecordTransaction")
		if errors.Is(err, services.ErrNoOpenShift) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "No open shift for this station.", err.Error()))
		} else if errors.Is(err, services.ErrTransactionValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record transaction.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, transaction)
}

// GetShiftTransactions handles listing the transactions of one shift.
func (h *TransactionHandler) GetShiftTransactions(c *gin.Context) {
	shiftID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid shift ID format.")
		return
	}

	transactions, err := h.transactionService.GetTransactionsByShift(shiftID)
	if err != nil {
		utils.LogError(err, "GetShiftTransactions: Error from transactionService.GetTransactionsByShift")
		if errors.Is(err, services.ErrShiftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch shift transactions.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": transactions, "total": len(transactions)})
}
