package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gasstation_backend/internal/models"
	"gasstation_backend/internal/services"
	"gasstation_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ShiftHandler holds the shift service.
type ShiftHandler struct {
	shiftService services.ShiftService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(ss services.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: ss}
}

// OpenShift handles opening a new shift for a station.
func (h *ShiftHandler) OpenShift(c *gin.Context) {
	stationID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid station ID format.")
		return
	}

	var req services.OpenShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "OpenShift: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	shift, err := h.shiftService.OpenShift(stationID, req)
	if err != nil {
		utils.LogError(err, "OpenShift: Error from shiftService.OpenShift")
		respondShiftError(c, err, "Failed to open shift.")
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// CloseShift handles closing an open shift with end readings and
// reconciliation inputs.
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	shiftID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid shift ID format.")
		return
	}

	var req services.CloseShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CloseShift: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	summary, err := h.shiftService.CloseShift(shiftID, req)
	if err != nil {
		utils.LogError(err, "CloseShift: Error from shiftService.CloseShift")
		respondShiftError(c, err, "Failed to close shift.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetCurrentShift handles fetching a station's open shift with embedded
// meters, gauges and reconciliation. Responds with null when none is open.
func (h *ShiftHandler) GetCurrentShift(c *gin.Context) {
	stationID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid station ID format.")
		return
	}

	shift, err := h.shiftService.GetCurrentShift(stationID)
	if err != nil {
		utils.LogError(err, "GetCurrentShift: Error from shiftService.GetCurrentShift")
		respondShiftError(c, err, "Failed to fetch current shift.")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// GetShiftByID handles fetching a single shift with embedded detail.
func (h *ShiftHandler) GetShiftByID(c *gin.Context) {
	shiftID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid shift ID format.")
		return
	}

	shift, err := h.shiftService.GetShiftByID(shiftID)
	if err != nil {
		utils.LogError(err, "GetShiftByID: Error from shiftService.GetShiftByID")
		respondShiftError(c, err, "Failed to fetch shift.")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// GetShifts handles listing a station's shifts with pagination and filters.
func (h *ShiftHandler) GetShifts(c *gin.Context) {
	stationID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid station ID format.")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	filters := models.ShiftFilters{
		StationID: &stationID,
		Page:      page,
		PageSize:  pageSize,
	}
	if dateFrom := c.Query("date_from"); dateFrom != "" {
		filters.DateFrom = &dateFrom
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		filters.DateTo = &dateTo
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}

	shifts, totalCount, err := h.shiftService.GetShifts(filters)
	if err != nil {
		utils.LogError(err, "GetShifts: Error from shiftService.GetShifts")
		respondShiftError(c, err, "Failed to fetch shifts.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      shifts,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// respondShiftError maps shift service errors to API error responses.
func respondShiftError(c *gin.Context, err error, fallbackMessage string) {
	switch {
	case errors.Is(err, services.ErrStationNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Station not found.", err.Error()))
	case errors.Is(err, services.ErrShiftNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
	case errors.Is(err, services.ErrShiftAlreadyOpen):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "An open shift already exists for this station.", err.Error()))
	case errors.Is(err, services.ErrShiftNumberTaken):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shift number already used today.", err.Error()))
	case errors.Is(err, services.ErrShiftNotOpen):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Shift is not open.", err.Error()))
	case errors.Is(err, services.ErrReadingOutOfRange):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeOutOfRange, "Reading out of range.", err.Error()))
	case errors.Is(err, services.ErrIncompleteReadings):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeIncompleteInput, "Incomplete readings.", err.Error()))
	case errors.Is(err, services.ErrAnomalyNoteRequired):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeIncompleteInput, "A variance note is required due to a critical volume anomaly.", err.Error()))
	case errors.Is(err, services.ErrShiftValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallbackMessage, "Internal error"))
	}
}
