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

// AnomalyHandler holds the anomaly service.
type AnomalyHandler struct {
	anomalyService services.AnomalyService
}

// NewAnomalyHandler creates a new AnomalyHandler.
func NewAnomalyHandler(as services.AnomalyService) *AnomalyHandler {
	return &AnomalyHandler{anomalyService: as}
}

// ScanRequest triggers the daily anomaly backfill scan.
type ScanRequest struct {
	StationID *int64 `json:"station_id"`
	Days      int    `json:"days"`
}

// ScanAnomalies handles the explicit backfill scan over trailing days. The
// explicit endpoint bypasses the cooldown the scheduled scan honors.
func (h *AnomalyHandler) ScanAnomalies(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "ScanAnomalies: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.Days <= 0 {
		req.Days = 1
	}

	anomalies, err := h.anomalyService.ScanDailyAnomalies(req.StationID, req.Days, true)
	if err != nil {
		utils.LogError(err, "ScanAnomalies: Error from anomalyService.ScanDailyAnomalies")
		if errors.Is(err, services.ErrStationNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Station not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to scan for anomalies.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": anomalies, "created": len(anomalies)})
}

// GetAnomalies handles listing daily anomalies with filters and pagination.
func (h *AnomalyHandler) GetAnomalies(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	filters := models.AnomalyFilters{
		Page:     page,
		PageSize: pageSize,
	}
	if stationIDStr := c.Query("station_id"); stationIDStr != "" {
		stationID, parseErr := strconv.ParseInt(stationIDStr, 10, 64)
		if parseErr != nil {
			utils.RespondValidationFailed(c, "Invalid station_id format.")
			return
		}
		filters.StationID = &stationID
	}
	if dateFrom := c.Query("date_from"); dateFrom != "" {
		filters.DateFrom = &dateFrom
	}
	if dateTo := c.Query("date_to"); dateTo != "" {
		filters.DateTo = &dateTo
	}
	filters.OnlyUnreviewed = c.Query("unreviewed") == "true"

	anomalies, totalCount, err := h.anomalyService.GetAnomalies(filters)
	if err != nil {
		utils.LogError(err, "GetAnomalies: Error from anomalyService.GetAnomalies")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch anomalies.", "Internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      anomalies,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// ReviewRequest dismisses a daily anomaly after manual review.
type ReviewRequest struct {
	ReviewedBy string  `json:"reviewed_by" binding:"required"`
	Note       *string `json:"note"`
}

// ReviewAnomaly handles marking a daily anomaly as reviewed.
func (h *AnomalyHandler) ReviewAnomaly(c *gin.Context) {
	anomalyID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid anomaly ID format.")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "ReviewAnomaly: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	anomaly, err := h.anomalyService.ReviewAnomaly(anomalyID, req.ReviewedBy, req.Note)
	if err != nil {
		utils.LogError(err, "ReviewAnomaly: Error from anomalyService.ReviewAnomaly")
		if errors.Is(err, services.ErrAnomalyNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Anomaly not found.", err.Error()))
		} else if errors.Is(err, services.ErrAnomalyValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to review anomaly.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, anomaly)
}
