package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"gasstation_backend/internal/services"
	"gasstation_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetDailyReports handles the per-station daily summary report. Defaults to
// the trailing 7 days when no range is given.
func (h *ReportHandler) GetDailyReports(c *gin.Context) {
	dateTo := c.DefaultQuery("date_to", time.Now().Format("2006-01-02"))
	dateFrom := c.DefaultQuery("date_from", time.Now().AddDate(0, 0, -6).Format("2006-01-02"))

	var stationID *int64
	if stationIDStr := c.Query("station_id"); stationIDStr != "" {
		id, parseErr := strconv.ParseInt(stationIDStr, 10, 64)
		if parseErr != nil {
			utils.RespondValidationFailed(c, "Invalid station_id format.")
			return
		}
		stationID = &id
	}

	summaries, err := h.reportService.GetDailySummaries(stationID, dateFrom, dateTo)
	if err != nil {
		utils.LogError(err, "GetDailyReports: Error from reportService.GetDailySummaries")
		if errors.Is(err, services.ErrReportValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch daily reports.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries, "date_from": dateFrom, "date_to": dateTo})
}
