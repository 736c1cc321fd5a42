package router

import (
	"gasstation_backend/internal/handlers"
	"gasstation_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupStationRoutes(rg *gin.RouterGroup, h *handlers.StationHandler, sh *handlers.ShiftHandler, adminKey string) {
	stations := rg.Group("/stations")
	{
		stations.POST("", h.CreateStation)
		stations.GET("", h.GetStations)
		stations.GET("/:id", h.GetStationByID)
		stations.PATCH("/:id/price", middleware.APIKeyMiddleware(adminKey), h.UpdateFuelPrice)

		stations.POST("/:id/shifts/open", sh.OpenShift)
		stations.GET("/:id/shifts/current", sh.GetCurrentShift)
		stations.GET("/:id/shifts", sh.GetShifts)
	}
}

func SetupShiftRoutes(rg *gin.RouterGroup, h *handlers.ShiftHandler, th *handlers.TransactionHandler) {
	shifts := rg.Group("/shifts")
	{
		shifts.GET("/:id", h.GetShiftByID)
		shifts.POST("/:id/close", h.CloseShift)
		shifts.GET("/:id/transactions", th.GetShiftTransactions)
	}
}

func SetupTransactionRoutes(rg *gin.RouterGroup, h *handlers.TransactionHandler) {
	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.RecordTransaction)
	}
}

func SetupAnomalyRoutes(rg *gin.RouterGroup, h *handlers.AnomalyHandler, adminKey string) {
	anomalies := rg.Group("/anomalies")
	{
		anomalies.POST("/scan", middleware.APIKeyMiddleware(adminKey), h.ScanAnomalies)
		anomalies.GET("", h.GetAnomalies)
		anomalies.PATCH("/:id/review", h.ReviewAnomaly)
	}
}

func SetupReportRoutes(rg *gin.RouterGroup, h *handlers.ReportHandler) {
	reports := rg.Group("/reports")
	{
		reports.GET("/daily", h.GetDailyReports)
	}
}
