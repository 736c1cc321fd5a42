package router

import (
	"database/sql"

	"gasstation_backend/internal/handlers"
	"gasstation_backend/internal/repositories"
	"gasstation_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Config carries the router's wiring inputs: service tunables and the admin key.
type Config struct {
	AdminAPIKey             string
	DefaultLitersPerPercent decimal.Decimal
	Shift                   services.ShiftConfig
	Anomaly                 services.AnomalyConfig
}

// Setup initializes the routing for the application and returns the anomaly
// service so the scheduler can share it.
func Setup(engine *gin.Engine, db *sql.DB, cfg Config) services.AnomalyService {
	// Initialize Repositories
	stationRepo := repositories.NewStationRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	meterRepo := repositories.NewMeterRepository(db)
	gaugeRepo := repositories.NewGaugeRepository(db)
	reconRepo := repositories.NewReconciliationRepository(db)
	anomalyRepo := repositories.NewAnomalyRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Initialize Services
	stationService := services.NewStationService(stationRepo, db, cfg.DefaultLitersPerPercent)
	shiftService := services.NewShiftService(shiftRepo, meterRepo, gaugeRepo, reconRepo, stationRepo, db, cfg.Shift)
	anomalyService := services.NewAnomalyService(anomalyRepo, meterRepo, transactionRepo, stationRepo, db, cfg.Anomaly)
	transactionService := services.NewTransactionService(transactionRepo, shiftRepo, db)
	reportService := services.NewReportService(reportRepo)

	// Initialize Handlers
	stationHandler := handlers.NewStationHandler(stationService)
	shiftHandler := handlers.NewShiftHandler(shiftService)
	anomalyHandler := handlers.NewAnomalyHandler(anomalyService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	reportHandler := handlers.NewReportHandler(reportService)

	apiV1 := engine.Group("/api/v1")
	{
		SetupStationRoutes(apiV1, stationHandler, shiftHandler, cfg.AdminAPIKey)
		SetupShiftRoutes(apiV1, shiftHandler, transactionHandler)
		SetupTransactionRoutes(apiV1, transactionHandler)
		SetupAnomalyRoutes(apiV1, anomalyHandler, cfg.AdminAPIKey)
		SetupReportRoutes(apiV1, reportHandler)
	}

	return anomalyService
}
