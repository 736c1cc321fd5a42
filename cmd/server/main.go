package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gasstation_backend/internal/database"
	"gasstation_backend/internal/router"
	"gasstation_backend/internal/scheduler"
	"gasstation_backend/internal/services"
	"gasstation_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Initialize Logger
	utils.InitLogger()

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "gasstation_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "gasstation_password")
	dbName := utils.Getenv("DB_NAME", "gasstation_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	// Initialize Database
	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized", map[string]interface{}{"configured_from_env": true})

	engine := gin.Default()

	// Add GinLogger middleware for request logging
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"} // Default origins
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-API-Key"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Setup all application routes
	dbConn := database.GetDB()
	routerCfg := loadRouterConfig()
	anomalySvc := router.Setup(engine, dbConn, routerCfg)

	// Background anomaly scan. force=false inside the job means the
	// persisted cooldown decides whether a tick does any work.
	sched := scheduler.NewScheduler(anomalySvc, utils.Getenv("ANOMALY_SCAN_CRON", "*/5 * * * *"))
	if err := sched.Start(); err != nil {
		utils.LogError(err, "Failed to start scheduler")
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Server port configuration
	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port, "configured_from_env": true})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadRouterConfig() router.Config {
	shiftCfg := services.DefaultShiftConfig()
	shiftCfg.Thresholds.Yellow = decimalEnv("VARIANCE_YELLOW_THRESHOLD", shiftCfg.Thresholds.Yellow)
	shiftCfg.Thresholds.Red = decimalEnv("VARIANCE_RED_THRESHOLD", shiftCfg.Thresholds.Red)
	shiftCfg.RequireAnomalyNote = boolEnv("REQUIRE_ANOMALY_NOTE", shiftCfg.RequireAnomalyNote)

	anomalyCfg := services.DefaultAnomalyConfig()
	anomalyCfg.WarningPercent = decimalEnv("ANOMALY_WARNING_PERCENT", anomalyCfg.WarningPercent)
	anomalyCfg.CriticalPercent = decimalEnv("ANOMALY_CRITICAL_PERCENT", anomalyCfg.CriticalPercent)
	anomalyCfg.DailyLiterThreshold = decimalEnv("ANOMALY_DAILY_LITER_THRESHOLD", anomalyCfg.DailyLiterThreshold)
	if v, err := strconv.Atoi(os.Getenv("ANOMALY_HISTORY_WINDOW")); err == nil && v > 0 {
		anomalyCfg.HistoryWindow = v
	}
	if v, err := time.ParseDuration(os.Getenv("ANOMALY_SCAN_COOLDOWN")); err == nil && v > 0 {
		anomalyCfg.ScanCooldown = v
	}
	shiftCfg.Anomaly = anomalyCfg

	return router.Config{
		AdminAPIKey:             os.Getenv("API_KEY"),
		DefaultLitersPerPercent: decimalEnv("LITERS_PER_PERCENT", decimal.NewFromInt(98)),
		Shift:                   shiftCfg,
		Anomaly:                 anomalyCfg,
	}
}

func decimalEnv(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		utils.LogError(err, "Invalid decimal in "+key+", using default")
		return fallback
	}
	return v
}

func boolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
