package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Anomaly severities shared by nozzle and daily checks.
const (
	AnomalySeverityWarning  = "WARNING"
	AnomalySeverityCritical = "CRITICAL"
)

// DailyAnomaly flags a divergence between the meter-derived and
// transaction-derived liter totals of one station-day. At most one exists per
// (station, date). Advisory only; reviewers dismiss it manually.
type DailyAnomaly struct {
	ID               int64           `json:"id" db:"id"`
	StationID        int64           `json:"station_id" db:"station_id"`
	AnomalyDate      string          `json:"anomaly_date" db:"anomaly_date"` // YYYY-MM-DD
	MeterTotal       decimal.Decimal `json:"meter_total" db:"meter_total"`
	TransactionTotal decimal.Decimal `json:"transaction_total" db:"transaction_total"`
	Difference       decimal.Decimal `json:"difference" db:"difference"`
	Severity         string          `json:"severity" db:"severity"`
	Note             *string         `json:"note,omitempty" db:"note"`
	ReviewedAt       *time.Time      `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy       *string         `json:"reviewed_by,omitempty" db:"reviewed_by"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// NozzleAnomaly is the result of comparing one nozzle's shift volume against
// its trailing average. Computed at close time, never persisted.
type NozzleAnomaly struct {
	NozzleNumber int             `json:"nozzle_number"`
	CurrentQty   decimal.Decimal `json:"current_qty"`
	AverageQty   decimal.Decimal `json:"average_qty"`
	PercentDiff  decimal.Decimal `json:"percent_diff"`
	Severity     string          `json:"severity"`
}

// AnomalyFilters narrows daily anomaly list queries.
type AnomalyFilters struct {
	StationID      *int64
	DateFrom       *string
	DateTo         *string
	OnlyUnreviewed bool
	Page           int
	PageSize       int
}
