package models

import "github.com/shopspring/decimal"

// DailySummary is one row of the per-station daily report: shift volumes,
// reconciliation sums and the anomaly flag for a single (station, date).
type DailySummary struct {
	StationID         int64           `json:"station_id" db:"station_id"`
	StationName       string          `json:"station_name" db:"station_name"`
	RecordDate        string          `json:"record_date" db:"record_date"`
	ShiftsTotal       int             `json:"shifts_total" db:"shifts_total"`
	ShiftsClosed      int             `json:"shifts_closed" db:"shifts_closed"`
	MeterLiters       decimal.Decimal `json:"meter_liters" db:"meter_liters"`
	TransactionLiters decimal.Decimal `json:"transaction_liters" db:"transaction_liters"`
	TotalExpected     decimal.Decimal `json:"total_expected" db:"total_expected"`
	TotalReceived     decimal.Decimal `json:"total_received" db:"total_received"`
	Variance          decimal.Decimal `json:"variance" db:"variance"`
	HasAnomaly        bool            `json:"has_anomaly" db:"has_anomaly"`
}
