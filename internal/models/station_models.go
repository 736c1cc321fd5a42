package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Station represents a fuel station. Identity attributes are immutable after
// creation; only FuelPrice is expected to change over the station's lifetime.
type Station struct {
	ID               int64           `json:"id" db:"id"`
	Name             string          `json:"name" db:"name" binding:"required"`
	FuelPrice        decimal.Decimal `json:"fuel_price" db:"fuel_price"`
	NozzleCount      int             `json:"nozzle_count" db:"nozzle_count"`
	TankCount        int             `json:"tank_count" db:"tank_count"`
	LitersPerPercent decimal.Decimal `json:"liters_per_percent" db:"liters_per_percent"` // tank gauge conversion constant, e.g. 98
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// DailyRecord groups the shifts of one station for one calendar date
// (station-local). At most one exists per (station, date).
type DailyRecord struct {
	ID         int64     `json:"id" db:"id"`
	StationID  int64     `json:"station_id" db:"station_id"`
	RecordDate string    `json:"record_date" db:"record_date"` // YYYY-MM-DD
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
