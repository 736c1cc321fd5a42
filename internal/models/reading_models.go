package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gauge reading phases. START readings are captured at shift open, END
// readings at shift close. The values match the database CHECK constraint.
const (
	GaugePhaseStart = "START"
	GaugePhaseEnd   = "END"
)

// IsValidGaugePhase reports whether p is a known gauge phase marker.
func IsValidGaugePhase(p string) bool {
	return p == GaugePhaseStart || p == GaugePhaseEnd
}

// MeterReading holds the dispenser counter values for one nozzle during one
// shift. EndReading stays null until the shift closes. SoldQty, when set by
// the operator, overrides the computed end-start difference.
//
// One row exists per (shift, nozzle); repeated submissions update in place.
type MeterReading struct {
	ID           int64               `json:"id" db:"id"`
	ShiftID      int64               `json:"shift_id" db:"shift_id"`
	NozzleNumber int                 `json:"nozzle_number" db:"nozzle_number"`
	StartReading decimal.Decimal     `json:"start_reading" db:"start_reading"`
	EndReading   decimal.NullDecimal `json:"end_reading" db:"end_reading"`
	SoldQty      decimal.NullDecimal `json:"sold_qty" db:"sold_qty"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// GaugeReading is one tank level capture. Multiple rows per (shift, tank,
// phase) are kept as history; the latest one is authoritative for stock.
type GaugeReading struct {
	ID         int64           `json:"id" db:"id"`
	StationID  int64           `json:"station_id" db:"station_id"`
	ShiftID    int64           `json:"shift_id" db:"shift_id"`
	TankNumber int             `json:"tank_number" db:"tank_number"`
	Phase      string          `json:"phase" db:"phase"`
	Percentage decimal.Decimal `json:"percentage" db:"percentage"`
	RecordedAt time.Time       `json:"recorded_at" db:"recorded_at"`
}
