package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shift statuses. A shift only ever moves forward: OPEN -> CLOSED -> LOCKED.
const (
	ShiftStatusOpen   = "OPEN"
	ShiftStatusClosed = "CLOSED"
	ShiftStatusLocked = "LOCKED"
)

// IsValidShiftStatus reports whether s is a known shift status.
func IsValidShiftStatus(s string) bool {
	switch s {
	case ShiftStatusOpen, ShiftStatusClosed, ShiftStatusLocked:
		return true
	}
	return false
}

// Shift is one bounded work period within a DailyRecord. ShiftNumber is
// sequential (1, 2, ...) and unique within its daily record.
//
// OpeningStock is carried over from the predecessor shift's ClosingStock when
// one exists (CarryOverFromShiftID then points at it); otherwise it is derived
// from the start gauge readings. ClosingStock is set at close from the end
// gauge readings.
type Shift struct {
	ID                   int64               `json:"id" db:"id"`
	DailyRecordID        int64               `json:"daily_record_id" db:"daily_record_id"`
	ShiftNumber          int                 `json:"shift_number" db:"shift_number"`
	Status               string              `json:"status" db:"status"`
	OpeningStock         decimal.NullDecimal `json:"opening_stock" db:"opening_stock"`
	ClosingStock         decimal.NullDecimal `json:"closing_stock" db:"closing_stock"`
	CarryOverFromShiftID *int64              `json:"carry_over_from_shift_id,omitempty" db:"carry_over_from_shift_id"`
	VarianceNote         *string             `json:"variance_note,omitempty" db:"variance_note"`
	CreatedAt            time.Time           `json:"created_at" db:"created_at"`
	ClosedAt             *time.Time          `json:"closed_at,omitempty" db:"closed_at"`

	// StationID is denormalized onto the shift row so the single-open-shift
	// rule can be enforced with a partial unique index.
	StationID int64 `json:"station_id" db:"station_id"`

	// Joined detail, populated by repository queries where requested.
	RecordDate     string               `json:"record_date,omitempty" db:"record_date"`
	Meters         []MeterReading       `json:"meters,omitempty"`
	Gauges         []GaugeReading       `json:"gauges,omitempty"`
	Reconciliation *ShiftReconciliation `json:"reconciliation,omitempty"`
}

// ShiftFilters narrows shift list queries.
type ShiftFilters struct {
	StationID *int64
	DateFrom  *string // YYYY-MM-DD
	DateTo    *string
	Status    *string
	Page      int
	PageSize  int
}
