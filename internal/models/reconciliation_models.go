package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variance classifications for a closed shift, by absolute magnitude of the
// received-vs-expected difference.
const (
	VarianceStatusGreen  = "GREEN"
	VarianceStatusYellow = "YELLOW"
	VarianceStatusRed    = "RED"
)

// ShiftReconciliation is the expected-vs-received cash summary for one closed
// shift. One row per shift, written as part of the close operation and
// immutable once the shift is LOCKED.
type ShiftReconciliation struct {
	ID                  int64           `json:"id" db:"id"`
	ShiftID             int64           `json:"shift_id" db:"shift_id"`
	TotalLiters         decimal.Decimal `json:"total_liters" db:"total_liters"`
	GasPrice            decimal.Decimal `json:"gas_price" db:"gas_price"`
	ExpectedFuelAmount  decimal.Decimal `json:"expected_fuel_amount" db:"expected_fuel_amount"`
	ExpectedOtherAmount decimal.Decimal `json:"expected_other_amount" db:"expected_other_amount"`
	TotalExpected       decimal.Decimal `json:"total_expected" db:"total_expected"`
	CashReceived        decimal.Decimal `json:"cash_received" db:"cash_received"`
	CreditReceived      decimal.Decimal `json:"credit_received" db:"credit_received"`
	TransferReceived    decimal.Decimal `json:"transfer_received" db:"transfer_received"`
	TotalReceived       decimal.Decimal `json:"total_received" db:"total_received"`
	Variance            decimal.Decimal `json:"variance" db:"variance"`
	VarianceStatus      string          `json:"variance_status" db:"variance_status"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}
