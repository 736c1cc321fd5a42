package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment types accepted on a fuel sale.
const (
	PaymentTypeCash     = "CASH"
	PaymentTypeCredit   = "CREDIT"
	PaymentTypeTransfer = "TRANSFER"
)

// IsValidPaymentType reports whether t is a known payment type.
func IsValidPaymentType(t string) bool {
	switch t {
	case PaymentTypeCash, PaymentTypeCredit, PaymentTypeTransfer:
		return true
	}
	return false
}

// FuelTransaction is one recorded sale against an open shift. The transaction
// feed is an independent measurement of dispensed volume; the daily anomaly
// scan compares its totals against the meter ledger.
type FuelTransaction struct {
	ID          int64           `json:"id" db:"id"`
	StationID   int64           `json:"station_id" db:"station_id"`
	ShiftID     int64           `json:"shift_id" db:"shift_id"`
	Liters      decimal.Decimal `json:"liters" db:"liters"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PaymentType string          `json:"payment_type" db:"payment_type"`
	SoldAt      time.Time       `json:"sold_at" db:"sold_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
