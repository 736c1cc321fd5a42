package services

import (
	"gasstation_backend/internal/models"

	"github.com/shopspring/decimal"
)

// DispensedVolume returns the liters dispensed by one nozzle during a shift.
//
// Precedence: an operator-entered sold quantity always wins over the counter
// difference. With no override, the volume is end - start, floored at zero.
// A reading without an end counter contributes zero ("not yet closed", not an
// error). Out-of-range pairs (end < start) are rejected at write time, so the
// floor here only guards data written before that check existed.
func DispensedVolume(m models.MeterReading) decimal.Decimal {
	if m.SoldQty.Valid {
		return m.SoldQty.Decimal
	}
	if m.EndReading.Valid {
		diff := m.EndReading.Decimal.Sub(m.StartReading)
		if diff.IsNegative() {
			return decimal.Zero
		}
		return diff
	}
	return decimal.Zero
}

// ShiftTotal sums DispensedVolume across all nozzle readings of a shift.
func ShiftTotal(readings []models.MeterReading) decimal.Decimal {
	total := decimal.Zero
	for _, m := range readings {
		total = total.Add(DispensedVolume(m))
	}
	return total
}

// StockLiters converts gauge percentages to liters and sums them across
// tanks: sum(percentage_i * litersPerPercent).
//
// A partial set of tanks still yields a (partial) sum; completeness is the
// caller's check, not this function's.
func StockLiters(readings []models.GaugeReading, litersPerPercent decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, g := range readings {
		total = total.Add(g.Percentage.Mul(litersPerPercent))
	}
	return total
}
