package services

import (
	"gasstation_backend/internal/models"

	"github.com/shopspring/decimal"
)

// VarianceThresholds classify a closed shift's cash variance by absolute
// magnitude, in currency units. Values are configuration, not policy baked
// into the calculator.
type VarianceThresholds struct {
	Yellow decimal.Decimal
	Red    decimal.Decimal
}

// DefaultVarianceThresholds returns the stock thresholds: YELLOW above 100,
// RED above 500.
func DefaultVarianceThresholds() VarianceThresholds {
	return VarianceThresholds{
		Yellow: decimal.NewFromInt(100),
		Red:    decimal.NewFromInt(500),
	}
}

// ReconciliationInput carries the operator-entered close-out figures.
type ReconciliationInput struct {
	CashReceived        decimal.Decimal
	CreditReceived      decimal.Decimal
	TransferReceived    decimal.Decimal
	ExpectedOtherAmount decimal.Decimal
}

// ComputeReconciliation is a pure function of metered liters, the fuel price
// and the operator-entered receipts. It performs no I/O; the caller persists
// the result inside the close transaction.
func ComputeReconciliation(totalLiters, gasPrice decimal.Decimal, in ReconciliationInput, thresholds VarianceThresholds) models.ShiftReconciliation {
	expectedFuel := totalLiters.Mul(gasPrice)
	totalExpected := expectedFuel.Add(in.ExpectedOtherAmount)
	totalReceived := in.CashReceived.Add(in.CreditReceived).Add(in.TransferReceived)
	variance := totalReceived.Sub(totalExpected)

	return models.ShiftReconciliation{
		TotalLiters:         totalLiters,
		GasPrice:            gasPrice,
		ExpectedFuelAmount:  expectedFuel,
		ExpectedOtherAmount: in.ExpectedOtherAmount,
		TotalExpected:       totalExpected,
		CashReceived:        in.CashReceived,
		CreditReceived:      in.CreditReceived,
		TransferReceived:    in.TransferReceived,
		TotalReceived:       totalReceived,
		Variance:            variance,
		VarianceStatus:      ClassifyVariance(variance, thresholds),
	}
}

// ClassifyVariance maps a variance to GREEN/YELLOW/RED by absolute magnitude.
func ClassifyVariance(variance decimal.Decimal, thresholds VarianceThresholds) string {
	magnitude := variance.Abs()
	switch {
	case magnitude.GreaterThan(thresholds.Red):
		return models.VarianceStatusRed
	case magnitude.GreaterThan(thresholds.Yellow):
		return models.VarianceStatusYellow
	default:
		return models.VarianceStatusGreen
	}
}
