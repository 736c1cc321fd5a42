package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gasstation_backend/internal/models"
)

// ReconciliationRepository defines the interface for shift reconciliation persistence.
type ReconciliationRepository interface {
	Upsert(executor SQLExecutor, rec *models.ShiftReconciliation) (*models.ShiftReconciliation, error)
	GetByShiftID(shiftID int64) (*models.ShiftReconciliation, error)
}

type reconciliationRepository struct {
	db *sql.DB
}

// NewReconciliationRepository creates a new instance of ReconciliationRepository.
func NewReconciliationRepository(db *sql.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

const selectReconciliationFields = `
	id, shift_id, total_liters, gas_price, expected_fuel_amount, expected_other_amount,
	total_expected, cash_received, credit_received, transfer_received, total_received,
	variance, variance_status, created_at, updated_at
`

func scanReconciliationRow(row scanner) (*models.ShiftReconciliation, error) {
	var rec models.ShiftReconciliation
	err := row.Scan(
		&rec.ID, &rec.ShiftID, &rec.TotalLiters, &rec.GasPrice, &rec.ExpectedFuelAmount,
		&rec.ExpectedOtherAmount, &rec.TotalExpected, &rec.CashReceived, &rec.CreditReceived,
		&rec.TransferReceived, &rec.TotalReceived, &rec.Variance, &rec.VarianceStatus,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning reconciliation: %v", ErrDatabaseError, err)
	}
	return &rec, nil
}

// Upsert writes the reconciliation for a shift, one row per shift.
func (r *reconciliationRepository) Upsert(executor SQLExecutor, rec *models.ShiftReconciliation) (*models.ShiftReconciliation, error) {
	query := `INSERT INTO shift_reconciliations
	            (shift_id, total_liters, gas_price, expected_fuel_amount, expected_other_amount,
	             total_expected, cash_received, credit_received, transfer_received, total_received,
	             variance, variance_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	          ON CONFLICT (shift_id) DO UPDATE SET
	            total_liters = EXCLUDED.total_liters,
	            gas_price = EXCLUDED.gas_price,
	            expected_fuel_amount = EXCLUDED.expected_fuel_amount,
	            expected_other_amount = EXCLUDED.expected_other_amount,
	            total_expected = EXCLUDED.total_expected,
	            cash_received = EXCLUDED.cash_received,
	            credit_received = EXCLUDED.credit_received,
	            transfer_received = EXCLUDED.transfer_received,
	            total_received = EXCLUDED.total_received,
	            variance = EXCLUDED.variance,
	            variance_status = EXCLUDED.variance_status,
	            updated_at = EXCLUDED.updated_at
	          RETURNING ` + selectReconciliationFields

	return scanReconciliationRow(executor.QueryRow(query,
		rec.ShiftID, rec.TotalLiters, rec.GasPrice, rec.ExpectedFuelAmount, rec.ExpectedOtherAmount,
		rec.TotalExpected, rec.CashReceived, rec.CreditReceived, rec.TransferReceived,
		rec.TotalReceived, rec.Variance, rec.VarianceStatus, time.Now(),
	))
}

func (r *reconciliationRepository) GetByShiftID(shiftID int64) (*models.ShiftReconciliation, error) {
	query := "SELECT " + selectReconciliationFields + " FROM shift_reconciliations WHERE shift_id = $1"
	return scanReconciliationRow(r.db.QueryRow(query, shiftID))
}
