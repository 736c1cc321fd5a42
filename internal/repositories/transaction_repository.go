package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gasstation_backend/internal/models"

	"github.com/shopspring/decimal"
)

// TransactionRepository defines the interface for the fuel transaction feed.
type TransactionRepository interface {
	CreateTransaction(executor SQLExecutor, tx *models.FuelTransaction) (*models.FuelTransaction, error)
	GetByShift(shiftID int64) ([]models.FuelTransaction, error)
	DailyLitersTotal(stationID int64, recordDate string) (decimal.Decimal, error)
}

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository.
func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const selectTransactionFields = `
	id, station_id, shift_id, liters, amount, payment_type, sold_at, created_at
`

func scanTransactionRow(row scanner) (*models.FuelTransaction, error) {
	var tx models.FuelTransaction
	err := row.Scan(
		&tx.ID, &tx.StationID, &tx.ShiftID, &tx.Liters, &tx.Amount,
		&tx.PaymentType, &tx.SoldAt, &tx.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning fuel transaction: %v", ErrDatabaseError, err)
	}
	return &tx, nil
}

func (r *transactionRepository) CreateTransaction(executor SQLExecutor, tx *models.FuelTransaction) (*models.FuelTransaction, error) {
	query := `INSERT INTO fuel_transactions
	            (station_id, shift_id, liters, amount, payment_type, sold_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`

	tx.CreatedAt = time.Now()
	if tx.SoldAt.IsZero() {
		tx.SoldAt = tx.CreatedAt
	}
	err := executor.QueryRow(query,
		tx.StationID, tx.ShiftID, tx.Liters, tx.Amount, tx.PaymentType, tx.SoldAt, tx.CreatedAt,
	).Scan(&tx.ID, &tx.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("%w: creating fuel transaction: %v", ErrDatabaseError, err)
	}
	return tx, nil
}

func (r *transactionRepository) GetByShift(shiftID int64) ([]models.FuelTransaction, error) {
	query := "SELECT " + selectTransactionFields + " FROM fuel_transactions WHERE shift_id = $1 ORDER BY sold_at"
	rows, err := r.db.Query(query, shiftID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying fuel transactions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	transactions := []models.FuelTransaction{}
	for rows.Next() {
		tx, scanErr := scanTransactionRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		transactions = append(transactions, *tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating fuel transaction rows: %v", ErrDatabaseError, err)
	}
	return transactions, nil
}

// DailyLitersTotal sums transaction-recorded liters for one station-day, the
// independent measurement the daily anomaly scan compares against the meters.
func (r *transactionRepository) DailyLitersTotal(stationID int64, recordDate string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(liters), 0) FROM fuel_transactions
	          WHERE station_id = $1 AND sold_at >= $2::date AND sold_at < $2::date + INTERVAL '1 day'`

	var total decimal.Decimal
	if err := r.db.QueryRow(query, stationID, recordDate).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing daily transaction liters: %v", ErrDatabaseError, err)
	}
	return total, nil
}
