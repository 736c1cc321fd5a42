package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gasstation_backend/internal/models"

	"github.com/shopspring/decimal"
)

// MeterRepository defines the interface for dispenser meter reading operations.
type MeterRepository interface {
	UpsertStart(executor SQLExecutor, shiftID int64, nozzleNumber int, reading decimal.Decimal) (*models.MeterReading, error)
	UpsertEnd(executor SQLExecutor, shiftID int64, nozzleNumber int, endReading decimal.Decimal, soldQty decimal.NullDecimal) (*models.MeterReading, error)
	GetByShift(shiftID int64) ([]models.MeterReading, error)
	RecentSoldQuantities(stationID int64, nozzleNumber int, beforeShiftID int64, limit int) ([]decimal.Decimal, error)
	DailyDispensedTotal(stationID int64, recordDate string) (decimal.Decimal, error)
}

type meterRepository struct {
	db *sql.DB
}

// NewMeterRepository creates a new instance of MeterRepository.
func NewMeterRepository(db *sql.DB) MeterRepository {
	return &meterRepository{db: db}
}

const selectMeterFields = `
	id, shift_id, nozzle_number, start_reading, end_reading, sold_qty, created_at, updated_at
`

func scanMeterRow(row scanner) (*models.MeterReading, error) {
	var reading models.MeterReading
	err := row.Scan(
		&reading.ID, &reading.ShiftID, &reading.NozzleNumber, &reading.StartReading,
		&reading.EndReading, &reading.SoldQty, &reading.CreatedAt, &reading.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning meter reading: %v", ErrDatabaseError, err)
	}
	return &reading, nil
}

// UpsertStart writes the start counter for (shift, nozzle). Repeated
// submissions converge on the latest value rather than duplicating rows.
func (r *meterRepository) UpsertStart(executor SQLExecutor, shiftID int64, nozzleNumber int, reading decimal.Decimal) (*models.MeterReading, error) {
	query := `INSERT INTO meter_readings
	            (shift_id, nozzle_number, start_reading, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $4)
	          ON CONFLICT (shift_id, nozzle_number)
	          DO UPDATE SET start_reading = EXCLUDED.start_reading, updated_at = EXCLUDED.updated_at
	          RETURNING ` + selectMeterFields

	return scanMeterRow(executor.QueryRow(query, shiftID, nozzleNumber, reading, time.Now()))
}

// UpsertEnd writes the end counter (and optional operator-entered sold
// quantity) for an existing (shift, nozzle) row.
func (r *meterRepository) UpsertEnd(executor SQLExecutor, shiftID int64, nozzleNumber int, endReading decimal.Decimal, soldQty decimal.NullDecimal) (*models.MeterReading, error) {
	query := `UPDATE meter_readings
	          SET end_reading = $1, sold_qty = $2, updated_at = $3
	          WHERE shift_id = $4 AND nozzle_number = $5
	          RETURNING ` + selectMeterFields

	return scanMeterRow(executor.QueryRow(query, endReading, soldQty, time.Now(), shiftID, nozzleNumber))
}

func (r *meterRepository) GetByShift(shiftID int64) ([]models.MeterReading, error) {
	query := "SELECT " + selectMeterFields + " FROM meter_readings WHERE shift_id = $1 ORDER BY nozzle_number"
	rows, err := r.db.Query(query, shiftID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying meter readings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	readings := []models.MeterReading{}
	for rows.Next() {
		reading, scanErr := scanMeterRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		readings = append(readings, *reading)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating meter reading rows: %v", ErrDatabaseError, err)
	}
	return readings, nil
}

// RecentSoldQuantities returns the dispensed volume of the nozzle's most
// recent closed shifts before the given shift, newest first. Volumes follow
// the ledger precedence: operator-entered sold_qty wins over the counter
// difference.
func (r *meterRepository) RecentSoldQuantities(stationID int64, nozzleNumber int, beforeShiftID int64, limit int) ([]decimal.Decimal, error) {
	query := `SELECT COALESCE(mr.sold_qty, GREATEST(mr.end_reading - mr.start_reading, 0))
	          FROM meter_readings mr
	          JOIN shifts s ON mr.shift_id = s.id
	          JOIN daily_records dr ON s.daily_record_id = dr.id
	          WHERE dr.station_id = $1 AND mr.nozzle_number = $2
	            AND s.id != $3 AND s.status IN ($4, $5)
	            AND (mr.sold_qty IS NOT NULL OR mr.end_reading IS NOT NULL)
	          ORDER BY s.closed_at DESC
	          LIMIT $6`

	rows, err := r.db.Query(query, stationID, nozzleNumber, beforeShiftID,
		models.ShiftStatusClosed, models.ShiftStatusLocked, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying nozzle history: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	quantities := []decimal.Decimal{}
	for rows.Next() {
		var qty decimal.Decimal
		if scanErr := rows.Scan(&qty); scanErr != nil {
			return nil, fmt.Errorf("%w: scanning nozzle history: %v", ErrDatabaseError, scanErr)
		}
		quantities = append(quantities, qty)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating nozzle history rows: %v", ErrDatabaseError, err)
	}
	return quantities, nil
}

// DailyDispensedTotal sums the dispensed volume of all nozzles across all of
// a station's shifts for one date.
func (r *meterRepository) DailyDispensedTotal(stationID int64, recordDate string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(COALESCE(mr.sold_qty, GREATEST(mr.end_reading - mr.start_reading, 0))), 0)
	          FROM meter_readings mr
	          JOIN shifts s ON mr.shift_id = s.id
	          JOIN daily_records dr ON s.daily_record_id = dr.id
	          WHERE dr.station_id = $1 AND dr.record_date = $2
	            AND (mr.sold_qty IS NOT NULL OR mr.end_reading IS NOT NULL)`

	var total decimal.Decimal
	if err := r.db.QueryRow(query, stationID, recordDate).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("%w: summing daily dispensed volume: %v", ErrDatabaseError, err)
	}
	return total, nil
}
