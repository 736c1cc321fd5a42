package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"gasstation_backend/internal/models"
)

// GaugeRepository defines the interface for tank gauge reading operations.
type GaugeRepository interface {
	CreateReading(executor SQLExecutor, reading *models.GaugeReading) (*models.GaugeReading, error)
	GetByShift(shiftID int64) ([]models.GaugeReading, error)
	LatestPerTank(executor SQLExecutor, shiftID int64, phase string) ([]models.GaugeReading, error)
}

type gaugeRepository struct {
	db *sql.DB
}

// NewGaugeRepository creates a new instance of GaugeRepository.
func NewGaugeRepository(db *sql.DB) GaugeRepository {
	return &gaugeRepository{db: db}
}

const selectGaugeFields = `
	id, station_id, shift_id, tank_number, phase, percentage, recorded_at
`

func scanGaugeRow(row scanner) (*models.GaugeReading, error) {
	var reading models.GaugeReading
	err := row.Scan(
		&reading.ID, &reading.StationID, &reading.ShiftID, &reading.TankNumber,
		&reading.Phase, &reading.Percentage, &reading.RecordedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning gauge reading: %v", ErrDatabaseError, err)
	}
	return &reading, nil
}

// CreateReading appends one gauge capture. History is kept: resubmissions
// insert new rows, and stock computation reads only the latest per tank.
func (r *gaugeRepository) CreateReading(executor SQLExecutor, reading *models.GaugeReading) (*models.GaugeReading, error) {
	query := `INSERT INTO gauge_readings
	            (station_id, shift_id, tank_number, phase, percentage, recorded_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, recorded_at`

	if !models.IsValidGaugePhase(reading.Phase) {
		// Caught here rather than as a CHECK constraint violation from the
		// database.
		return nil, fmt.Errorf("%w: unknown gauge phase %q", ErrDatabaseError, reading.Phase)
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now()
	}
	err := executor.QueryRow(query,
		reading.StationID, reading.ShiftID, reading.TankNumber, reading.Phase,
		reading.Percentage, reading.RecordedAt,
	).Scan(&reading.ID, &reading.RecordedAt)

	if err != nil {
		return nil, fmt.Errorf("%w: creating gauge reading: %v", ErrDatabaseError, err)
	}
	return reading, nil
}

func (r *gaugeRepository) GetByShift(shiftID int64) ([]models.GaugeReading, error) {
	query := "SELECT " + selectGaugeFields + ` FROM gauge_readings
	          WHERE shift_id = $1 ORDER BY phase, tank_number, recorded_at`
	return r.queryReadings(query, shiftID)
}

// LatestPerTank returns the authoritative (most recent) reading per tank for
// the given shift and phase. It takes an executor so the close path can read
// the readings it just wrote inside the same transaction.
func (r *gaugeRepository) LatestPerTank(executor SQLExecutor, shiftID int64, phase string) ([]models.GaugeReading, error) {
	query := `SELECT DISTINCT ON (tank_number) ` + selectGaugeFields + `
	          FROM gauge_readings
	          WHERE shift_id = $1 AND phase = $2
	          ORDER BY tank_number, recorded_at DESC, id DESC`
	return queryGaugeReadings(executor, query, shiftID, phase)
}

func (r *gaugeRepository) queryReadings(query string, args ...interface{}) ([]models.GaugeReading, error) {
	return queryGaugeReadings(r.db, query, args...)
}

func queryGaugeReadings(executor SQLExecutor, query string, args ...interface{}) ([]models.GaugeReading, error) {
	rows, err := executor.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying gauge readings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	readings := []models.GaugeReading{}
	for rows.Next() {
		reading, scanErr := scanGaugeRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		readings = append(readings, *reading)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating gauge reading rows: %v", ErrDatabaseError, err)
	}
	return readings, nil
}
