package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gasstation_backend/internal/models"
)

// ShiftRepository defines the interface for daily record and shift database operations.
type ShiftRepository interface {
	GetOrCreateDailyRecord(executor SQLExecutor, stationID int64, recordDate string) (*models.DailyRecord, error)
	CreateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error)
	GetShiftByID(id int64) (*models.Shift, error)
	GetOpenShiftByStation(stationID int64) (*models.Shift, error)
	GetLastClosedShift(stationID int64) (*models.Shift, error)
	ShiftNumberExists(dailyRecordID int64, shiftNumber int) (bool, error)
	CloseShift(executor SQLExecutor, shift *models.Shift) error
	GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error)
}

type shiftRepository struct {
	db *sql.DB
}

// NewShiftRepository creates a new instance of ShiftRepository.
func NewShiftRepository(db *sql.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

const selectShiftFields = `
	s.id, s.daily_record_id, s.shift_number, s.status, s.opening_stock, s.closing_stock,
	s.carry_over_from_shift_id, s.variance_note, s.created_at, s.closed_at,
	dr.station_id, to_char(dr.record_date, 'YYYY-MM-DD')
`

const shiftJoins = `
	FROM shifts s
	JOIN daily_records dr ON s.daily_record_id = dr.id
`

func scanShiftRow(row scanner, isList bool) (*models.Shift, int, error) {
	var shift models.Shift
	var totalCount int

	scanDest := []interface{}{
		&shift.ID, &shift.DailyRecordID, &shift.ShiftNumber, &shift.Status,
		&shift.OpeningStock, &shift.ClosingStock, &shift.CarryOverFromShiftID,
		&shift.VarianceNote, &shift.CreatedAt, &shift.ClosedAt,
		&shift.StationID, &shift.RecordDate,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	err := row.Scan(scanDest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning shift: %v", ErrDatabaseError, err)
	}
	return &shift, totalCount, nil
}

// GetOrCreateDailyRecord upserts the daily record for (station, date).
// ON CONFLICT DO UPDATE is used instead of DO NOTHING so the row is always
// returned, whether it already existed or not.
func (r *shiftRepository) GetOrCreateDailyRecord(executor SQLExecutor, stationID int64, recordDate string) (*models.DailyRecord, error) {
	query := `INSERT INTO daily_records (station_id, record_date, created_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (station_id, record_date) DO UPDATE SET station_id = EXCLUDED.station_id
	          RETURNING id, station_id, to_char(record_date, 'YYYY-MM-DD'), created_at`

	var record models.DailyRecord
	err := executor.QueryRow(query, stationID, recordDate, time.Now()).Scan(
		&record.ID, &record.StationID, &record.RecordDate, &record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: upserting daily record for station %d on %s: %v", ErrDatabaseError, stationID, recordDate, err)
	}
	return &record, nil
}

func (r *shiftRepository) CreateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	query := `INSERT INTO shifts
	            (daily_record_id, station_id, shift_number, status, opening_stock, carry_over_from_shift_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at`

	shift.CreatedAt = time.Now()
	err := executor.QueryRow(query,
		shift.DailyRecordID, shift.StationID, shift.ShiftNumber, shift.Status,
		shift.OpeningStock, shift.CarryOverFromShiftID, shift.CreatedAt,
	).Scan(&shift.ID, &shift.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err) {
			// Two unique indexes guard this insert: the shift-number key and
			// the single-open-shift index. Callers report them differently.
			if UniqueConstraintName(err) == shiftNumberConstraint {
				return nil, ErrDuplicateShiftNumber
			}
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("%w: creating shift: %v", ErrDatabaseError, err)
	}
	return shift, nil
}

func (r *shiftRepository) GetShiftByID(id int64) (*models.Shift, error) {
	query := "SELECT " + selectShiftFields + shiftJoins + " WHERE s.id = $1"
	shift, _, err := scanShiftRow(r.db.QueryRow(query, id), false)
	return shift, err
}

// GetOpenShiftByStation returns the station's single OPEN shift, or
// ErrNotFound when none is open. The partial unique index on
// (station-scoped) OPEN shifts guarantees at most one row here.
func (r *shiftRepository) GetOpenShiftByStation(stationID int64) (*models.Shift, error) {
	query := "SELECT " + selectShiftFields + shiftJoins +
		" WHERE dr.station_id = $1 AND s.status = $2"
	shift, _, err := scanShiftRow(r.db.QueryRow(query, stationID, models.ShiftStatusOpen), false)
	return shift, err
}

// GetLastClosedShift returns the most recently closed shift for the station,
// used to seed the next shift's opening stock (carry-over).
func (r *shiftRepository) GetLastClosedShift(stationID int64) (*models.Shift, error) {
	query := "SELECT " + selectShiftFields + shiftJoins +
		` WHERE dr.station_id = $1 AND s.status IN ($2, $3)
		  ORDER BY s.closed_at DESC LIMIT 1`
	shift, _, err := scanShiftRow(r.db.QueryRow(query, stationID, models.ShiftStatusClosed, models.ShiftStatusLocked), false)
	return shift, err
}

func (r *shiftRepository) ShiftNumberExists(dailyRecordID int64, shiftNumber int) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM shifts WHERE daily_record_id = $1 AND shift_number = $2`
	if err := r.db.QueryRow(query, dailyRecordID, shiftNumber).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: checking shift number: %v", ErrDatabaseError, err)
	}
	return count > 0, nil
}

// CloseShift persists the CLOSED transition. The WHERE clause on status keeps
// the update from racing: a shift already closed by another writer matches no
// rows and surfaces as ErrNotFound.
func (r *shiftRepository) CloseShift(executor SQLExecutor, shift *models.Shift) error {
	query := `UPDATE shifts SET
	            status = $1, closing_stock = $2, variance_note = $3, closed_at = $4
	          WHERE id = $5 AND status = $6
	          RETURNING closed_at`

	err := executor.QueryRow(query,
		models.ShiftStatusClosed, shift.ClosingStock, shift.VarianceNote, shift.ClosedAt,
		shift.ID, models.ShiftStatusOpen,
	).Scan(&shift.ClosedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: closing shift ID %d: %v", ErrDatabaseError, shift.ID, err)
	}
	shift.Status = models.ShiftStatusClosed
	return nil
}

func (r *shiftRepository) GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error) {
	shifts := []models.Shift{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectShiftFields + ", COUNT(*) OVER() as total_count " + shiftJoins)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.StationID != nil {
		conditions = append(conditions, fmt.Sprintf("dr.station_id = $%d", argCount))
		args = append(args, *filters.StationID)
		argCount++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("dr.record_date >= $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("dr.record_date <= $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY dr.record_date DESC, s.shift_number DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying shifts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		shift, scannedTotalCount, scanErr := scanShiftRow(rows, true)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		shifts = append(shifts, *shift)
		totalCount = scannedTotalCount
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating shift rows: %v", ErrDatabaseError, err)
	}
	if len(shifts) == 0 {
		totalCount = 0
	}
	return shifts, totalCount, nil
}
