package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gasstation_backend/internal/models"
)

// AnomalyRepository defines the interface for daily anomaly persistence and
// the per-scope scan cooldown state.
type AnomalyRepository interface {
	CreateAnomaly(executor SQLExecutor, anomaly *models.DailyAnomaly) (*models.DailyAnomaly, error)
	ExistsForDate(stationID int64, anomalyDate string) (bool, error)
	GetAnomalies(filters models.AnomalyFilters) ([]models.DailyAnomaly, int, error)
	MarkReviewed(executor SQLExecutor, id int64, reviewedBy string, note *string) (*models.DailyAnomaly, error)
	GetLastScanAt(scope string) (*time.Time, error)
	SetLastScanAt(executor SQLExecutor, scope string, at time.Time) error
}

type anomalyRepository struct {
	db *sql.DB
}

// NewAnomalyRepository creates a new instance of AnomalyRepository.
func NewAnomalyRepository(db *sql.DB) AnomalyRepository {
	return &anomalyRepository{db: db}
}

const selectAnomalyFields = `
	id, station_id, to_char(anomaly_date, 'YYYY-MM-DD'), meter_total, transaction_total,
	difference, severity, note, reviewed_at, reviewed_by, created_at
`

func scanAnomalyRow(row scanner, isList bool) (*models.DailyAnomaly, int, error) {
	var anomaly models.DailyAnomaly
	var totalCount int

	scanDest := []interface{}{
		&anomaly.ID, &anomaly.StationID, &anomaly.AnomalyDate, &anomaly.MeterTotal,
		&anomaly.TransactionTotal, &anomaly.Difference, &anomaly.Severity, &anomaly.Note,
		&anomaly.ReviewedAt, &anomaly.ReviewedBy, &anomaly.CreatedAt,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	err := row.Scan(scanDest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning daily anomaly: %v", ErrDatabaseError, err)
	}
	return &anomaly, totalCount, nil
}

// CreateAnomaly inserts the flag for (station, date). The unique index on
// that pair turns concurrent double-writes into ErrDuplicateKey, which
// callers treat as "already flagged".
func (r *anomalyRepository) CreateAnomaly(executor SQLExecutor, anomaly *models.DailyAnomaly) (*models.DailyAnomaly, error) {
	query := `INSERT INTO daily_anomalies
	            (station_id, anomaly_date, meter_total, transaction_total, difference, severity, note, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at`

	anomaly.CreatedAt = time.Now()
	err := executor.QueryRow(query,
		anomaly.StationID, anomaly.AnomalyDate, anomaly.MeterTotal, anomaly.TransactionTotal,
		anomaly.Difference, anomaly.Severity, anomaly.Note, anomaly.CreatedAt,
	).Scan(&anomaly.ID, &anomaly.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("%w: creating daily anomaly: %v", ErrDatabaseError, err)
	}
	return anomaly, nil
}

func (r *anomalyRepository) ExistsForDate(stationID int64, anomalyDate string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM daily_anomalies WHERE station_id = $1 AND anomaly_date = $2`
	if err := r.db.QueryRow(query, stationID, anomalyDate).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: checking daily anomaly existence: %v", ErrDatabaseError, err)
	}
	return count > 0, nil
}

func (r *anomalyRepository) GetAnomalies(filters models.AnomalyFilters) ([]models.DailyAnomaly, int, error) {
	anomalies := []models.DailyAnomaly{}
	var totalCount int

	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectAnomalyFields + ", COUNT(*) OVER() as total_count FROM daily_anomalies")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.StationID != nil {
		conditions = append(conditions, fmt.Sprintf("station_id = $%d", argCount))
		args = append(args, *filters.StationID)
		argCount++
	}
	if filters.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("anomaly_date >= $%d", argCount))
		args = append(args, *filters.DateFrom)
		argCount++
	}
	if filters.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("anomaly_date <= $%d", argCount))
		args = append(args, *filters.DateTo)
		argCount++
	}
	if filters.OnlyUnreviewed {
		conditions = append(conditions, "reviewed_at IS NULL")
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY anomaly_date DESC, station_id")

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
		return nil, 0, fmt.Errorf("%w: querying daily anomalies: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		anomaly, scannedTotalCount, scanErr := scanAnomalyRow(rows, true)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		anomalies = append(anomalies, *anomaly)
		totalCount = scannedTotalCount
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating daily anomaly rows: %v", ErrDatabaseError, err)
	}
	if len(anomalies) == 0 {
		totalCount = 0
	}
	return anomalies, totalCount, nil
}

func (r *anomalyRepository) MarkReviewed(executor SQLExecutor, id int64, reviewedBy string, note *string) (*models.DailyAnomaly, error) {
	query := `UPDATE daily_anomalies
	          SET reviewed_at = $1, reviewed_by = $2, note = COALESCE($3, note)
	          WHERE id = $4
	          RETURNING ` + selectAnomalyFields

	anomaly, _, err := scanAnomalyRow(r.db.QueryRow(query, time.Now(), reviewedBy, note, id), false)
	return anomaly, err
}

// GetLastScanAt reads the persisted cooldown timestamp for a scan scope
// ("all", or "station:<id>"). Persisting it keeps throttling correct across
// multiple server instances.
func (r *anomalyRepository) GetLastScanAt(scope string) (*time.Time, error) {
	var at time.Time
	query := `SELECT last_scan_at FROM anomaly_scan_state WHERE scope = $1`
	err := r.db.QueryRow(query, scope).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading scan state: %v", ErrDatabaseError, err)
	}
	return &at, nil
}

func (r *anomalyRepository) SetLastScanAt(executor SQLExecutor, scope string, at time.Time) error {
	query := `INSERT INTO anomaly_scan_state (scope, last_scan_at)
	          VALUES ($1, $2)
	          ON CONFLICT (scope) DO UPDATE SET last_scan_at = EXCLUDED.last_scan_at`
	if _, err := executor.Exec(query, scope, at); err != nil {
		return fmt.Errorf("%w: writing scan state: %v", ErrDatabaseError, err)
	}
	return nil
}
