package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"gasstation_backend/internal/models"
)

// ReportRepository defines the interface for aggregated reporting queries.
type ReportRepository interface {
	GetDailySummaries(stationID *int64, dateFrom, dateTo string) ([]models.DailySummary, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// GetDailySummaries aggregates shift volumes, reconciliation sums, transaction
// liters and the anomaly flag per (station, date) over the requested range.
func (r *reportRepository) GetDailySummaries(stationID *int64, dateFrom, dateTo string) ([]models.DailySummary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
	SELECT st.id, st.name, to_char(dr.record_date, 'YYYY-MM-DD'),
	       COUNT(s.id),
	       COUNT(s.id) FILTER (WHERE s.status IN ('CLOSED', 'LOCKED')),
	       COALESCE(SUM(r.total_liters), 0),
	       COALESCE((SELECT SUM(ft.liters) FROM fuel_transactions ft
	                 WHERE ft.station_id = st.id
	                   AND ft.sold_at >= dr.record_date AND ft.sold_at < dr.record_date + INTERVAL '1 day'), 0),
	       COALESCE(SUM(r.total_expected), 0),
	       COALESCE(SUM(r.total_received), 0),
	       COALESCE(SUM(r.variance), 0),
	       EXISTS(SELECT 1 FROM daily_anomalies da
	              WHERE da.station_id = st.id AND da.anomaly_date = dr.record_date)
	FROM daily_records dr
	JOIN stations st ON dr.station_id = st.id
	LEFT JOIN shifts s ON s.daily_record_id = dr.id
	LEFT JOIN shift_reconciliations r ON r.shift_id = s.id
	WHERE dr.record_date >= $1 AND dr.record_date <= $2`)

	args := []interface{}{dateFrom, dateTo}
	if stationID != nil {
		queryBuilder.WriteString(" AND st.id = $3")
		args = append(args, *stationID)
	}
	queryBuilder.WriteString(`
	GROUP BY st.id, st.name, dr.record_date
	ORDER BY dr.record_date DESC, st.id`)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying daily summaries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	summaries := []models.DailySummary{}
	for rows.Next() {
		var s models.DailySummary
		if scanErr := rows.Scan(
			&s.StationID, &s.StationName, &s.RecordDate, &s.ShiftsTotal, &s.ShiftsClosed,
			&s.MeterLiters, &s.TransactionLiters, &s.TotalExpected, &s.TotalReceived,
			&s.Variance, &s.HasAnomaly,
		); scanErr != nil {
			return nil, fmt.Errorf("%w: scanning daily summary: %v", ErrDatabaseError, scanErr)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating daily summary rows: %v", ErrDatabaseError, err)
	}
	return summaries, nil
}
