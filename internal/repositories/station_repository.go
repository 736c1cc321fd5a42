package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gasstation_backend/internal/models"

	"github.com/shopspring/decimal"
)

// StationRepository defines the interface for station-related database operations.
type StationRepository interface {
	CreateStation(executor SQLExecutor, station *models.Station) (*models.Station, error)
	GetStationByID(id int64) (*models.Station, error)
	GetStations() ([]models.Station, error)
	UpdateFuelPrice(executor SQLExecutor, id int64, price decimal.Decimal) (*models.Station, error)
}

type stationRepository struct {
	db *sql.DB
}

// NewStationRepository creates a new instance of StationRepository.
func NewStationRepository(db *sql.DB) StationRepository {
	return &stationRepository{db: db}
}

const selectStationFields = `
	id, name, fuel_price, nozzle_count, tank_count, liters_per_percent, created_at, updated_at
`

func scanStationRow(row scanner) (*models.Station, error) {
	var station models.Station
	err := row.Scan(
		&station.ID, &station.Name, &station.FuelPrice, &station.NozzleCount,
		&station.TankCount, &station.LitersPerPercent, &station.CreatedAt, &station.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning station: %v", ErrDatabaseError, err)
	}
	return &station, nil
}

func (r *stationRepository) CreateStation(executor SQLExecutor, station *models.Station) (*models.Station, error) {
	query := `INSERT INTO stations
	            (name, fuel_price, nozzle_count, tank_count, liters_per_percent, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	station.CreatedAt = currentTime
	station.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		station.Name, station.FuelPrice, station.NozzleCount, station.TankCount,
		station.LitersPerPercent, station.CreatedAt, station.UpdatedAt,
	).Scan(&station.ID, &station.CreatedAt, &station.UpdatedAt)

	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("%w: creating station: %v", ErrDatabaseError, err)
	}
	return station, nil
}

func (r *stationRepository) GetStationByID(id int64) (*models.Station, error) {
	query := "SELECT " + selectStationFields + " FROM stations WHERE id = $1"
	return scanStationRow(r.db.QueryRow(query, id))
}

func (r *stationRepository) GetStations() ([]models.Station, error) {
	query := "SELECT " + selectStationFields + " FROM stations ORDER BY id"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying stations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	stations := []models.Station{}
	for rows.Next() {
		station, scanErr := scanStationRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		stations = append(stations, *station)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating station rows: %v", ErrDatabaseError, err)
	}
	return stations, nil
}

func (r *stationRepository) UpdateFuelPrice(executor SQLExecutor, id int64, price decimal.Decimal) (*models.Station, error) {
	query := `UPDATE stations SET fuel_price = $1, updated_at = $2 WHERE id = $3
	          RETURNING ` + selectStationFields
	return scanStationRow(executor.QueryRow(query, price, time.Now(), id))
}
