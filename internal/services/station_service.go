package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gasstation_backend/internal/models"
	"gasstation_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Stations ---
var (
	ErrStationValidation = errors.New("station data validation error")
	ErrStationNameTaken  = errors.New("a station with this name already exists")
)

// --- Station DTOs ---
type CreateStationRequest struct {
	Name             string           `json:"name" binding:"required"`
	FuelPrice        decimal.Decimal  `json:"fuel_price"`
	NozzleCount      int              `json:"nozzle_count"`
	TankCount        int              `json:"tank_count"`
	LitersPerPercent *decimal.Decimal `json:"liters_per_percent"`
}

type UpdateFuelPriceRequest struct {
	FuelPrice decimal.Decimal `json:"fuel_price" binding:"required"`
}

// --- StationService Interface ---
type StationService interface {
	CreateStation(req CreateStationRequest) (*models.Station, error)
	GetStationByID(stationID int64) (*models.Station, error)
	GetStations() ([]models.Station, error)
	UpdateFuelPrice(stationID int64, req UpdateFuelPriceRequest) (*models.Station, error)
}

// --- stationService Implementation ---
type stationService struct {
	stationRepo repositories.StationRepository
	db          *sql.DB
	// defaultLitersPerPercent seeds new stations when the request omits the
	// gauge conversion constant.
	defaultLitersPerPercent decimal.Decimal
}

// NewStationService creates a new instance of StationService.
func NewStationService(sr repositories.StationRepository, db *sql.DB, defaultLitersPerPercent decimal.Decimal) StationService {
	return &stationService{
		stationRepo:             sr,
		db:                      db,
		defaultLitersPerPercent: defaultLitersPerPercent,
	}
}

func (s *stationService) CreateStation(req CreateStationRequest) (*models.Station, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrStationValidation)
	}
	if req.FuelPrice.IsNegative() {
		return nil, fmt.Errorf("%w: fuel price cannot be negative", ErrStationValidation)
	}
	if req.NozzleCount <= 0 {
		req.NozzleCount = 4
	}
	if req.TankCount <= 0 {
		req.TankCount = 3
	}

	litersPerPercent := s.defaultLitersPerPercent
	if req.LitersPerPercent != nil {
		if !req.LitersPerPercent.IsPositive() {
			return nil, fmt.Errorf("%w: liters per percent must be positive", ErrStationValidation)
		}
		litersPerPercent = *req.LitersPerPercent
	}

	station := &models.Station{
		Name:             strings.TrimSpace(req.Name),
		FuelPrice:        req.FuelPrice,
		NozzleCount:      req.NozzleCount,
		TankCount:        req.TankCount,
		LitersPerPercent: litersPerPercent,
	}
	createdStation, err := s.stationRepo.CreateStation(s.db, station)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrStationNameTaken
		}
		return nil, fmt.Errorf("failed to create station: %w", err)
	}
	return createdStation, nil
}

func (s *stationService) GetStationByID(stationID int64) (*models.Station, error) {
	station, err := s.stationRepo.GetStationByID(stationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to get station by ID: %w", err)
	}
	return station, nil
}

func (s *stationService) GetStations() ([]models.Station, error) {
	stations, err := s.stationRepo.GetStations()
	if err != nil {
		return nil, fmt.Errorf("failed to get stations: %w", err)
	}
	return stations, nil
}

func (s *stationService) UpdateFuelPrice(stationID int64, req UpdateFuelPriceRequest) (*models.Station, error) {
	if req.FuelPrice.IsNegative() {
		return nil, fmt.Errorf("%w: fuel price cannot be negative", ErrStationValidation)
	}
	station, err := s.stationRepo.UpdateFuelPrice(s.db, stationID, req.FuelPrice)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to update fuel price: %w", err)
	}
	return station, nil
}
