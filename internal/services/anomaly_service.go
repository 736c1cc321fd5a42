package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gasstation_backend/internal/models"
	"gasstation_backend/internal/repositories"
	"gasstation_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Anomalies ---
var (
	ErrAnomalyNotFound    = errors.New("daily anomaly not found")
	ErrScanOnCooldown     = errors.New("anomaly scan ran recently, still on cooldown")
	ErrAnomalyValidation  = errors.New("anomaly data validation error")
)

// AnomalyConfig tunes both anomaly checks. All values are configuration with
// the defaults below; nothing here is hard policy.
type AnomalyConfig struct {
	HistoryWindow       int             // trailing closed shifts per nozzle average
	WarningPercent      decimal.Decimal // |percent diff| above this is WARNING
	CriticalPercent     decimal.Decimal // |percent diff| at or above this is CRITICAL
	DailyLiterThreshold decimal.Decimal // |meter - transaction| liters above this flags a day
	ScanCooldown        time.Duration
}

// DefaultAnomalyConfig returns the stock tuning: 10-shift window, 30%/60%
// nozzle thresholds, 50-liter daily threshold, 5-minute scan cooldown.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		HistoryWindow:       10,
		WarningPercent:      decimal.NewFromInt(30),
		CriticalPercent:     decimal.NewFromInt(60),
		DailyLiterThreshold: decimal.NewFromInt(50),
		ScanCooldown:        5 * time.Minute,
	}
}

// EvaluateNozzle compares one nozzle's shift volume against its trailing
// history. Returns nil when nothing is anomalous, including when history is
// too thin to average, since this check is advisory it degrades to silence.
func EvaluateNozzle(nozzleNumber int, current decimal.Decimal, history []decimal.Decimal, cfg AnomalyConfig) *models.NozzleAnomaly {
	if len(history) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, q := range history {
		sum = sum.Add(q)
	}
	average := sum.Div(decimal.NewFromInt(int64(len(history))))
	if average.IsZero() {
		return nil
	}

	hundred := decimal.NewFromInt(100)
	percentDiff := current.Sub(average).Div(average).Mul(hundred)
	magnitude := percentDiff.Abs()

	var severity string
	switch {
	case magnitude.GreaterThanOrEqual(cfg.CriticalPercent):
		severity = models.AnomalySeverityCritical
	case magnitude.GreaterThanOrEqual(cfg.WarningPercent):
		severity = models.AnomalySeverityWarning
	default:
		return nil
	}

	return &models.NozzleAnomaly{
		NozzleNumber: nozzleNumber,
		CurrentQty:   current,
		AverageQty:   average,
		PercentDiff:  percentDiff,
		Severity:     severity,
	}
}

// dailySeverity derives the daily anomaly severity from the liter gap:
// CRITICAL once the gap doubles the flag threshold, WARNING otherwise.
func dailySeverity(difference decimal.Decimal, cfg AnomalyConfig) string {
	if difference.Abs().GreaterThanOrEqual(cfg.DailyLiterThreshold.Mul(decimal.NewFromInt(2))) {
		return models.AnomalySeverityCritical
	}
	return models.AnomalySeverityWarning
}

// --- AnomalyService Interface ---
type AnomalyService interface {
	// ScanDailyAnomalies compares meter-derived against transaction-derived
	// daily liters for each station over the trailing `days` days, persisting
	// a DailyAnomaly per divergent (station, date). force bypasses the
	// persisted cooldown (used by the explicit backfill endpoint).
	ScanDailyAnomalies(stationID *int64, days int, force bool) ([]models.DailyAnomaly, error)
	GetAnomalies(filters models.AnomalyFilters) ([]models.DailyAnomaly, int, error)
	ReviewAnomaly(anomalyID int64, reviewedBy string, note *string) (*models.DailyAnomaly, error)
}

// --- anomalyService Implementation ---
type anomalyService struct {
	anomalyRepo repositories.AnomalyRepository
	meterRepo   repositories.MeterRepository
	txRepo      repositories.TransactionRepository
	stationRepo repositories.StationRepository
	db          *sql.DB
	cfg         AnomalyConfig
}

// NewAnomalyService creates a new instance of AnomalyService.
func NewAnomalyService(
	ar repositories.AnomalyRepository,
	mr repositories.MeterRepository,
	tr repositories.TransactionRepository,
	sr repositories.StationRepository,
	db *sql.DB,
	cfg AnomalyConfig,
) AnomalyService {
	return &anomalyService{
		anomalyRepo: ar,
		meterRepo:   mr,
		txRepo:      tr,
		stationRepo: sr,
		db:          db,
		cfg:         cfg,
	}
}

func scanScope(stationID *int64) string {
	if stationID == nil {
		return "all"
	}
	return "station:" + utils.Int64ToStr(*stationID)
}

func (s *anomalyService) ScanDailyAnomalies(stationID *int64, days int, force bool) ([]models.DailyAnomaly, error) {
	if days <= 0 {
		days = 1
	}

	scope := scanScope(stationID)
	if !force {
		lastScan, err := s.anomalyRepo.GetLastScanAt(scope)
		if err != nil {
			return nil, fmt.Errorf("failed to read scan cooldown state: %w", err)
		}
		if lastScan != nil && time.Since(*lastScan) < s.cfg.ScanCooldown {
			return nil, ErrScanOnCooldown
		}
	}

	var stations []models.Station
	if stationID != nil {
		station, err := s.stationRepo.GetStationByID(*stationID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrStationNotFound
			}
			return nil, fmt.Errorf("failed to fetch station for scan: %w", err)
		}
		stations = []models.Station{*station}
	} else {
		var err error
		stations, err = s.stationRepo.GetStations()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch stations for scan: %w", err)
		}
	}

	created := []models.DailyAnomaly{}
	for _, station := range stations {
		for offset := 0; offset < days; offset++ {
			date := time.Now().AddDate(0, 0, -offset).Format("2006-01-02")
			anomaly, err := s.scanStationDate(station, date)
			if err != nil {
				// Advisory subsystem: a failed station-day never aborts the scan.
				utils.LogError(err, fmt.Sprintf("anomaly scan skipped station %d date %s", station.ID, date))
				continue
			}
			if anomaly != nil {
				created = append(created, *anomaly)
			}
		}
	}

	if err := s.anomalyRepo.SetLastScanAt(s.db, scope, time.Now()); err != nil {
		// Cooldown bookkeeping failure is logged and swallowed; the scan
		// result itself already committed.
		utils.LogError(err, "failed to persist anomaly scan timestamp")
	}
	return created, nil
}

func (s *anomalyService) scanStationDate(station models.Station, date string) (*models.DailyAnomaly, error) {
	exists, err := s.anomalyRepo.ExistsForDate(station.ID, date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	meterTotal, err := s.meterRepo.DailyDispensedTotal(station.ID, date)
	if err != nil {
		return nil, err
	}
	transactionTotal, err := s.txRepo.DailyLitersTotal(station.ID, date)
	if err != nil {
		return nil, err
	}

	difference := meterTotal.Sub(transactionTotal)
	if difference.Abs().LessThanOrEqual(s.cfg.DailyLiterThreshold) {
		return nil, nil
	}

	anomaly := &models.DailyAnomaly{
		StationID:        station.ID,
		AnomalyDate:      date,
		MeterTotal:       meterTotal,
		TransactionTotal: transactionTotal,
		Difference:       difference,
		Severity:         dailySeverity(difference, s.cfg),
	}
	createdAnomaly, err := s.anomalyRepo.CreateAnomaly(s.db, anomaly)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// A concurrent scan won the race; the record is advisory, so
			// last-writer-wins is acceptable and this is not an error.
			return nil, nil
		}
		return nil, err
	}
	return createdAnomaly, nil
}

func (s *anomalyService) GetAnomalies(filters models.AnomalyFilters) ([]models.DailyAnomaly, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	anomalies, totalCount, err := s.anomalyRepo.GetAnomalies(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get daily anomalies: %w", err)
	}
	return anomalies, totalCount, nil
}

func (s *anomalyService) ReviewAnomaly(anomalyID int64, reviewedBy string, note *string) (*models.DailyAnomaly, error) {
	if reviewedBy == "" {
		return nil, fmt.Errorf("%w: reviewed_by is required", ErrAnomalyValidation)
	}
	anomaly, err := s.anomalyRepo.MarkReviewed(s.db, anomalyID, reviewedBy, note)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAnomalyNotFound
		}
		return nil, fmt.Errorf("failed to review anomaly: %w", err)
	}
	return anomaly, nil
}
