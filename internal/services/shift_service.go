package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gasstation_backend/internal/models"
	"gasstation_backend/internal/repositories"
	"gasstation_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Shifts ---
var (
	ErrStationNotFound     = errors.New("station not found")
	ErrShiftNotFound       = errors.New("shift not found")
	ErrShiftAlreadyOpen    = errors.New("an open shift already exists for this station")
	ErrShiftNumberTaken    = errors.New("a shift with this number already exists for today")
	ErrShiftNotOpen        = errors.New("shift is not open")
	ErrShiftValidation     = errors.New("shift validation error")
	ErrReadingOutOfRange   = errors.New("reading out of range")
	ErrIncompleteReadings  = errors.New("incomplete readings")
	ErrAnomalyNoteRequired = errors.New("critical volume anomaly detected, a variance note is required to close")
)

// --- Shift DTOs ---
type MeterStartInput struct {
	NozzleNumber int             `json:"nozzle_number" binding:"required"`
	StartReading decimal.Decimal `json:"start_reading"`
}

type MeterEndInput struct {
	NozzleNumber int              `json:"nozzle_number" binding:"required"`
	EndReading   decimal.Decimal  `json:"end_reading"`
	SoldQty      *decimal.Decimal `json:"sold_qty"` // operator override, wins over end-start
}

type GaugeInput struct {
	TankNumber int             `json:"tank_number" binding:"required"`
	Percentage decimal.Decimal `json:"percentage"`
}

type OpenShiftRequest struct {
	ShiftNumber int               `json:"shift_number" binding:"required"`
	Meters      []MeterStartInput `json:"meters" binding:"required"`
	Gauges      []GaugeInput      `json:"gauges" binding:"required"`
}

type CloseReconciliationInput struct {
	CashReceived        decimal.Decimal `json:"cash_received"`
	CreditReceived      decimal.Decimal `json:"credit_received"`
	TransferReceived    decimal.Decimal `json:"transfer_received"`
	ExpectedOtherAmount decimal.Decimal `json:"expected_other_amount"`
	VarianceNote        *string         `json:"variance_note"`
}

type CloseShiftRequest struct {
	Meters []MeterEndInput `json:"meters" binding:"required"`
	Gauges []GaugeInput    `json:"gauges" binding:"required"`
	// Reconciliation inputs default to zero when omitted: the shift still
	// closes and the variance then shows the full expected amount as a
	// shortfall, forcing the operator to reconcile after the fact.
	Reconciliation *CloseReconciliationInput `json:"reconciliation"`
}

// CloseShiftSummary is returned to the caller after a successful close.
type CloseShiftSummary struct {
	ShiftID        int64                  `json:"shift_id"`
	Liters         decimal.Decimal        `json:"liters"`
	Expected       decimal.Decimal        `json:"expected"`
	Received       decimal.Decimal        `json:"received"`
	Variance       decimal.Decimal        `json:"variance"`
	VarianceStatus string                 `json:"variance_status"`
	Anomalies      []models.NozzleAnomaly `json:"anomalies,omitempty"`
}

// ShiftConfig carries the tunables of the close path.
type ShiftConfig struct {
	Thresholds VarianceThresholds
	Anomaly    AnomalyConfig
	// RequireAnomalyNote gates closure on a non-empty variance note when a
	// CRITICAL nozzle anomaly is present. Off by default (permissive close).
	RequireAnomalyNote bool
}

// DefaultShiftConfig returns the permissive defaults.
func DefaultShiftConfig() ShiftConfig {
	return ShiftConfig{
		Thresholds:         DefaultVarianceThresholds(),
		Anomaly:            DefaultAnomalyConfig(),
		RequireAnomalyNote: false,
	}
}

// --- ShiftService Interface ---
type ShiftService interface {
	OpenShift(stationID int64, req OpenShiftRequest) (*models.Shift, error)
	CloseShift(shiftID int64, req CloseShiftRequest) (*CloseShiftSummary, error)
	GetCurrentShift(stationID int64) (*models.Shift, error) // nil, nil when no shift is open
	GetShiftByID(shiftID int64) (*models.Shift, error)
	GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error)
}

// --- shiftService Implementation ---
type shiftService struct {
	shiftRepo   repositories.ShiftRepository
	meterRepo   repositories.MeterRepository
	gaugeRepo   repositories.GaugeRepository
	reconRepo   repositories.ReconciliationRepository
	stationRepo repositories.StationRepository
	db          *sql.DB
	cfg         ShiftConfig
}

// NewShiftService creates a new instance of ShiftService.
func NewShiftService(
	shr repositories.ShiftRepository,
	mr repositories.MeterRepository,
	gr repositories.GaugeRepository,
	rr repositories.ReconciliationRepository,
	str repositories.StationRepository,
	db *sql.DB,
	cfg ShiftConfig,
) ShiftService {
	return &shiftService{
		shiftRepo:   shr,
		meterRepo:   mr,
		gaugeRepo:   gr,
		reconRepo:   rr,
		stationRepo: str,
		db:          db,
		cfg:         cfg,
	}
}

// --- validation helpers (pure, tested directly) ---

// validateStartMeters checks nozzle numbers against the station's configured
// count, rejects negative counters and duplicate nozzles.
func validateStartMeters(meters []MeterStartInput, nozzleCount int) error {
	if len(meters) == 0 {
		return fmt.Errorf("%w: at least one start meter reading is required", ErrIncompleteReadings)
	}
	seen := map[int]bool{}
	for _, m := range meters {
		if m.NozzleNumber < 1 || m.NozzleNumber > nozzleCount {
			return fmt.Errorf("%w: nozzle %d outside 1..%d", ErrReadingOutOfRange, m.NozzleNumber, nozzleCount)
		}
		if seen[m.NozzleNumber] {
			return fmt.Errorf("%w: duplicate reading for nozzle %d", ErrReadingOutOfRange, m.NozzleNumber)
		}
		seen[m.NozzleNumber] = true
		if m.StartReading.IsNegative() {
			return fmt.Errorf("%w: nozzle %d start reading is negative", ErrReadingOutOfRange, m.NozzleNumber)
		}
	}
	return nil
}

// validateGauges rejects tank numbers outside the station's configured count
// and percentages outside 0..100. Nothing is written when this fails.
func validateGauges(gauges []GaugeInput, tankCount int) error {
	hundred := decimal.NewFromInt(100)
	for _, g := range gauges {
		if g.TankNumber < 1 || g.TankNumber > tankCount {
			return fmt.Errorf("%w: tank %d outside 1..%d", ErrReadingOutOfRange, g.TankNumber, tankCount)
		}
		if g.Percentage.IsNegative() || g.Percentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: tank %d percentage %s outside 0..100", ErrReadingOutOfRange, g.TankNumber, g.Percentage)
		}
	}
	return nil
}

// validateEndMeters checks every end reading against its start: every nozzle
// with a start needs an end, end >= start, and no negative overrides.
// Missing nozzles are reported by number so the operator can fix and retry.
func validateEndMeters(starts []models.MeterReading, ends []MeterEndInput) error {
	startByNozzle := map[int]models.MeterReading{}
	for _, s := range starts {
		startByNozzle[s.NozzleNumber] = s
	}

	endByNozzle := map[int]MeterEndInput{}
	for _, e := range ends {
		if _, ok := startByNozzle[e.NozzleNumber]; !ok {
			return fmt.Errorf("%w: nozzle %d has no start reading for this shift", ErrReadingOutOfRange, e.NozzleNumber)
		}
		endByNozzle[e.NozzleNumber] = e
	}

	var missing []int
	for nozzle := range startByNozzle {
		if _, ok := endByNozzle[nozzle]; !ok {
			missing = append(missing, nozzle)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		parts := make([]string, len(missing))
		for i, n := range missing {
			parts[i] = fmt.Sprintf("%d", n)
		}
		return fmt.Errorf("%w: missing end reading for nozzle(s) %s", ErrIncompleteReadings, strings.Join(parts, ", "))
	}

	for nozzle, e := range endByNozzle {
		if e.EndReading.LessThan(startByNozzle[nozzle].StartReading) {
			return fmt.Errorf("%w: nozzle %d end reading %s below start reading %s",
				ErrReadingOutOfRange, nozzle, e.EndReading, startByNozzle[nozzle].StartReading)
		}
		if e.SoldQty != nil && e.SoldQty.IsNegative() {
			return fmt.Errorf("%w: nozzle %d sold quantity is negative", ErrReadingOutOfRange, nozzle)
		}
	}
	return nil
}

// validateEndGauges requires one reading per configured tank at close.
func validateEndGauges(gauges []GaugeInput, tankCount int) error {
	if err := validateGauges(gauges, tankCount); err != nil {
		return err
	}
	tanks := map[int]bool{}
	for _, g := range gauges {
		tanks[g.TankNumber] = true
	}
	if len(tanks) < tankCount {
		return fmt.Errorf("%w: end gauge readings cover %d of %d tanks", ErrIncompleteReadings, len(tanks), tankCount)
	}
	return nil
}

// carryOverStock picks the opening stock for a new shift: the predecessor's
// closing stock when one exists (carry-over continuity), otherwise the stock
// implied by the fresh start gauges. Gauges are always recorded for audit
// either way.
func carryOverStock(prev *models.Shift, gaugeStock decimal.Decimal) (decimal.NullDecimal, *int64) {
	if prev != nil && prev.ClosingStock.Valid {
		prevID := prev.ID
		return prev.ClosingStock, &prevID
	}
	return decimal.NullDecimal{Decimal: gaugeStock, Valid: true}, nil
}

// gaugeStockFromInputs converts request gauges (last value per tank wins) to
// liters. Mirrors the ledger's latest-per-tank rule for persisted readings.
func gaugeStockFromInputs(gauges []GaugeInput, litersPerPercent decimal.Decimal) decimal.Decimal {
	latest := map[int]decimal.Decimal{}
	for _, g := range gauges {
		latest[g.TankNumber] = g.Percentage
	}
	total := decimal.Zero
	for _, pct := range latest {
		total = total.Add(pct.Mul(litersPerPercent))
	}
	return total
}

// --- ShiftService Method Implementations ---

func (s *shiftService) OpenShift(stationID int64, req OpenShiftRequest) (*models.Shift, error) {
	station, err := s.stationRepo.GetStationByID(stationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to fetch station: %w", err)
	}

	if req.ShiftNumber < 1 {
		return nil, fmt.Errorf("%w: shift number must be positive", ErrShiftValidation)
	}
	if err := validateStartMeters(req.Meters, station.NozzleCount); err != nil {
		return nil, err
	}
	if len(req.Gauges) == 0 {
		return nil, fmt.Errorf("%w: start gauge readings are required", ErrIncompleteReadings)
	}
	if err := validateGauges(req.Gauges, station.TankCount); err != nil {
		return nil, err
	}

	// Pre-checks. The partial unique index on OPEN shifts is the real
	// guarantee; these exist to give callers a precise error.
	if _, err := s.shiftRepo.GetOpenShiftByStation(stationID); err == nil {
		return nil, ErrShiftAlreadyOpen
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for open shift: %w", err)
	}

	var prevShift *models.Shift
	prevShift, err = s.shiftRepo.GetLastClosedShift(stationID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to fetch previous shift: %w", err)
		}
		prevShift = nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin open-shift transaction: %w", err)
	}
	defer tx.Rollback()

	today := time.Now().Format("2006-01-02")
	dailyRecord, err := s.shiftRepo.GetOrCreateDailyRecord(tx, stationID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily record: %w", err)
	}

	taken, err := s.shiftRepo.ShiftNumberExists(dailyRecord.ID, req.ShiftNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check shift number: %w", err)
	}
	if taken {
		return nil, ErrShiftNumberTaken
	}

	gaugeStock := gaugeStockFromInputs(req.Gauges, station.LitersPerPercent)
	openingStock, carryOverID := carryOverStock(prevShift, gaugeStock)

	shift := &models.Shift{
		DailyRecordID:        dailyRecord.ID,
		StationID:            stationID,
		ShiftNumber:          req.ShiftNumber,
		Status:               models.ShiftStatusOpen,
		OpeningStock:         openingStock,
		CarryOverFromShiftID: carryOverID,
	}
	createdShift, err := s.shiftRepo.CreateShift(tx, shift)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateShiftNumber) {
			// Lost the race after the ShiftNumberExists pre-check.
			return nil, ErrShiftNumberTaken
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// The single-open-shift index: another open shift landed first.
			return nil, ErrShiftAlreadyOpen
		}
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}

	for _, m := range req.Meters {
		if _, err := s.meterRepo.UpsertStart(tx, createdShift.ID, m.NozzleNumber, m.StartReading); err != nil {
			return nil, fmt.Errorf("failed to record start meter for nozzle %d: %w", m.NozzleNumber, err)
		}
	}
	for _, g := range req.Gauges {
		reading := &models.GaugeReading{
			StationID:  stationID,
			ShiftID:    createdShift.ID,
			TankNumber: g.TankNumber,
			Phase:      models.GaugePhaseStart,
			Percentage: g.Percentage,
		}
		if _, err := s.gaugeRepo.CreateReading(tx, reading); err != nil {
			return nil, fmt.Errorf("failed to record start gauge for tank %d: %w", g.TankNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit open-shift transaction: %w", err)
	}

	utils.LogInfo("shift opened", map[string]interface{}{
		"station_id": stationID, "shift_id": createdShift.ID, "shift_number": req.ShiftNumber,
	})
	return s.shiftRepo.GetShiftByID(createdShift.ID)
}

func (s *shiftService) CloseShift(shiftID int64, req CloseShiftRequest) (*CloseShiftSummary, error) {
	shift, err := s.shiftRepo.GetShiftByID(shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to fetch shift: %w", err)
	}
	if shift.Status != models.ShiftStatusOpen {
		return nil, ErrShiftNotOpen
	}

	station, err := s.stationRepo.GetStationByID(shift.StationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch station for shift: %w", err)
	}

	startReadings, err := s.meterRepo.GetByShift(shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meter readings: %w", err)
	}

	// All validation happens before any write; a rejected close commits nothing.
	if err := validateEndMeters(startReadings, req.Meters); err != nil {
		return nil, err
	}
	if err := validateEndGauges(req.Gauges, station.TankCount); err != nil {
		return nil, err
	}

	reconInput := ReconciliationInput{}
	var varianceNote *string
	if req.Reconciliation != nil {
		reconInput = ReconciliationInput{
			CashReceived:        req.Reconciliation.CashReceived,
			CreditReceived:      req.Reconciliation.CreditReceived,
			TransferReceived:    req.Reconciliation.TransferReceived,
			ExpectedOtherAmount: req.Reconciliation.ExpectedOtherAmount,
		}
		if req.Reconciliation.VarianceNote != nil {
			// Blank notes are stored as NULL, not empty strings.
			varianceNote = utils.NewNullString(strings.TrimSpace(*req.Reconciliation.VarianceNote))
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin close-shift transaction: %w", err)
	}
	defer tx.Rollback()

	updatedReadings := make([]models.MeterReading, 0, len(req.Meters))
	for _, m := range req.Meters {
		var soldQty decimal.NullDecimal
		if m.SoldQty != nil {
			soldQty = decimal.NullDecimal{Decimal: *m.SoldQty, Valid: true}
		}
		updated, upsertErr := s.meterRepo.UpsertEnd(tx, shiftID, m.NozzleNumber, m.EndReading, soldQty)
		if upsertErr != nil {
			return nil, fmt.Errorf("failed to record end meter for nozzle %d: %w", m.NozzleNumber, upsertErr)
		}
		updatedReadings = append(updatedReadings, *updated)
	}
	for _, g := range req.Gauges {
		reading := &models.GaugeReading{
			StationID:  shift.StationID,
			ShiftID:    shiftID,
			TankNumber: g.TankNumber,
			Phase:      models.GaugePhaseEnd,
			Percentage: g.Percentage,
		}
		if _, gErr := s.gaugeRepo.CreateReading(tx, reading); gErr != nil {
			return nil, fmt.Errorf("failed to record end gauge for tank %d: %w", g.TankNumber, gErr)
		}
	}

	totalLiters := ShiftTotal(updatedReadings)

	// Closing stock comes from the persisted readings, not the request:
	// the latest capture per tank is authoritative even when a tank was
	// re-submitted within this or an earlier close attempt.
	endGauges, err := s.gaugeRepo.LatestPerTank(tx, shiftID, models.GaugePhaseEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch end gauge readings: %w", err)
	}
	closingStock := StockLiters(endGauges, station.LitersPerPercent)

	// Nozzle anomaly evaluation is advisory: history failures degrade to
	// "nothing flagged" and never block the close path.
	anomalies := s.evaluateNozzleAnomalies(shift, updatedReadings)
	if s.cfg.RequireAnomalyNote && hasCriticalAnomaly(anomalies) && (varianceNote == nil || strings.TrimSpace(*varianceNote) == "") {
		return nil, ErrAnomalyNoteRequired
	}

	reconciliation := ComputeReconciliation(totalLiters, station.FuelPrice, reconInput, s.cfg.Thresholds)
	reconciliation.ShiftID = shiftID
	if _, err := s.reconRepo.Upsert(tx, &reconciliation); err != nil {
		return nil, fmt.Errorf("failed to persist reconciliation: %w", err)
	}

	closedAt := time.Now()
	shift.ClosingStock = decimal.NullDecimal{Decimal: closingStock, Valid: true}
	shift.VarianceNote = varianceNote
	shift.ClosedAt = &closedAt
	if err := s.shiftRepo.CloseShift(tx, shift); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Raced with another close of the same shift.
			return nil, ErrShiftNotOpen
		}
		return nil, fmt.Errorf("failed to close shift: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit close-shift transaction: %w", err)
	}

	utils.LogInfo("shift closed", map[string]interface{}{
		"station_id": shift.StationID, "shift_id": shiftID,
		"liters": totalLiters.String(), "variance": reconciliation.Variance.String(),
		"variance_status": reconciliation.VarianceStatus,
	})

	return &CloseShiftSummary{
		ShiftID:        shiftID,
		Liters:         totalLiters,
		Expected:       reconciliation.TotalExpected,
		Received:       reconciliation.TotalReceived,
		Variance:       reconciliation.Variance,
		VarianceStatus: reconciliation.VarianceStatus,
		Anomalies:      anomalies,
	}, nil
}

func (s *shiftService) evaluateNozzleAnomalies(shift *models.Shift, readings []models.MeterReading) []models.NozzleAnomaly {
	anomalies := []models.NozzleAnomaly{}
	for _, reading := range readings {
		history, err := s.meterRepo.RecentSoldQuantities(shift.StationID, reading.NozzleNumber, shift.ID, s.cfg.Anomaly.HistoryWindow)
		if err != nil {
			utils.LogError(err, fmt.Sprintf("nozzle %d anomaly check skipped", reading.NozzleNumber))
			continue
		}
		if anomaly := EvaluateNozzle(reading.NozzleNumber, DispensedVolume(reading), history, s.cfg.Anomaly); anomaly != nil {
			anomalies = append(anomalies, *anomaly)
		}
	}
	return anomalies
}

func hasCriticalAnomaly(anomalies []models.NozzleAnomaly) bool {
	for _, a := range anomalies {
		if a.Severity == models.AnomalySeverityCritical {
			return true
		}
	}
	return false
}

func (s *shiftService) GetCurrentShift(stationID int64) (*models.Shift, error) {
	if _, err := s.stationRepo.GetStationByID(stationID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to fetch station: %w", err)
	}

	shift, err := s.shiftRepo.GetOpenShiftByStation(stationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch current shift: %w", err)
	}
	return s.embedShiftDetail(shift)
}

func (s *shiftService) GetShiftByID(shiftID int64) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetShiftByID(shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to fetch shift: %w", err)
	}
	return s.embedShiftDetail(shift)
}

// embedShiftDetail attaches meters, gauges and reconciliation to a shift.
func (s *shiftService) embedShiftDetail(shift *models.Shift) (*models.Shift, error) {
	meters, err := s.meterRepo.GetByShift(shift.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift meters: %w", err)
	}
	shift.Meters = meters

	gauges, err := s.gaugeRepo.GetByShift(shift.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shift gauges: %w", err)
	}
	shift.Gauges = gauges

	reconciliation, err := s.reconRepo.GetByShiftID(shift.ID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to fetch shift reconciliation: %w", err)
		}
	} else {
		shift.Reconciliation = reconciliation
	}
	return shift, nil
}

func (s *shiftService) GetShifts(filters models.ShiftFilters) ([]models.Shift, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 10
	}
	if filters.Status != nil && *filters.Status != "" && !models.IsValidShiftStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: invalid status '%s'", ErrShiftValidation, *filters.Status)
	}
	shifts, totalCount, err := s.shiftRepo.GetShifts(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get shifts: %w", err)
	}
	return shifts, totalCount, nil
}
