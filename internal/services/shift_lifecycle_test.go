package services

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"gasstation_backend/internal/models"
	"gasstation_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- transaction stub ---
// The shift service opens real *sql.Tx transactions; this driver gives it a
// database whose Begin/Commit/Rollback succeed without a server, while all
// row access goes through the in-memory repositories below.

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubOnce sync.Once

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubOnce.Do(func() { sql.Register("shiftstub", stubDriver{}) })
	db, err := sql.Open("shiftstub", "")
	if err != nil {
		t.Fatalf("opening stub database: %v", err)
	}
	return db
}

// --- in-memory repositories ---

type memStationRepo struct {
	stations map[int64]models.Station
}

func (r *memStationRepo) CreateStation(repositories.SQLExecutor, *models.Station) (*models.Station, error) {
	return nil, errors.New("not used")
}

func (r *memStationRepo) GetStationByID(id int64) (*models.Station, error) {
	station, ok := r.stations[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &station, nil
}

func (r *memStationRepo) GetStations() ([]models.Station, error) {
	return nil, errors.New("not used")
}

func (r *memStationRepo) UpdateFuelPrice(repositories.SQLExecutor, int64, decimal.Decimal) (*models.Station, error) {
	return nil, errors.New("not used")
}

type memShiftRepo struct {
	nextRecordID int64
	nextShiftID  int64
	records      map[string]*models.DailyRecord
	shifts       map[int64]*models.Shift
	createErr    error // forced CreateShift failure, simulating a lost race
}

func newMemShiftRepo() *memShiftRepo {
	return &memShiftRepo{
		records: map[string]*models.DailyRecord{},
		shifts:  map[int64]*models.Shift{},
	}
}

func (r *memShiftRepo) GetOrCreateDailyRecord(_ repositories.SQLExecutor, stationID int64, recordDate string) (*models.DailyRecord, error) {
	key := fmt.Sprintf("%d:%s", stationID, recordDate)
	if record, ok := r.records[key]; ok {
		return record, nil
	}
	r.nextRecordID++
	record := &models.DailyRecord{ID: r.nextRecordID, StationID: stationID, RecordDate: recordDate}
	r.records[key] = record
	return record, nil
}

func (r *memShiftRepo) CreateShift(_ repositories.SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextShiftID++
	shift.ID = r.nextShiftID
	shift.CreatedAt = time.Now()
	stored := *shift
	r.shifts[shift.ID] = &stored
	return shift, nil
}

func (r *memShiftRepo) GetShiftByID(id int64) (*models.Shift, error) {
	shift, ok := r.shifts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *shift
	return &copied, nil
}

func (r *memShiftRepo) GetOpenShiftByStation(stationID int64) (*models.Shift, error) {
	for _, shift := range r.shifts {
		if shift.StationID == stationID && shift.Status == models.ShiftStatusOpen {
			copied := *shift
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memShiftRepo) GetLastClosedShift(stationID int64) (*models.Shift, error) {
	var latest *models.Shift
	for _, shift := range r.shifts {
		if shift.StationID != stationID || shift.ClosedAt == nil {
			continue
		}
		if shift.Status != models.ShiftStatusClosed && shift.Status != models.ShiftStatusLocked {
			continue
		}
		if latest == nil || shift.ClosedAt.After(*latest.ClosedAt) {
			latest = shift
		}
	}
	if latest == nil {
		return nil, repositories.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *memShiftRepo) ShiftNumberExists(dailyRecordID int64, shiftNumber int) (bool, error) {
	for _, shift := range r.shifts {
		if shift.DailyRecordID == dailyRecordID && shift.ShiftNumber == shiftNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *memShiftRepo) CloseShift(_ repositories.SQLExecutor, shift *models.Shift) error {
	stored, ok := r.shifts[shift.ID]
	if !ok || stored.Status != models.ShiftStatusOpen {
		return repositories.ErrNotFound
	}
	stored.Status = models.ShiftStatusClosed
	stored.ClosingStock = shift.ClosingStock
	stored.VarianceNote = shift.VarianceNote
	stored.ClosedAt = shift.ClosedAt
	shift.Status = models.ShiftStatusClosed
	return nil
}

func (r *memShiftRepo) GetShifts(models.ShiftFilters) ([]models.Shift, int, error) {
	return nil, 0, errors.New("not used")
}

type memMeterRepo struct {
	readings map[int64]map[int]*models.MeterReading
}

func newMemMeterRepo() *memMeterRepo {
	return &memMeterRepo{readings: map[int64]map[int]*models.MeterReading{}}
}

func (r *memMeterRepo) UpsertStart(_ repositories.SQLExecutor, shiftID int64, nozzleNumber int, reading decimal.Decimal) (*models.MeterReading, error) {
	if r.readings[shiftID] == nil {
		r.readings[shiftID] = map[int]*models.MeterReading{}
	}
	row := &models.MeterReading{ShiftID: shiftID, NozzleNumber: nozzleNumber, StartReading: reading}
	r.readings[shiftID][nozzleNumber] = row
	copied := *row
	return &copied, nil
}

func (r *memMeterRepo) UpsertEnd(_ repositories.SQLExecutor, shiftID int64, nozzleNumber int, endReading decimal.Decimal, soldQty decimal.NullDecimal) (*models.MeterReading, error) {
	row, ok := r.readings[shiftID][nozzleNumber]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	row.EndReading = decimal.NullDecimal{Decimal: endReading, Valid: true}
	row.SoldQty = soldQty
	copied := *row
	return &copied, nil
}

func (r *memMeterRepo) GetByShift(shiftID int64) ([]models.MeterReading, error) {
	rows := []models.MeterReading{}
	for _, row := range r.readings[shiftID] {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].NozzleNumber < rows[j].NozzleNumber })
	return rows, nil
}

func (r *memMeterRepo) RecentSoldQuantities(int64, int, int64, int) ([]decimal.Decimal, error) {
	return nil, nil
}

func (r *memMeterRepo) DailyDispensedTotal(int64, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// memGaugeRepo enforces the same phase list as the gauge_readings CHECK
// constraint, so a service writing an unknown phase marker fails here the
// way it would against the real schema.
type memGaugeRepo struct {
	nextID int64
	rows   []models.GaugeReading
}

func (r *memGaugeRepo) CreateReading(_ repositories.SQLExecutor, reading *models.GaugeReading) (*models.GaugeReading, error) {
	if reading.Phase != "START" && reading.Phase != "END" {
		return nil, fmt.Errorf("%w: phase %q violates check constraint", repositories.ErrDatabaseError, reading.Phase)
	}
	r.nextID++
	reading.ID = r.nextID
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now()
	}
	r.rows = append(r.rows, *reading)
	copied := *reading
	return &copied, nil
}

func (r *memGaugeRepo) GetByShift(shiftID int64) ([]models.GaugeReading, error) {
	rows := []models.GaugeReading{}
	for _, row := range r.rows {
		if row.ShiftID == shiftID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (r *memGaugeRepo) LatestPerTank(_ repositories.SQLExecutor, shiftID int64, phase string) ([]models.GaugeReading, error) {
	latest := map[int]models.GaugeReading{}
	for _, row := range r.rows { // rows are appended in insertion order
		if row.ShiftID == shiftID && row.Phase == phase {
			latest[row.TankNumber] = row
		}
	}
	rows := []models.GaugeReading{}
	for _, row := range latest {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TankNumber < rows[j].TankNumber })
	return rows, nil
}

type memReconRepo struct {
	recs map[int64]*models.ShiftReconciliation
}

func newMemReconRepo() *memReconRepo {
	return &memReconRepo{recs: map[int64]*models.ShiftReconciliation{}}
}

func (r *memReconRepo) Upsert(_ repositories.SQLExecutor, rec *models.ShiftReconciliation) (*models.ShiftReconciliation, error) {
	stored := *rec
	r.recs[rec.ShiftID] = &stored
	copied := stored
	return &copied, nil
}

func (r *memReconRepo) GetByShiftID(shiftID int64) (*models.ShiftReconciliation, error) {
	rec, ok := r.recs[shiftID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

// --- fixture ---

type lifecycleFixture struct {
	service  ShiftService
	shifts   *memShiftRepo
	meters   *memMeterRepo
	gauges   *memGaugeRepo
	recons   *memReconRepo
	stations *memStationRepo
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	f := &lifecycleFixture{
		shifts: newMemShiftRepo(),
		meters: newMemMeterRepo(),
		gauges: &memGaugeRepo{},
		recons: newMemReconRepo(),
		stations: &memStationRepo{stations: map[int64]models.Station{
			1: {
				ID:               1,
				Name:             "North Station",
				FuelPrice:        dec("31.34"),
				NozzleCount:      2,
				TankCount:        3,
				LitersPerPercent: dec("98"),
			},
		}},
	}
	f.service = NewShiftService(f.shifts, f.meters, f.gauges, f.recons, f.stations, newStubDB(t), DefaultShiftConfig())
	return f
}

func openShiftOne(t *testing.T, f *lifecycleFixture) *models.Shift {
	t.Helper()
	shift, err := f.service.OpenShift(1, OpenShiftRequest{
		ShiftNumber: 1,
		Meters: []MeterStartInput{
			{NozzleNumber: 1, StartReading: dec("1000.00")},
			{NozzleNumber: 2, StartReading: dec("2000.00")},
		},
		Gauges: []GaugeInput{
			{TankNumber: 1, Percentage: dec("50")},
			{TankNumber: 2, Percentage: dec("40")},
			{TankNumber: 3, Percentage: dec("30")},
		},
	})
	if err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	return shift
}

func closeShiftOne(t *testing.T, f *lifecycleFixture, shiftID int64) *CloseShiftSummary {
	t.Helper()
	summary, err := f.service.CloseShift(shiftID, CloseShiftRequest{
		Meters: []MeterEndInput{
			{NozzleNumber: 1, EndReading: dec("1150.50")},
			{NozzleNumber: 2, EndReading: dec("2080.25")},
		},
		Gauges: []GaugeInput{
			{TankNumber: 1, Percentage: dec("45")}, // superseded by the re-entry below
			{TankNumber: 2, Percentage: dec("30")},
			{TankNumber: 3, Percentage: dec("20")},
			{TankNumber: 1, Percentage: dec("40")},
		},
		Reconciliation: &CloseReconciliationInput{CashReceived: dec("7000.00")},
	})
	if err != nil {
		t.Fatalf("CloseShift: %v", err)
	}
	return summary
}

// --- tests ---

func TestOpenShift_OpensWithSeededReadings(t *testing.T) {
	f := newLifecycleFixture(t)
	shift := openShiftOne(t, f)

	if shift.Status != models.ShiftStatusOpen {
		t.Fatalf("expected OPEN, got %s", shift.Status)
	}
	// No predecessor: opening stock comes from the start gauges.
	// (50+40+30) * 98 = 11760.
	if !shift.OpeningStock.Valid || !shift.OpeningStock.Decimal.Equal(dec("11760")) {
		t.Fatalf("expected opening stock 11760, got %+v", shift.OpeningStock)
	}
	if shift.CarryOverFromShiftID != nil {
		t.Fatalf("expected no carry-over link for the first shift, got %v", *shift.CarryOverFromShiftID)
	}

	meters, _ := f.meters.GetByShift(shift.ID)
	if len(meters) != 2 {
		t.Fatalf("expected 2 seeded meter readings, got %d", len(meters))
	}
	for _, g := range f.gauges.rows {
		if g.Phase != "START" {
			t.Fatalf("open wrote gauge phase %q, want START", g.Phase)
		}
	}
}

func TestOpenShift_ConflictWhenShiftAlreadyOpen(t *testing.T) {
	f := newLifecycleFixture(t)
	openShiftOne(t, f)

	_, err := f.service.OpenShift(1, OpenShiftRequest{
		ShiftNumber: 2,
		Meters:      []MeterStartInput{{NozzleNumber: 1, StartReading: dec("1150.50")}},
		Gauges:      []GaugeInput{{TankNumber: 1, Percentage: dec("40")}},
	})
	if !errors.Is(err, ErrShiftAlreadyOpen) {
		t.Fatalf("expected ErrShiftAlreadyOpen, got %v", err)
	}
}

func TestOpenShift_LostRaceMapsByConstraint(t *testing.T) {
	// The pre-checks passed but the insert lost a race: the error depends on
	// which unique index tripped.
	cases := []struct {
		repoErr  error
		expected error
	}{
		{repositories.ErrDuplicateKey, ErrShiftAlreadyOpen},
		{repositories.ErrDuplicateShiftNumber, ErrShiftNumberTaken},
	}
	for _, tc := range cases {
		f := newLifecycleFixture(t)
		f.shifts.createErr = tc.repoErr

		_, err := f.service.OpenShift(1, OpenShiftRequest{
			ShiftNumber: 1,
			Meters:      []MeterStartInput{{NozzleNumber: 1, StartReading: dec("1000.00")}},
			Gauges:      []GaugeInput{{TankNumber: 1, Percentage: dec("50")}},
		})
		if !errors.Is(err, tc.expected) {
			t.Fatalf("repo error %v: expected %v, got %v", tc.repoErr, tc.expected, err)
		}
	}
}

func TestCloseShift_ComputesStockFromPersistedReadings(t *testing.T) {
	f := newLifecycleFixture(t)
	shift := openShiftOne(t, f)
	summary := closeShiftOne(t, f, shift.ID)

	if !summary.Liters.Equal(dec("230.75")) {
		t.Fatalf("expected 230.75 liters, got %s", summary.Liters)
	}

	closed, _ := f.shifts.GetShiftByID(shift.ID)
	if closed.Status != models.ShiftStatusClosed {
		t.Fatalf("expected CLOSED, got %s", closed.Status)
	}
	// Tank 1 was re-submitted (45 then 40): the latest persisted reading per
	// tank is authoritative, so closing stock is (40+30+20) * 98 = 8820.
	if !closed.ClosingStock.Valid || !closed.ClosingStock.Decimal.Equal(dec("8820")) {
		t.Fatalf("expected closing stock 8820, got %+v", closed.ClosingStock)
	}

	rec, err := f.recons.GetByShiftID(shift.ID)
	if err != nil {
		t.Fatalf("expected a persisted reconciliation: %v", err)
	}
	if !rec.TotalLiters.Equal(dec("230.75")) {
		t.Fatalf("expected reconciliation liters 230.75, got %s", rec.TotalLiters)
	}
}

func TestCloseShift_NotOpenReturnsInvalidState(t *testing.T) {
	f := newLifecycleFixture(t)
	shift := openShiftOne(t, f)
	closeShiftOne(t, f, shift.ID)

	// A second close of the same shift must be rejected, not re-applied.
	_, err := f.service.CloseShift(shift.ID, CloseShiftRequest{
		Meters: []MeterEndInput{
			{NozzleNumber: 1, EndReading: dec("1200.00")},
			{NozzleNumber: 2, EndReading: dec("2100.00")},
		},
		Gauges: []GaugeInput{
			{TankNumber: 1, Percentage: dec("10")},
			{TankNumber: 2, Percentage: dec("10")},
			{TankNumber: 3, Percentage: dec("10")},
		},
	})
	if !errors.Is(err, ErrShiftNotOpen) {
		t.Fatalf("expected ErrShiftNotOpen, got %v", err)
	}
}

func TestCloseShift_UnknownShiftReturnsNotFound(t *testing.T) {
	f := newLifecycleFixture(t)
	_, err := f.service.CloseShift(99, CloseShiftRequest{
		Meters: []MeterEndInput{{NozzleNumber: 1, EndReading: dec("1100.00")}},
		Gauges: []GaugeInput{{TankNumber: 1, Percentage: dec("10")}},
	})
	if !errors.Is(err, ErrShiftNotFound) {
		t.Fatalf("expected ErrShiftNotFound, got %v", err)
	}
}

func TestShiftLifecycle_CarryOverContinuity(t *testing.T) {
	f := newLifecycleFixture(t)
	first := openShiftOne(t, f)
	closeShiftOne(t, f, first.ID)

	second, err := f.service.OpenShift(1, OpenShiftRequest{
		ShiftNumber: 2,
		Meters: []MeterStartInput{
			{NozzleNumber: 1, StartReading: dec("1150.50")},
			{NozzleNumber: 2, StartReading: dec("2080.25")},
		},
		// Fresh gauges disagree with the predecessor on purpose: the
		// predecessor's closing stock must win.
		Gauges: []GaugeInput{
			{TankNumber: 1, Percentage: dec("39")},
			{TankNumber: 2, Percentage: dec("29")},
			{TankNumber: 3, Percentage: dec("19")},
		},
	})
	if err != nil {
		t.Fatalf("opening successor shift: %v", err)
	}

	closedFirst, _ := f.shifts.GetShiftByID(first.ID)
	if !second.OpeningStock.Valid || !second.OpeningStock.Decimal.Equal(closedFirst.ClosingStock.Decimal) {
		t.Fatalf("expected opening stock %s carried over, got %+v", closedFirst.ClosingStock.Decimal, second.OpeningStock)
	}
	if second.CarryOverFromShiftID == nil || *second.CarryOverFromShiftID != first.ID {
		t.Fatalf("expected carry-over link to shift %d, got %v", first.ID, second.CarryOverFromShiftID)
	}
}
