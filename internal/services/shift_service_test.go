package services

import (
	"errors"
	"strings"
	"testing"

	"gasstation_backend/internal/models"
)

func TestValidateStartMeters(t *testing.T) {
	cases := []struct {
		name     string
		meters   []MeterStartInput
		expected error // nil means valid
	}{
		{
			name: "valid full set",
			meters: []MeterStartInput{
				{NozzleNumber: 1, StartReading: dec("1000")},
				{NozzleNumber: 2, StartReading: dec("2000")},
			},
		},
		{
			name:     "empty",
			meters:   nil,
			expected: ErrIncompleteReadings,
		},
		{
			name:     "nozzle beyond count",
			meters:   []MeterStartInput{{NozzleNumber: 5, StartReading: dec("10")}},
			expected: ErrReadingOutOfRange,
		},
		{
			name:     "nozzle zero",
			meters:   []MeterStartInput{{NozzleNumber: 0, StartReading: dec("10")}},
			expected: ErrReadingOutOfRange,
		},
		{
			name: "duplicate nozzle",
			meters: []MeterStartInput{
				{NozzleNumber: 1, StartReading: dec("10")},
				{NozzleNumber: 1, StartReading: dec("20")},
			},
			expected: ErrReadingOutOfRange,
		},
		{
			name:     "negative counter",
			meters:   []MeterStartInput{{NozzleNumber: 1, StartReading: dec("-1")}},
			expected: ErrReadingOutOfRange,
		},
	}
	for _, tc := range cases {
		err := validateStartMeters(tc.meters, 4)
		if tc.expected == nil {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.expected) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, err)
		}
	}
}

func TestValidateGauges_PercentageBounds(t *testing.T) {
	if err := validateGauges([]GaugeInput{{TankNumber: 1, Percentage: dec("100")}}, 3); err != nil {
		t.Fatalf("100%% should be valid: %v", err)
	}
	err := validateGauges([]GaugeInput{{TankNumber: 1, Percentage: dec("105")}}, 3)
	if !errors.Is(err, ErrReadingOutOfRange) {
		t.Fatalf("expected out-of-range for 105%%, got %v", err)
	}
	err = validateGauges([]GaugeInput{{TankNumber: 1, Percentage: dec("-0.5")}}, 3)
	if !errors.Is(err, ErrReadingOutOfRange) {
		t.Fatalf("expected out-of-range for negative percentage, got %v", err)
	}
	err = validateGauges([]GaugeInput{{TankNumber: 4, Percentage: dec("50")}}, 3)
	if !errors.Is(err, ErrReadingOutOfRange) {
		t.Fatalf("expected out-of-range for unknown tank, got %v", err)
	}
}

func startReadings(nozzles ...int) []models.MeterReading {
	out := make([]models.MeterReading, 0, len(nozzles))
	for _, n := range nozzles {
		out = append(out, models.MeterReading{NozzleNumber: n, StartReading: dec("1000")})
	}
	return out
}

func TestValidateEndMeters_MissingNozzlesReportedByNumber(t *testing.T) {
	starts := startReadings(1, 2, 3, 4)
	ends := []MeterEndInput{
		{NozzleNumber: 2, EndReading: dec("1100")},
	}
	err := validateEndMeters(starts, ends)
	if !errors.Is(err, ErrIncompleteReadings) {
		t.Fatalf("expected incomplete readings, got %v", err)
	}
	for _, want := range []string{"1", "3", "4"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error should name missing nozzle %s: %v", want, err)
		}
	}
}

func TestValidateEndMeters_EndBelowStart(t *testing.T) {
	starts := startReadings(1)
	ends := []MeterEndInput{{NozzleNumber: 1, EndReading: dec("999.99")}}
	if err := validateEndMeters(starts, ends); !errors.Is(err, ErrReadingOutOfRange) {
		t.Fatalf("expected out-of-range for end below start, got %v", err)
	}
}

func TestValidateEndMeters_UnknownNozzle(t *testing.T) {
	starts := startReadings(1, 2)
	ends := []MeterEndInput{
		{NozzleNumber: 1, EndReading: dec("1100")},
		{NozzleNumber: 2, EndReading: dec("1100")},
		{NozzleNumber: 3, EndReading: dec("1100")},
	}
	if err := validateEndMeters(starts, ends); !errors.Is(err, ErrReadingOutOfRange) {
		t.Fatalf("expected out-of-range for nozzle without a start, got %v", err)
	}
}

func TestValidateEndMeters_NegativeSoldQty(t *testing.T) {
	starts := startReadings(1)
	bad := dec("-5")
	ends := []MeterEndInput{{NozzleNumber: 1, EndReading: dec("1100"), SoldQty: &bad}}
	if err := validateEndMeters(starts, ends); !errors.Is(err, ErrReadingOutOfRange) {
		t.Fatalf("expected out-of-range for negative sold quantity, got %v", err)
	}
}

func TestValidateEndMeters_CompleteSetPasses(t *testing.T) {
	starts := startReadings(1, 2)
	override := dec("90")
	ends := []MeterEndInput{
		{NozzleNumber: 1, EndReading: dec("1100")},
		{NozzleNumber: 2, EndReading: dec("1000"), SoldQty: &override}, // zero movement, operator override
	}
	if err := validateEndMeters(starts, ends); err != nil {
		t.Fatalf("expected valid close set, got %v", err)
	}
}

func TestValidateEndGauges_RequiresFullTankCoverage(t *testing.T) {
	gauges := []GaugeInput{
		{TankNumber: 1, Percentage: dec("40")},
		{TankNumber: 2, Percentage: dec("55")},
	}
	err := validateEndGauges(gauges, 3)
	if !errors.Is(err, ErrIncompleteReadings) {
		t.Fatalf("expected incomplete coverage error, got %v", err)
	}

	gauges = append(gauges, GaugeInput{TankNumber: 3, Percentage: dec("70")})
	if err := validateEndGauges(gauges, 3); err != nil {
		t.Fatalf("full coverage should pass: %v", err)
	}
}

func TestCarryOverStock_PredecessorClosingStockWins(t *testing.T) {
	prev := &models.Shift{
		ID:           42,
		ClosingStock: nullDec("11319"),
	}
	stock, carryID := carryOverStock(prev, dec("99999"))
	if !stock.Valid || !stock.Decimal.Equal(dec("11319")) {
		t.Fatalf("expected predecessor stock 11319, got %+v", stock)
	}
	if carryID == nil || *carryID != 42 {
		t.Fatalf("expected carry-over from shift 42, got %v", carryID)
	}
}

func TestCarryOverStock_FallsBackToGauges(t *testing.T) {
	stock, carryID := carryOverStock(nil, dec("7399"))
	if !stock.Valid || !stock.Decimal.Equal(dec("7399")) {
		t.Fatalf("expected gauge-derived stock 7399, got %+v", stock)
	}
	if carryID != nil {
		t.Fatalf("expected no carry-over link, got %v", *carryID)
	}

	// A predecessor without a recorded closing stock also falls back.
	prev := &models.Shift{ID: 7}
	stock, carryID = carryOverStock(prev, dec("7399"))
	if !stock.Decimal.Equal(dec("7399")) || carryID != nil {
		t.Fatalf("expected gauge fallback without link, got %+v / %v", stock, carryID)
	}
}

func TestGaugeStockFromInputs_LastValuePerTankWins(t *testing.T) {
	gauges := []GaugeInput{
		{TankNumber: 1, Percentage: dec("50")},
		{TankNumber: 2, Percentage: dec("20")},
		{TankNumber: 1, Percentage: dec("60")}, // corrected re-entry
	}
	// 60*98 + 20*98
	if got := gaugeStockFromInputs(gauges, dec("98")); !got.Equal(dec("7840")) {
		t.Fatalf("expected 7840, got %s", got)
	}
}

func TestHasCriticalAnomaly(t *testing.T) {
	none := []models.NozzleAnomaly{{Severity: models.AnomalySeverityWarning}}
	if hasCriticalAnomaly(none) {
		t.Fatal("warnings alone should not be critical")
	}
	mixed := append(none, models.NozzleAnomaly{Severity: models.AnomalySeverityCritical})
	if !hasCriticalAnomaly(mixed) {
		t.Fatal("expected critical detection")
	}
	if hasCriticalAnomaly(nil) {
		t.Fatal("no anomalies should not be critical")
	}
}
