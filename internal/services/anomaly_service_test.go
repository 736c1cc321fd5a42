package services

import (
	"testing"

	"gasstation_backend/internal/models"

	"github.com/shopspring/decimal"
)

func history(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, dec(v))
	}
	return out
}

func TestEvaluateNozzle_CriticalSpike(t *testing.T) {
	// Trailing average 200, current 320: +60% hits the critical band.
	got := EvaluateNozzle(1, dec("320"), history("180", "200", "220"), DefaultAnomalyConfig())
	if got == nil {
		t.Fatal("expected an anomaly, got nil")
	}
	if got.Severity != models.AnomalySeverityCritical {
		t.Fatalf("expected CRITICAL, got %s", got.Severity)
	}
	if !got.AverageQty.Equal(dec("200")) {
		t.Fatalf("expected average 200, got %s", got.AverageQty)
	}
	if !got.PercentDiff.Equal(dec("60")) {
		t.Fatalf("expected +60%%, got %s", got.PercentDiff)
	}
}

func TestEvaluateNozzle_WarningDrop(t *testing.T) {
	// Average 200, current 130: -35% sits in the warning band.
	got := EvaluateNozzle(2, dec("130"), history("200", "200", "200"), DefaultAnomalyConfig())
	if got == nil {
		t.Fatal("expected an anomaly, got nil")
	}
	if got.Severity != models.AnomalySeverityWarning {
		t.Fatalf("expected WARNING, got %s", got.Severity)
	}
	if !got.PercentDiff.Equal(dec("-35")) {
		t.Fatalf("expected -35%%, got %s", got.PercentDiff)
	}
}

func TestEvaluateNozzle_WithinBandIsSilent(t *testing.T) {
	if got := EvaluateNozzle(3, dec("210"), history("200", "200"), DefaultAnomalyConfig()); got != nil {
		t.Fatalf("expected nil inside the normal band, got %+v", got)
	}
}

func TestEvaluateNozzle_NoHistoryIsSilent(t *testing.T) {
	if got := EvaluateNozzle(4, dec("500"), nil, DefaultAnomalyConfig()); got != nil {
		t.Fatalf("expected nil with no history, got %+v", got)
	}
}

func TestEvaluateNozzle_ZeroAverageIsSilent(t *testing.T) {
	// An all-zero history would make the percent diff undefined.
	if got := EvaluateNozzle(5, dec("100"), history("0", "0"), DefaultAnomalyConfig()); got != nil {
		t.Fatalf("expected nil with a zero average, got %+v", got)
	}
}

func TestEvaluateNozzle_BandBoundaries(t *testing.T) {
	cfg := DefaultAnomalyConfig()
	cases := []struct {
		current  string
		severity string // empty means no anomaly
	}{
		{"145", ""},                             // -27.5%, below warning
		{"140", models.AnomalySeverityWarning},  // exactly -30%
		{"260", models.AnomalySeverityWarning},  // exactly +30%
		{"270", models.AnomalySeverityWarning},  // +35%
		{"320", models.AnomalySeverityCritical}, // exactly +60%
		{"80", models.AnomalySeverityCritical},  // -60%
	}
	for _, tc := range cases {
		got := EvaluateNozzle(1, dec(tc.current), history("200"), cfg)
		if tc.severity == "" {
			if got != nil {
				t.Fatalf("current %s: expected no anomaly, got %s", tc.current, got.Severity)
			}
			continue
		}
		if got == nil {
			t.Fatalf("current %s: expected %s, got nil", tc.current, tc.severity)
		}
		if got.Severity != tc.severity {
			t.Fatalf("current %s: expected %s, got %s", tc.current, tc.severity, got.Severity)
		}
	}
}

func TestDailySeverity(t *testing.T) {
	cfg := DefaultAnomalyConfig() // 50-liter threshold, critical at 100
	cases := []struct {
		difference string
		expected   string
	}{
		{"60", models.AnomalySeverityWarning},
		{"-75", models.AnomalySeverityWarning},
		{"99.99", models.AnomalySeverityWarning},
		{"100", models.AnomalySeverityCritical},
		{"-250", models.AnomalySeverityCritical},
	}
	for _, tc := range cases {
		if got := dailySeverity(dec(tc.difference), cfg); got != tc.expected {
			t.Fatalf("dailySeverity(%s) expected %s, got %s", tc.difference, tc.expected, got)
		}
	}
}
