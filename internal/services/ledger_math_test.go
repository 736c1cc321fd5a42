package services

import (
	"testing"

	"gasstation_backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func nullDec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func TestDispensedVolume_FromCounterDifference(t *testing.T) {
	m := models.MeterReading{
		NozzleNumber: 1,
		StartReading: dec("1000.00"),
		EndReading:   nullDec("1150.50"),
	}
	if got := DispensedVolume(m); !got.Equal(dec("150.50")) {
		t.Fatalf("expected 150.50, got %s", got)
	}
}

func TestDispensedVolume_SoldQtyOverridesCounters(t *testing.T) {
	m := models.MeterReading{
		NozzleNumber: 2,
		StartReading: dec("1000.00"),
		EndReading:   nullDec("1150.50"),
		SoldQty:      nullDec("148.00"),
	}
	if got := DispensedVolume(m); !got.Equal(dec("148.00")) {
		t.Fatalf("expected the sold quantity override 148.00, got %s", got)
	}
}

func TestDispensedVolume_NoEndReadingContributesZero(t *testing.T) {
	m := models.MeterReading{NozzleNumber: 3, StartReading: dec("500.00")}
	if got := DispensedVolume(m); !got.IsZero() {
		t.Fatalf("expected zero for an unfinished reading, got %s", got)
	}
}

func TestDispensedVolume_NegativeDifferenceFlooredAtZero(t *testing.T) {
	m := models.MeterReading{
		NozzleNumber: 4,
		StartReading: dec("1200.00"),
		EndReading:   nullDec("1100.00"),
	}
	if got := DispensedVolume(m); !got.IsZero() {
		t.Fatalf("expected zero floor, got %s", got)
	}
}

func TestShiftTotal_SumsAcrossNozzles(t *testing.T) {
	readings := []models.MeterReading{
		{NozzleNumber: 1, StartReading: dec("1000.00"), EndReading: nullDec("1150.50")},
		{NozzleNumber: 2, StartReading: dec("2000.00"), EndReading: nullDec("2080.25")},
		{NozzleNumber: 3, StartReading: dec("3000.00"), SoldQty: nullDec("50.00")},
		{NozzleNumber: 4, StartReading: dec("4000.00")},
	}
	if got := ShiftTotal(readings); !got.Equal(dec("280.75")) {
		t.Fatalf("expected 280.75, got %s", got)
	}
}

func TestShiftTotal_EmptyIsZero(t *testing.T) {
	if got := ShiftTotal(nil); !got.IsZero() {
		t.Fatalf("expected zero for no readings, got %s", got)
	}
}

func TestStockLiters(t *testing.T) {
	litersPerPercent := dec("98")
	readings := []models.GaugeReading{
		{TankNumber: 1, Percentage: dec("75.5")},
		{TankNumber: 2, Percentage: dec("40")},
		{TankNumber: 3, Percentage: dec("0")},
	}
	// 75.5*98 + 40*98 = 7399 + 3920
	if got := StockLiters(readings, litersPerPercent); !got.Equal(dec("11319")) {
		t.Fatalf("expected 11319, got %s", got)
	}
}

func TestStockLiters_PartialTankSetStillSums(t *testing.T) {
	readings := []models.GaugeReading{{TankNumber: 2, Percentage: dec("10")}}
	if got := StockLiters(readings, dec("98")); !got.Equal(dec("980")) {
		t.Fatalf("expected 980 from a single tank, got %s", got)
	}
}
