package services

import (
	"testing"

	"gasstation_backend/internal/models"
)

func TestComputeReconciliation_CashShiftWithinGreenBand(t *testing.T) {
	in := ReconciliationInput{CashReceived: dec("4700.00")}
	rec := ComputeReconciliation(dec("150.50"), dec("31.34"), in, DefaultVarianceThresholds())

	if !rec.ExpectedFuelAmount.Equal(dec("4716.67")) {
		t.Fatalf("expected fuel amount 4716.67, got %s", rec.ExpectedFuelAmount)
	}
	if !rec.TotalExpected.Equal(dec("4716.67")) {
		t.Fatalf("expected total 4716.67, got %s", rec.TotalExpected)
	}
	if !rec.TotalReceived.Equal(dec("4700.00")) {
		t.Fatalf("expected received 4700.00, got %s", rec.TotalReceived)
	}
	if !rec.Variance.Equal(dec("-16.67")) {
		t.Fatalf("expected variance -16.67, got %s", rec.Variance)
	}
	if rec.VarianceStatus != models.VarianceStatusGreen {
		t.Fatalf("expected GREEN, got %s", rec.VarianceStatus)
	}
}

func TestComputeReconciliation_MixedPaymentsAndOtherSales(t *testing.T) {
	in := ReconciliationInput{
		CashReceived:        dec("3000.00"),
		CreditReceived:      dec("1500.00"),
		TransferReceived:    dec("500.00"),
		ExpectedOtherAmount: dec("250.00"),
	}
	rec := ComputeReconciliation(dec("150.50"), dec("31.34"), in, DefaultVarianceThresholds())

	// 150.50*31.34 + 250 = 4966.67 expected, 5000 received.
	if !rec.TotalExpected.Equal(dec("4966.67")) {
		t.Fatalf("expected total 4966.67, got %s", rec.TotalExpected)
	}
	if !rec.TotalReceived.Equal(dec("5000.00")) {
		t.Fatalf("expected received 5000.00, got %s", rec.TotalReceived)
	}
	if !rec.Variance.Equal(dec("33.33")) {
		t.Fatalf("expected variance 33.33, got %s", rec.Variance)
	}
	if rec.VarianceStatus != models.VarianceStatusGreen {
		t.Fatalf("expected GREEN, got %s", rec.VarianceStatus)
	}
}

func TestComputeReconciliation_ZeroReceiptsShowFullShortfall(t *testing.T) {
	rec := ComputeReconciliation(dec("100"), dec("30"), ReconciliationInput{}, DefaultVarianceThresholds())
	if !rec.Variance.Equal(dec("-3000")) {
		t.Fatalf("expected variance -3000, got %s", rec.Variance)
	}
	if rec.VarianceStatus != models.VarianceStatusRed {
		t.Fatalf("expected RED, got %s", rec.VarianceStatus)
	}
}

func TestClassifyVariance_Bands(t *testing.T) {
	thresholds := DefaultVarianceThresholds()
	cases := []struct {
		variance string
		expected string
	}{
		{"0", models.VarianceStatusGreen},
		{"100", models.VarianceStatusGreen},
		{"-100", models.VarianceStatusGreen},
		{"100.01", models.VarianceStatusYellow},
		{"-350", models.VarianceStatusYellow},
		{"500", models.VarianceStatusYellow},
		{"500.01", models.VarianceStatusRed},
		{"-9999", models.VarianceStatusRed},
	}
	for _, tc := range cases {
		if got := ClassifyVariance(dec(tc.variance), thresholds); got != tc.expected {
			t.Fatalf("ClassifyVariance(%s) expected %s, got %s", tc.variance, tc.expected, got)
		}
	}
}

func TestClassifyVariance_CustomThresholds(t *testing.T) {
	tight := VarianceThresholds{Yellow: dec("10"), Red: dec("50")}
	if got := ClassifyVariance(dec("-20"), tight); got != models.VarianceStatusYellow {
		t.Fatalf("expected YELLOW under tightened thresholds, got %s", got)
	}
	if got := ClassifyVariance(dec("60"), tight); got != models.VarianceStatusRed {
		t.Fatalf("expected RED under tightened thresholds, got %s", got)
	}
}
