package repositories

import (
	"errors"
	"testing"

	"gasstation_backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestCreateReading_RejectsUnknownPhase(t *testing.T) {
	repo := &gaugeRepository{} // phase guard runs before any database access

	for _, phase := range []string{"start", "end", "BEGIN", ""} {
		reading := &models.GaugeReading{
			StationID:  1,
			ShiftID:    1,
			TankNumber: 1,
			Phase:      phase,
			Percentage: decimal.NewFromInt(50),
		}
		_, err := repo.CreateReading(nil, reading)
		if !errors.Is(err, ErrDatabaseError) {
			t.Fatalf("phase %q: expected database error, got %v", phase, err)
		}
	}
}

func TestIsUniqueViolationHelpers_NonPqError(t *testing.T) {
	err := errors.New("plain failure")
	if IsUniqueViolation(err) {
		t.Fatal("plain error misread as a unique violation")
	}
	if name := UniqueConstraintName(err); name != "" {
		t.Fatalf("expected no constraint name, got %q", name)
	}
}
