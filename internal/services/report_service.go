package services

import (
	"errors"
	"fmt"
	"time"

	"gasstation_backend/internal/models"
	"gasstation_backend/internal/repositories"
)

var (
	ErrReportValidation = errors.New("report query validation error")
)

// --- ReportService Interface ---
type ReportService interface {
	GetDailySummaries(stationID *int64, dateFrom, dateTo string) ([]models.DailySummary, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(rr repositories.ReportRepository) ReportService {
	return &reportService{reportRepo: rr}
}

const reportDateFormat = "2006-01-02"

func (s *reportService) GetDailySummaries(stationID *int64, dateFrom, dateTo string) ([]models.DailySummary, error) {
	from, err := time.Parse(reportDateFormat, dateFrom)
	if err != nil {
		return nil, fmt.Errorf("%w: date_from must be YYYY-MM-DD", ErrReportValidation)
	}
	to, err := time.Parse(reportDateFormat, dateTo)
	if err != nil {
		return nil, fmt.Errorf("%w: date_to must be YYYY-MM-DD", ErrReportValidation)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: date_to must not be before date_from", ErrReportValidation)
	}

	summaries, err := s.reportRepo.GetDailySummaries(stationID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily summaries: %w", err)
	}
	return summaries, nil
}
