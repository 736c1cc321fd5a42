package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gasstation_backend/internal/models"
	"gasstation_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Transactions ---
var (
	ErrNoOpenShift           = errors.New("no open shift for this station")
	ErrTransactionValidation = errors.New("transaction data validation error")
)

// --- Transaction DTOs ---
type RecordTransactionRequest struct {
	StationID   int64           `json:"station_id" binding:"required"`
	Liters      decimal.Decimal `json:"liters"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentType string          `json:"payment_type" binding:"required"`
	SoldAt      *string         `json:"sold_at"` // RFC3339, defaults to now
}

// --- TransactionService Interface ---
type TransactionService interface {
	RecordTransaction(req RecordTransactionRequest) (*models.FuelTransaction, error)
	GetTransactionsByShift(shiftID int64) ([]models.FuelTransaction, error)
}

// --- transactionService Implementation ---
type transactionService struct {
	txRepo    repositories.TransactionRepository
	shiftRepo repositories.ShiftRepository
	db        *sql.DB
}

// NewTransactionService creates a new instance of TransactionService.
func NewTransactionService(tr repositories.TransactionRepository, shr repositories.ShiftRepository, db *sql.DB) TransactionService {
	return &transactionService{
		txRepo:    tr,
		shiftRepo: shr,
		db:        db,
	}
}

// RecordTransaction records one sale against the station's currently open
// shift. Sales can only land on an open shift; the anomaly scan later
// compares these liters against the meter ledger.
func (s *transactionService) RecordTransaction(req RecordTransactionRequest) (*models.FuelTransaction, error) {
	if req.Liters.IsNegative() || req.Liters.IsZero() {
		return nil, fmt.Errorf("%w: liters must be positive", ErrTransactionValidation)
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount cannot be negative", ErrTransactionValidation)
	}
	if !models.IsValidPaymentType(req.PaymentType) {
		return nil, fmt.Errorf("%w: invalid payment type '%s'", ErrTransactionValidation, req.PaymentType)
	}

	soldAt := time.Now()
	if req.SoldAt != nil {
		parsed, err := time.Parse(time.RFC3339, *req.SoldAt)
		if err != nil {
			return nil, fmt.Errorf("%w: sold_at must be RFC3339", ErrTransactionValidation)
		}
		soldAt = parsed
	}

	shift, err := s.shiftRepo.GetOpenShiftByStation(req.StationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoOpenShift
		}
		return nil, fmt.Errorf("failed to find open shift: %w", err)
	}

	transaction := &models.FuelTransaction{
		StationID:   req.StationID,
		ShiftID:     shift.ID,
		Liters:      req.Liters,
		Amount:      req.Amount,
		PaymentType: req.PaymentType,
		SoldAt:      soldAt,
	}
	createdTransaction, err := s.txRepo.CreateTransaction(s.db, transaction)
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	return createdTransaction, nil
}

func (s *transactionService) GetTransactionsByShift(shiftID int64) ([]models.FuelTransaction, error) {
	if _, err := s.shiftRepo.GetShiftByID(shiftID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to fetch shift: %w", err)
	}
	transactions, err := s.txRepo.GetByShift(shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift transactions: %w", err)
	}
	return transactions, nil
}
