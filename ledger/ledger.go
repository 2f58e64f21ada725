// Package ledger is the owner-scoped write and read path for obligations and
// their payment ledgers. Every operation takes the owner id explicitly; no
// ambient request state is consulted. Derived figures (total paid, remaining,
// status) are never stored here, they are recomputed via pkg/settlement.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elskito/TaxHacker/models"
	"github.com/elskito/TaxHacker/pkg/money"
	"github.com/elskito/TaxHacker/pkg/settlement"
)

// Service wraps the database handle for ledger operations.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ObligationInput carries caller-facing fields for creating an obligation.
// Amount is a decimal string ("12.50"); it is parsed to minor units here.
type ObligationInput struct {
	Kind              string `json:"kind"`
	Name              string `json:"name"`
	Amount            string `json:"amount"`
	CurrencyCode      string `json:"currency_code"`
	DueDate           string `json:"due_date"` // YYYY-MM-DD or RFC3339
	BankAccountNumber string `json:"bank_account_number"`
	Notes             string `json:"notes"`
}

// ObligationUpdate carries a partial edit; nil fields are left unchanged.
type ObligationUpdate struct {
	Name              *string `json:"name"`
	Amount            *string `json:"amount"`
	CurrencyCode      *string `json:"currency_code"`
	DueDate           *string `json:"due_date"`
	BankAccountNumber *string `json:"bank_account_number"`
	Notes             *string `json:"notes"`
}

const (
	maxNameLen = 64
	maxNoteLen = 500
	maxBankLen = 64
)

// parseDate accepts a plain date or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseObligationAmount converts a decimal string to minor units; obligations
// may be zero but never negative.
func parseObligationAmount(s string) (int64, error) {
	cents, err := money.ParseDecimal(s)
	if err != nil {
		return 0, &ValidationError{Field: "amount", Reason: "must be a valid number"}
	}
	if cents < 0 {
		return 0, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	return cents, nil
}

// CreateObligation validates the input and persists a new obligation for the
// owner. The stored amount is integer minor units.
func (s *Service) CreateObligation(ctx context.Context, ownerID string, in ObligationInput) (*models.Obligation, error) {
	kind := models.ObligationKind(in.Kind)
	if kind == "" {
		kind = models.ObligationTax
	}
	if kind != models.ObligationTax && kind != models.ObligationTransaction {
		return nil, &ValidationError{Field: "kind", Reason: "must be tax or transaction"}
	}
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	if len(in.Name) > maxNameLen {
		return nil, &ValidationError{Field: "name", Reason: "too long (max 64)"}
	}
	cents, err := parseObligationAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	if !money.ValidCurrencyCode(in.CurrencyCode) {
		return nil, &ValidationError{Field: "currency_code", Reason: "must be 3 uppercase letters (e.g. USD)"}
	}
	if in.DueDate == "" {
		return nil, &ValidationError{Field: "due_date", Reason: "is required"}
	}
	due, err := parseDate(in.DueDate)
	if err != nil {
		return nil, &ValidationError{Field: "due_date", Reason: "invalid date format"}
	}
	if len(in.Notes) > maxNoteLen {
		return nil, &ValidationError{Field: "notes", Reason: "too long (max 500)"}
	}
	if len(in.BankAccountNumber) > maxBankLen {
		return nil, &ValidationError{Field: "bank_account_number", Reason: "too long (max 64)"}
	}

	ob := models.Obligation{
		ID:                uuid.NewString(),
		UserID:            ownerID,
		Kind:              kind,
		Name:              in.Name,
		Amount:            cents,
		CurrencyCode:      in.CurrencyCode,
		DueDate:           due,
		BankAccountNumber: in.BankAccountNumber,
		Notes:             in.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&ob).Error; err != nil {
		return nil, fmt.Errorf("create obligation: %w", err)
	}
	return &ob, nil
}

// UpdateObligation applies a partial edit, owner-scoped. Reducing the amount
// below the already-paid total is allowed; the obligation then shows a
// negative remaining balance (overpaid) and existing payments stay valid.
func (s *Service) UpdateObligation(ctx context.Context, ownerID, id string, in ObligationUpdate) (*models.Obligation, error) {
	var ob models.Obligation
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&ob).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load obligation: %w", err)
	}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, &ValidationError{Field: "name", Reason: "is required"}
		}
		if len(*in.Name) > maxNameLen {
			return nil, &ValidationError{Field: "name", Reason: "too long (max 64)"}
		}
		ob.Name = *in.Name
	}
	if in.Amount != nil {
		cents, err := parseObligationAmount(*in.Amount)
		if err != nil {
			return nil, err
		}
		ob.Amount = cents
	}
	if in.CurrencyCode != nil {
		if !money.ValidCurrencyCode(*in.CurrencyCode) {
			return nil, &ValidationError{Field: "currency_code", Reason: "must be 3 uppercase letters (e.g. USD)"}
		}
		ob.CurrencyCode = *in.CurrencyCode
	}
	if in.DueDate != nil {
		due, err := parseDate(*in.DueDate)
		if err != nil {
			return nil, &ValidationError{Field: "due_date", Reason: "invalid date format"}
		}
		ob.DueDate = due
	}
	if in.BankAccountNumber != nil {
		if len(*in.BankAccountNumber) > maxBankLen {
			return nil, &ValidationError{Field: "bank_account_number", Reason: "too long (max 64)"}
		}
		ob.BankAccountNumber = *in.BankAccountNumber
	}
	if in.Notes != nil {
		if len(*in.Notes) > maxNoteLen {
			return nil, &ValidationError{Field: "notes", Reason: "too long (max 500)"}
		}
		ob.Notes = *in.Notes
	}
	if err := s.db.WithContext(ctx).Save(&ob).Error; err != nil {
		return nil, fmt.Errorf("update obligation: %w", err)
	}
	return &ob, nil
}

// DeleteObligation removes the obligation and all its payments in one
// transaction. Attachment files referenced by deleted payments are left in
// storage; cleanup is a separate maintenance concern.
func (s *Service) DeleteObligation(ctx context.Context, ownerID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ob models.Obligation
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&ob).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load obligation: %w", err)
		}
		if err := tx.Where("obligation_id = ?", ob.ID).Delete(&models.Payment{}).Error; err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		if err := tx.Delete(&ob).Error; err != nil {
			return fmt.Errorf("delete obligation: %w", err)
		}
		return nil
	})
}

// GetObligation loads one obligation with its payments ordered by paid date.
func (s *Service) GetObligation(ctx context.Context, ownerID, id string) (*models.Obligation, error) {
	var ob models.Obligation
	err := s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at asc") }).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&ob).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load obligation: %w", err)
	}
	return &ob, nil
}

// ListObligations returns all of the owner's obligations with payments
// preloaded, due date ascending then newest first.
func (s *Service) ListObligations(ctx context.Context, ownerID string) ([]models.Obligation, error) {
	var obs []models.Obligation
	err := s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at asc") }).
		Where("user_id = ?", ownerID).
		Order("due_date asc, created_at desc").
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	return obs, nil
}

// Stats aggregates the owner's obligations as of the given observation date.
func (s *Service) Stats(ctx context.Context, ownerID string, today time.Time) (settlement.Stats, error) {
	obs, err := s.ListObligations(ctx, ownerID)
	if err != nil {
		return settlement.Stats{}, err
	}
	return settlement.Aggregate(obs, today), nil
}
