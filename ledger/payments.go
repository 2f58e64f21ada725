package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elskito/TaxHacker/models"
	"github.com/elskito/TaxHacker/pkg/money"
)

// PaymentInput carries caller-facing fields for recording a payment. Amount is
// a decimal string; AttachmentRef, when present, must already exist (the
// attachment is stored by the caller before this call and only referenced here).
type PaymentInput struct {
	Amount        string  `json:"amount"`
	PaidAt        string  `json:"paid_at"` // YYYY-MM-DD or RFC3339
	Note          string  `json:"note"`
	AttachmentRef *string `json:"attachment_ref"`
}

func (in PaymentInput) validate() (int64, time.Time, error) {
	cents, err := money.ParseDecimal(in.Amount)
	if err != nil {
		return 0, time.Time{}, &ValidationError{Field: "amount", Reason: "must be a valid number"}
	}
	if cents <= 0 {
		return 0, time.Time{}, ErrInvalidAmount
	}
	if in.PaidAt == "" {
		return 0, time.Time{}, &ValidationError{Field: "paid_at", Reason: "is required"}
	}
	paidAt, err := parseDate(in.PaidAt)
	if err != nil {
		return 0, time.Time{}, &ValidationError{Field: "paid_at", Reason: "invalid date format"}
	}
	if len(in.Note) > maxNoteLen {
		return 0, time.Time{}, &ValidationError{Field: "note", Reason: "too long (max 500)"}
	}
	return cents, paidAt, nil
}

// RecordPayment is the transactional write path: re-read the obligation and
// its ledger under a row lock, validate the amount against the remaining
// balance, insert the payment, commit. Nothing is written on any failure.
// A serialization failure is retried once against fresh state; if the retry
// also fails to serialize, ErrConflict is returned.
func (s *Service) RecordPayment(ctx context.Context, ownerID, obligationID string, in PaymentInput) (*models.Payment, error) {
	amount, paidAt, err := in.validate()
	if err != nil {
		return nil, err
	}
	p, err := s.recordOnce(ctx, ownerID, obligationID, amount, paidAt, in)
	if err != nil && isSerializationFailure(err) {
		p, err = s.recordOnce(ctx, ownerID, obligationID, amount, paidAt, in)
		if err != nil && isSerializationFailure(err) {
			return nil, ErrConflict
		}
	}
	return p, err
}

func (s *Service) recordOnce(ctx context.Context, ownerID, obligationID string, amount int64, paidAt time.Time, in PaymentInput) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock serializes concurrent recordings against the same
		// obligation: two submissions cannot both validate against the same
		// stale remaining balance.
		var ob models.Obligation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", obligationID, ownerID).
			First(&ob).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load obligation: %w", err)
		}

		// Fresh ledger read inside the transaction; the sum of payment rows
		// is the only trusted "paid so far" figure.
		var totalPaid int64
		if err := tx.Model(&models.Payment{}).
			Where("obligation_id = ?", ob.ID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&totalPaid).Error; err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		remaining := ob.Amount - totalPaid
		if amount > remaining {
			return &ExceedsBalanceError{Attempted: amount, Remaining: remaining}
		}

		payment = models.Payment{
			ID:                 uuid.NewString(),
			ObligationID:       ob.ID,
			Amount:             amount,
			PaidAt:             paidAt,
			Note:               in.Note,
			ProofOfPaymentFile: in.AttachmentRef,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// DeletePayment removes a single payment after verifying ownership
// transitively through the obligation. The linked attachment, if any, is
// never touched.
func (s *Service) DeletePayment(ctx context.Context, ownerID, paymentID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		err := tx.Joins("JOIN obligations ON obligations.id = payments.obligation_id").
			Where("payments.id = ? AND obligations.user_id = ?", paymentID, ownerID).
			First(&p).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load payment: %w", err)
		}
		if err := tx.Delete(&models.Payment{}, "id = ?", p.ID).Error; err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}
		return nil
	})
}

// isSerializationFailure matches postgres serialization and deadlock errors
// by message, the same way unique-violation races are detected elsewhere.
func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "40001") ||
		strings.Contains(s, "could not serialize") ||
		strings.Contains(s, "deadlock detected")
}
