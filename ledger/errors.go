package ledger

import (
	"errors"
	"fmt"

	"github.com/elskito/TaxHacker/pkg/money"
)

var (
	// ErrNotFound covers both "does not exist" and "belongs to another user".
	// Conflating the two avoids leaking which records exist.
	ErrNotFound = errors.New("record not found or access denied")

	// ErrInvalidAmount rejects zero or negative payment amounts.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrConflict means the validate+insert sequence could not be serialized
	// even after one retry against fresh state. Safe for callers to retry.
	ErrConflict = errors.New("payment could not be recorded due to a concurrent update, retry")
)

// ValidationError reports a single malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ExceedsBalanceError is returned when a payment would overshoot the
// obligation's remaining balance. Both figures are carried so the caller can
// correct the input.
type ExceedsBalanceError struct {
	Attempted int64 // minor units
	Remaining int64 // minor units
}

func (e *ExceedsBalanceError) Error() string {
	return fmt.Sprintf("payment amount (%s) exceeds remaining balance (%s)",
		money.Format(e.Attempted), money.Format(e.Remaining))
}
