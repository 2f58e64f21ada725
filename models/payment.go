package models

import "time"

// Payment is an immutable ledger entry recording a partial or full amount paid
// against an obligation. Payments are only created and deleted, never edited.
type Payment struct {
	ID           string `gorm:"primaryKey;type:uuid"`
	CreatedAt    time.Time
	ObligationID string    `gorm:"index;not null;type:uuid"`
	Amount       int64     `gorm:"not null"` // smallest currency unit, always > 0
	PaidAt       time.Time `gorm:"not null"`
	Note         string    `gorm:"size:500"`
	// ProofOfPaymentFile is a weak reference to files.id. The attachment's
	// lifecycle is independent: deleting the payment leaves the file in place.
	ProofOfPaymentFile *string `gorm:"type:uuid;index"`
}
