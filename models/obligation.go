package models

import "time"

// ObligationKind distinguishes the two billable record variants.
type ObligationKind string

const (
	ObligationTax         ObligationKind = "tax"
	ObligationTransaction ObligationKind = "transaction"
)

// Obligation is a fixed amount owed by a user: a tax or a transaction with a
// due date. Payments accumulate against it; the sum of payment amounts is the
// only source of truth for how much has been paid.
type Obligation struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    string         `gorm:"index;not null;type:uuid"`
	Kind      ObligationKind `gorm:"size:16;not null;default:'tax'"`
	Name      string         `gorm:"size:64;not null"` // tax type or transaction title
	Amount    int64          `gorm:"not null"`         // smallest currency unit (e.g. cents)
	// CurrencyCode is fixed per obligation (ISO 4217, 3 uppercase letters).
	CurrencyCode      string    `gorm:"size:3;not null"`
	DueDate           time.Time `gorm:"not null;index"`
	BankAccountNumber string    `gorm:"size:64"`
	Notes             string    `gorm:"size:500"`
	Payments          []Payment `gorm:"foreignKey:ObligationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
