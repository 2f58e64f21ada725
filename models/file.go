package models

import "time"

// File represents a user's uploaded attachment (proof of payment).
type File struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    string `gorm:"index;not null;type:uuid"`
	Filename  string `gorm:"size:255;not null"` // original name as uploaded
	Path      string `gorm:"size:512;not null"` // relative to the owner's upload directory
	Mimetype  string `gorm:"size:128"`
	Size      int64  `gorm:"not null;default:0"`
}
