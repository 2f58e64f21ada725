package models

import (
	"time"
)

// User model
type User struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time `gorm:"index"`
	Username       string     `gorm:"size:255;not null;unique"`
	HashedPassword []byte     `gorm:"not null"`
	// StorageUsed is the total size in bytes of the user's uploaded files,
	// recomputed after each successful upload.
	StorageUsed int64 `gorm:"not null;default:0"`
	// StorageLimit caps StorageUsed; zero means unlimited.
	StorageLimit int64        `gorm:"not null;default:0"`
	Obligations  []Obligation `gorm:"foreignKey:UserID"`
	Files        []File       `gorm:"foreignKey:UserID"`
	RoleID       *uint        `gorm:"index"`
	Role         Role         `gorm:"foreignKey:RoleID;references:ID"`
}
