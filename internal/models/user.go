package models

import "gorm.io/datatypes"

// User represents a login account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name         string         `gorm:"type:text;not null;uniqueIndex"` // Unique login name, 3-16 alphanumeric characters.
	PasswordHash string         `gorm:"type:text;not null"`             // Hex PBKDF2 hash of the password.
	Roles        datatypes.JSON `gorm:"not null;default:'[]'"`          // JSON array of role codes.
	Disabled     bool           `gorm:"not null;default:false"`         // Whether sign-in is blocked.

	Sessions []Session `gorm:"foreignKey:UserID"` // Active and expired sessions.
}

// BootstrapUserID is the id of the seeded administrator account. The account
// cannot be modified or deleted through the API.
const BootstrapUserID uint64 = 1
