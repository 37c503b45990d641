package models

import "time"

// Session backs one bearer-token login. The plaintext token is never stored,
// only its SHA-256 hash.
type Session struct {
	ID string `gorm:"type:text;primaryKey"` // Opaque UUID token.

	SecretHash    string    `gorm:"type:text;not null;uniqueIndex"` // Hex SHA-256 of the bearer token.
	IssuedAt      time.Time `gorm:"not null"`                       // Issue timestamp.
	ExpiresAt     time.Time `gorm:"not null"`                       // Expiry timestamp.
	RemoteAddress string    `gorm:"type:text"`                      // Client network address at login, if known.

	UserID uint64 `gorm:"not null;index"`    // Owning account ID.
	User   *User  `gorm:"foreignKey:UserID"` // Owning account.
}

// IsValid reports whether the session has not yet expired. Validity is
// derived on read and never persisted.
func (s *Session) IsValid(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.ExpiresAt.After(now)
}
