package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwdev22/webpanel/internal/db"
	"github.com/mwdev22/webpanel/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is reported when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store is the single source of truth for accounts and sessions. Every
// authorization decision re-reads it; nothing is cached across requests.
type Store struct {
	db *gorm.DB
}

// New constructs a Store over the given connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UserByName returns the account with the given login name.
func (s *Store) UserByName(ctx context.Context, name string) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).Where("name = ?", name).First(&user).Error; errFind != nil {
		return nil, wrapLookup("user by name", errFind)
	}
	return &user, nil
}

// UserByID returns the account with the given id.
func (s *Store) UserByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).First(&user, id).Error; errFind != nil {
		return nil, wrapLookup("user by id", errFind)
	}
	return &user, nil
}

// CreateUser inserts a new account. The id is assigned by the store's
// auto-increment before the row is visible to the caller.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("store: create user: nil user")
	}
	if errCreate := s.db.WithContext(ctx).Create(user).Error; errCreate != nil {
		return fmt.Errorf("store: create user: %w", errCreate)
	}
	return nil
}

// UpdateUser applies the given column updates to an account.
func (s *Store) UpdateUser(ctx context.Context, id uint64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("store: update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: update user: %w", ErrNotFound)
	}
	return nil
}

// DeleteUser removes an account row.
func (s *Store) DeleteUser(ctx context.Context, id uint64) error {
	if errDelete := s.db.WithContext(ctx).Delete(&models.User{}, id).Error; errDelete != nil {
		return fmt.Errorf("store: delete user: %w", errDelete)
	}
	return nil
}

// ListUsers returns every account ordered by id. A non-empty filter narrows
// the result to names containing it, case-insensitively.
func (s *Store) ListUsers(ctx context.Context, filter string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Order("id ASC")
	if filter != "" {
		pattern := db.NormalizeLikePattern(s.db, "%"+filter+"%")
		query = query.Where(db.CaseInsensitiveLikeExpr(s.db, "name"), pattern)
	}
	var rows []models.User
	if errFind := query.Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list users: %w", errFind)
	}
	return rows, nil
}

// SessionBySecretHash returns the session whose secret hash matches, along
// with its owning account. Expired sessions are returned; callers must check
// validity themselves.
func (s *Store) SessionBySecretHash(ctx context.Context, secretHash string) (*models.Session, error) {
	var session models.Session
	if errFind := s.db.WithContext(ctx).
		Preload("User").
		Where("secret_hash = ?", secretHash).
		First(&session).Error; errFind != nil {
		return nil, wrapLookup("session by secret", errFind)
	}
	return &session, nil
}

// SessionByID returns the valid session with the given id.
func (s *Store) SessionByID(ctx context.Context, id string, now time.Time) (*models.Session, error) {
	var session models.Session
	if errFind := s.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND expires_at > ?", id, now).
		First(&session).Error; errFind != nil {
		return nil, wrapLookup("session by id", errFind)
	}
	return &session, nil
}

// ValidSessions returns every session that has not expired. Expired rows are
// not deleted eagerly, so lookups always filter by expiry.
func (s *Store) ValidSessions(ctx context.Context, now time.Time) ([]models.Session, error) {
	var rows []models.Session
	if errFind := s.db.WithContext(ctx).
		Preload("User").
		Where("expires_at > ?", now).
		Order("issued_at ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: list valid sessions: %w", errFind)
	}
	return rows, nil
}

// SessionsForUser returns the valid sessions owned by an account.
func (s *Store) SessionsForUser(ctx context.Context, userID uint64, now time.Time) ([]models.Session, error) {
	var rows []models.Session
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("issued_at ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("store: sessions for user: %w", errFind)
	}
	return rows, nil
}

// CreateSession inserts a new session row.
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("store: create session: nil session")
	}
	if errCreate := s.db.WithContext(ctx).Create(session).Error; errCreate != nil {
		return fmt.Errorf("store: create session: %w", errCreate)
	}
	return nil
}

// DeleteSession removes a session row by id.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if errDelete := s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error; errDelete != nil {
		return fmt.Errorf("store: delete session: %w", errDelete)
	}
	return nil
}

// DeleteSessionsForUser removes every session owned by an account.
func (s *Store) DeleteSessionsForUser(ctx context.Context, userID uint64) error {
	if errDelete := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Session{}).Error; errDelete != nil {
		return fmt.Errorf("store: delete sessions for user: %w", errDelete)
	}
	return nil
}

// wrapLookup maps gorm's record-not-found onto ErrNotFound and wraps
// everything else.
func wrapLookup(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("store: %s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
