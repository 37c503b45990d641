package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mwdev22/webpanel/internal/config"
	"github.com/mwdev22/webpanel/internal/models"
	"github.com/mwdev22/webpanel/internal/store"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"
)

// Key derivation parameters. Changing any of them invalidates every stored
// password hash.
const (
	pbkdf2Iterations = 10000
	pbkdf2KeyLength  = 32
)

// CookieSpec describes the session cookie returned on successful login. The
// value is the plaintext bearer token; it exists only in this response.
type CookieSpec struct {
	Name     string
	Value    string
	Path     string
	Expires  time.Time
	HTTPOnly bool
	// SameSite is always strict; the field is kept explicit so transports
	// do not need to know the policy.
	SameSiteStrict bool
}

// LoginResult reports the outcome of a credential check.
type LoginResult struct {
	Success bool
	// Blocked is set when the credentials matched a disabled account. No
	// session is issued in that case.
	Blocked bool
	Cookie  *CookieSpec
	Session *models.Session
}

// Manager issues, validates, and revokes login sessions.
type Manager struct {
	store *store.Store
	cfg   config.SessionConfig
	nowFn func() time.Time
}

// NewManager constructs a Manager. A nil nowFn defaults to time.Now.
func NewManager(st *store.Store, cfg config.SessionConfig, nowFn func() time.Time) *Manager {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Manager{store: st, cfg: cfg, nowFn: nowFn}
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.nowFn()
}

// Salt builds the key-derivation salt for an account. The salt is
// reconstructed from identity fields rather than stored, so the account id
// must be assigned before the hash is computed.
func Salt(name string, id uint64) string {
	return name + strconv.FormatUint(id, 10)
}

// HashCredentials derives the stored password hash from a password and salt.
func HashCredentials(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyCredentials reports whether the password matches the account's
// stored hash. The comparison is constant-time.
func VerifyCredentials(user *models.User, password string) bool {
	if user == nil {
		return false
	}
	computed := HashCredentials(password, Salt(user.Name, user.ID))
	return subtle.ConstantTimeCompare([]byte(computed), []byte(user.PasswordHash)) == 1
}

// CheckLogin validates credentials and issues a new session on success.
// Unknown accounts and wrong passwords fail identically; a disabled account
// is reported blocked without issuing a session. Every successful call
// creates a fresh session row.
func (m *Manager) CheckLogin(ctx context.Context, name, password, remoteAddr string) (LoginResult, error) {
	user, errFind := m.store.UserByName(ctx, name)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return LoginResult{}, nil
		}
		return LoginResult{}, fmt.Errorf("auth: login lookup: %w", errFind)
	}
	if !VerifyCredentials(user, password) {
		return LoginResult{}, nil
	}
	if user.Disabled {
		return LoginResult{Blocked: true}, nil
	}

	token, errToken := NewToken(m.cfg.TokenLength, m.cfg.SpecialCharacters)
	if errToken != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", errToken)
	}

	now := m.nowFn()
	expires := now.Add(m.cfg.Validity)
	session := models.Session{
		ID:            uuid.NewString(),
		SecretHash:    HashToken(token),
		IssuedAt:      now,
		ExpiresAt:     expires,
		RemoteAddress: remoteAddr,
		UserID:        user.ID,
	}
	if errCreate := m.store.CreateSession(ctx, &session); errCreate != nil {
		return LoginResult{}, fmt.Errorf("auth: create session: %w", errCreate)
	}

	return LoginResult{
		Success: true,
		Session: &session,
		Cookie: &CookieSpec{
			Name:           m.cfg.CookieName,
			Value:          token,
			Path:           "/",
			Expires:        expires,
			HTTPOnly:       true,
			SameSiteStrict: true,
		},
	}, nil
}

// SessionByToken resolves a presented bearer token to its session. Any
// token that does not hash to a persisted secret yields no session. Store
// faults are logged and reported as no-session so the caller's auth gate
// stays total.
func (m *Manager) SessionByToken(ctx context.Context, token string) *models.Session {
	if token == "" {
		return nil
	}
	session, errFind := m.store.SessionBySecretHash(ctx, HashToken(token))
	if errFind != nil {
		if !errors.Is(errFind, store.ErrNotFound) {
			log.WithError(errFind).Warn("auth: session lookup failed")
		}
		return nil
	}
	return session
}

// SessionByID returns the valid session with the given id.
func (m *Manager) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	session, errFind := m.store.SessionByID(ctx, id, m.nowFn())
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return nil, nil
		}
		return nil, errFind
	}
	return session, nil
}

// SessionsForUser returns the currently valid sessions of an account.
func (m *Manager) SessionsForUser(ctx context.Context, userID uint64) ([]models.Session, error) {
	return m.store.SessionsForUser(ctx, userID, m.nowFn())
}

// AllValidSessions returns every currently valid session.
func (m *Manager) AllValidSessions(ctx context.Context) ([]models.Session, error) {
	return m.store.ValidSessions(ctx, m.nowFn())
}

// DestroySession revokes a single session.
func (m *Manager) DestroySession(ctx context.Context, id string) error {
	return m.store.DeleteSession(ctx, id)
}

// RemoveSessionsForUser revokes every session of an account. Used when an
// administrator deletes the account.
func (m *Manager) RemoveSessionsForUser(ctx context.Context, userID uint64) error {
	return m.store.DeleteSessionsForUser(ctx, userID)
}
