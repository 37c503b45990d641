package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwdev22/webpanel/internal/config"
	"github.com/mwdev22/webpanel/internal/db"
	"github.com/mwdev22/webpanel/internal/models"
	"github.com/mwdev22/webpanel/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	conn, errOpen := db.Open(filepath.Join(t.TempDir(), "panel.db"))
	if errOpen != nil {
		t.Fatalf("open database: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return store.New(conn)
}

func newTestManager(t *testing.T, st *store.Store, nowFn func() time.Time) *Manager {
	t.Helper()
	cfg := config.SessionConfig{
		CookieName:  "session",
		Validity:    time.Hour,
		TokenLength: 64,
	}
	return NewManager(st, cfg, nowFn)
}

func createAccount(t *testing.T, st *store.Store, name, password string, disabled bool) *models.User {
	t.Helper()
	ctx := context.Background()
	user := &models.User{
		Name:     name,
		Roles:    models.EncodeRoles([]models.Role{models.RoleDefault}),
		Disabled: disabled,
	}
	if errCreate := st.CreateUser(ctx, user); errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	hash := HashCredentials(password, Salt(name, user.ID))
	if errUpdate := st.UpdateUser(ctx, user.ID, map[string]any{"password_hash": hash}); errUpdate != nil {
		t.Fatalf("store hash: %v", errUpdate)
	}
	user.PasswordHash = hash
	return user
}

func TestHashCredentialsKnownVector(t *testing.T) {
	// The bootstrap administrator's preset hash: password "admin", salt
	// "admin" + id 1.
	const want = "0a37b33d81e4e7f80ea89dd32e8ee12a939c154e6767cd035c467f8de1eadedc"
	if got := HashCredentials("admin", Salt("admin", 1)); got != want {
		t.Fatalf("hash = %s, want %s", got, want)
	}
}

func TestVerifyCredentials(t *testing.T) {
	st := newTestStore(t)
	user := createAccount(t, st, "alice", "correct horse", false)

	if !VerifyCredentials(user, "correct horse") {
		t.Fatal("correct password rejected")
	}
	if VerifyCredentials(user, "wrong horse") {
		t.Fatal("wrong password accepted")
	}
	if VerifyCredentials(nil, "anything") {
		t.Fatal("nil user accepted")
	}
}

func TestCheckLoginUnknownAndWrongAreIndistinguishable(t *testing.T) {
	st := newTestStore(t)
	createAccount(t, st, "alice", "password123", false)
	mgr := newTestManager(t, st, nil)
	ctx := context.Background()

	unknown, errUnknown := mgr.CheckLogin(ctx, "nobody", "password123", "")
	if errUnknown != nil {
		t.Fatalf("unknown user: %v", errUnknown)
	}
	wrong, errWrong := mgr.CheckLogin(ctx, "alice", "not-the-password", "")
	if errWrong != nil {
		t.Fatalf("wrong password: %v", errWrong)
	}
	if unknown != wrong {
		t.Fatalf("results differ: unknown=%+v wrong=%+v", unknown, wrong)
	}
	if unknown.Success || unknown.Blocked || unknown.Cookie != nil {
		t.Fatalf("failed login leaked state: %+v", unknown)
	}
}

func TestCheckLoginDisabledAccountIsBlocked(t *testing.T) {
	st := newTestStore(t)
	createAccount(t, st, "mallory", "password123", true)
	mgr := newTestManager(t, st, nil)

	result, errLogin := mgr.CheckLogin(context.Background(), "mallory", "password123", "")
	if errLogin != nil {
		t.Fatalf("CheckLogin returned error: %v", errLogin)
	}
	if !result.Blocked || result.Success {
		t.Fatalf("result = %+v, want blocked without success", result)
	}
	if result.Cookie != nil || result.Session != nil {
		t.Fatal("blocked account was issued a session")
	}
}

func TestCheckLoginIssuesSessionAndCookie(t *testing.T) {
	st := newTestStore(t)
	user := createAccount(t, st, "alice", "password123", false)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mgr := newTestManager(t, st, func() time.Time { return now })
	ctx := context.Background()

	result, errLogin := mgr.CheckLogin(ctx, "alice", "password123", "203.0.113.9")
	if errLogin != nil {
		t.Fatalf("CheckLogin returned error: %v", errLogin)
	}
	if !result.Success || result.Cookie == nil || result.Session == nil {
		t.Fatalf("result = %+v, want issued session", result)
	}

	cookie := result.Cookie
	if cookie.Name != "session" {
		t.Fatalf("cookie name = %q", cookie.Name)
	}
	if len(cookie.Value) != 64 {
		t.Fatalf("token length = %d, want 64", len(cookie.Value))
	}
	if !cookie.HTTPOnly || !cookie.SameSiteStrict || cookie.Path != "/" {
		t.Fatalf("cookie attributes = %+v", cookie)
	}
	if !cookie.Expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("cookie expiry = %v", cookie.Expires)
	}

	session := mgr.SessionByToken(ctx, cookie.Value)
	if session == nil {
		t.Fatal("issued token does not resolve")
	}
	if session.UserID != user.ID {
		t.Fatalf("session user = %d, want %d", session.UserID, user.ID)
	}
	if session.RemoteAddress != "203.0.113.9" {
		t.Fatalf("remote address = %q", session.RemoteAddress)
	}
	if session.SecretHash != HashToken(cookie.Value) {
		t.Fatal("stored secret is not the token hash")
	}
}

func TestCheckLoginCreatesDistinctSessions(t *testing.T) {
	st := newTestStore(t)
	createAccount(t, st, "alice", "password123", false)
	mgr := newTestManager(t, st, nil)
	ctx := context.Background()

	first, _ := mgr.CheckLogin(ctx, "alice", "password123", "")
	second, _ := mgr.CheckLogin(ctx, "alice", "password123", "")
	if first.Session.ID == second.Session.ID {
		t.Fatal("two logins share a session id")
	}
	if first.Cookie.Value == second.Cookie.Value {
		t.Fatal("two logins share a token")
	}
}

func TestSessionByTokenRejectsAlteredTokens(t *testing.T) {
	st := newTestStore(t)
	createAccount(t, st, "alice", "password123", false)
	mgr := newTestManager(t, st, nil)
	ctx := context.Background()

	result, _ := mgr.CheckLogin(ctx, "alice", "password123", "")
	token := result.Cookie.Value

	if mgr.SessionByToken(ctx, token[:len(token)-1]) != nil {
		t.Fatal("truncated token resolved")
	}
	flipped := strings.ToLower(token)
	if flipped != token && mgr.SessionByToken(ctx, flipped) != nil {
		t.Fatal("case-altered token resolved")
	}
	if mgr.SessionByToken(ctx, "") != nil {
		t.Fatal("empty token resolved")
	}
}

func TestSessionExpiry(t *testing.T) {
	st := newTestStore(t)
	createAccount(t, st, "alice", "password123", false)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mgr := newTestManager(t, st, func() time.Time { return now })
	ctx := context.Background()

	result, _ := mgr.CheckLogin(ctx, "alice", "password123", "")
	session := mgr.SessionByToken(ctx, result.Cookie.Value)
	if !session.IsValid(now) {
		t.Fatal("fresh session reported invalid")
	}

	later := now.Add(time.Hour + time.Second)
	if session.IsValid(later) {
		t.Fatal("expired session reported valid")
	}
	if sessions, _ := mgr.SessionsForUser(ctx, session.UserID); len(sessions) != 1 {
		t.Fatalf("valid sessions before expiry = %d, want 1", len(sessions))
	}
}

func TestDestroySessionRevokesToken(t *testing.T) {
	st := newTestStore(t)
	createAccount(t, st, "alice", "password123", false)
	mgr := newTestManager(t, st, nil)
	ctx := context.Background()

	result, _ := mgr.CheckLogin(ctx, "alice", "password123", "")
	if errDestroy := mgr.DestroySession(ctx, result.Session.ID); errDestroy != nil {
		t.Fatalf("DestroySession returned error: %v", errDestroy)
	}
	if mgr.SessionByToken(ctx, result.Cookie.Value) != nil {
		t.Fatal("revoked token still resolves")
	}
}

func TestRemoveSessionsForUser(t *testing.T) {
	st := newTestStore(t)
	alice := createAccount(t, st, "alice", "password123", false)
	createAccount(t, st, "bob", "password123", false)
	mgr := newTestManager(t, st, nil)
	ctx := context.Background()

	aliceLogin, _ := mgr.CheckLogin(ctx, "alice", "password123", "")
	bobLogin, _ := mgr.CheckLogin(ctx, "bob", "password123", "")

	if errRemove := mgr.RemoveSessionsForUser(ctx, alice.ID); errRemove != nil {
		t.Fatalf("RemoveSessionsForUser returned error: %v", errRemove)
	}
	if mgr.SessionByToken(ctx, aliceLogin.Cookie.Value) != nil {
		t.Fatal("alice's token survived the cascade")
	}
	if mgr.SessionByToken(ctx, bobLogin.Cookie.Value) == nil {
		t.Fatal("bob's token was revoked by alice's cascade")
	}
}
