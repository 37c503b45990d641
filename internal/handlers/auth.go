// Package handlers implements the application's route handlers and builds
// the route table the dispatcher serves.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mwdev22/webpanel/internal/auth"
	"github.com/mwdev22/webpanel/internal/models"
	"github.com/mwdev22/webpanel/internal/router"
	"github.com/mwdev22/webpanel/internal/store"
)

// Username bounds enforced at registration.
const (
	minUsernameLength = 4
	maxUsernameLength = 16
	minPasswordLength = 8
)

// AuthHandler owns the credential lifecycle: login, registration, password
// change, and logout.
type AuthHandler struct {
	store *store.Store
	auth  *auth.Manager
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(st *store.Store, authMgr *auth.Manager) *AuthHandler {
	return &AuthHandler{store: st, auth: authMgr}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates credentials and issues a session cookie. Unknown accounts
// and wrong passwords are indistinguishable to the caller.
func (h *AuthHandler) Login(r *router.Request) (router.Result, error) {
	var body loginRequest
	if errUnmarshal := json.Unmarshal(r.Body, &body); errUnmarshal != nil {
		return router.ErrorResult{Status: http.StatusBadRequest, Message: "You must provide valid credentials."}, nil
	}
	if body.Username == "" || body.Password == "" {
		return router.ErrorResult{Status: http.StatusBadRequest, Message: "You must provide valid credentials."}, nil
	}

	result, errLogin := h.auth.CheckLogin(r.C.Request.Context(), body.Username, body.Password, r.C.ClientIP())
	if errLogin != nil {
		return nil, errLogin
	}
	if result.Blocked {
		return router.ErrorResult{Status: http.StatusForbidden, Message: "Your account is blocked."}, nil
	}
	if !result.Success {
		return router.ErrorResult{Status: http.StatusUnauthorized, Message: "Please check your credentials."}, nil
	}

	r.SetCookie(result.Cookie)
	return router.NoContentResult{}, nil
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// Register creates a new default-role account. The password hash is salted
// with the assigned account id, so the row is created first and the hash is
// written in a second step.
func (h *AuthHandler) Register(r *router.Request) (router.Result, error) {
	var body registerRequest
	if errUnmarshal := json.Unmarshal(r.Body, &body); errUnmarshal != nil {
		return nil, router.Invalid("You must provide a username, password, and password confirmation.")
	}
	if errCheck := validateRegistration(body); errCheck != nil {
		return nil, errCheck
	}

	ctx := r.C.Request.Context()
	if _, errFind := h.store.UserByName(ctx, body.Username); errFind == nil {
		return nil, router.Invalid("That user already exists.")
	} else if !errors.Is(errFind, store.ErrNotFound) {
		return nil, fmt.Errorf("handlers: register lookup: %w", errFind)
	}

	user := models.User{
		Name:  body.Username,
		Roles: models.EncodeRoles([]models.Role{models.RoleDefault}),
	}
	if errCreate := h.store.CreateUser(ctx, &user); errCreate != nil {
		return nil, fmt.Errorf("handlers: register create: %w", errCreate)
	}
	hash := auth.HashCredentials(body.Password, auth.Salt(user.Name, user.ID))
	if errUpdate := h.store.UpdateUser(ctx, user.ID, map[string]any{"password_hash": hash}); errUpdate != nil {
		return nil, fmt.Errorf("handlers: register hash: %w", errUpdate)
	}

	return router.NoContentResult{}, nil
}

// validateRegistration checks the registration input in the order the caller
// sees the failures.
func validateRegistration(body registerRequest) error {
	if body.Username == "" || body.Password == "" || body.PasswordConfirm == "" {
		return router.Invalid("You must provide a username, password, and password confirmation.")
	}
	if errCheck := router.Check(len(body.Username) >= minUsernameLength, "Your username is too short."); errCheck != nil {
		return errCheck
	}
	if errCheck := router.Check(len(body.Username) <= maxUsernameLength, "Your username is too long."); errCheck != nil {
		return errCheck
	}
	if errCheck := router.Check(isAlphanumeric(body.Username), "Your username can only contain letters and numbers."); errCheck != nil {
		return errCheck
	}
	if errCheck := router.Check(len(body.Password) >= minPasswordLength, "Your password is too short."); errCheck != nil {
		return errCheck
	}
	return router.Check(body.Password == body.PasswordConfirm, "The passwords do not match.")
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// ChangePassword rotates the caller's password after re-verifying the
// current one. Existing sessions stay valid.
func (h *AuthHandler) ChangePassword(r *router.Request) (router.Result, error) {
	var body changePasswordRequest
	if errUnmarshal := json.Unmarshal(r.Body, &body); errUnmarshal != nil {
		return nil, router.Invalid("You must provide your current password, new password, and new password confirmation.")
	}
	if body.CurrentPassword == "" || body.NewPassword == "" || body.NewPasswordConfirm == "" {
		return nil, router.Invalid("You must provide your current password, new password, and new password confirmation.")
	}
	if errCheck := router.Check(len(body.NewPassword) >= minPasswordLength, "Your new password is too short."); errCheck != nil {
		return nil, errCheck
	}
	if errCheck := router.Check(body.NewPassword == body.NewPasswordConfirm, "The passwords do not match."); errCheck != nil {
		return nil, errCheck
	}
	if !auth.VerifyCredentials(r.User, body.CurrentPassword) {
		return nil, router.Invalid("Your current password is incorrect.")
	}

	hash := auth.HashCredentials(body.NewPassword, auth.Salt(r.User.Name, r.User.ID))
	if errUpdate := h.store.UpdateUser(r.C.Request.Context(), r.User.ID, map[string]any{"password_hash": hash}); errUpdate != nil {
		return nil, fmt.Errorf("handlers: change password: %w", errUpdate)
	}
	return router.NoContentResult{}, nil
}

// Logout revokes the caller's session. The cookie itself is left to expire
// client-side; the revoked token no longer resolves.
func (h *AuthHandler) Logout(r *router.Request) (router.Result, error) {
	if errDestroy := h.auth.DestroySession(r.C.Request.Context(), r.Session.ID); errDestroy != nil {
		return nil, fmt.Errorf("handlers: logout: %w", errDestroy)
	}
	return router.NoContentResult{}, nil
}

// isAlphanumeric reports whether the string is non-empty ASCII letters and
// digits only.
func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
