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

// UserHandler owns account introspection and administration.
type UserHandler struct {
	store *store.Store
	auth  *auth.Manager
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(st *store.Store, authMgr *auth.Manager) *UserHandler {
	return &UserHandler{store: st, auth: authMgr}
}

// identityResponse describes the calling account and its session.
type identityResponse struct {
	Username    string   `json:"username"`
	UserID      uint64   `json:"user_id"`
	SessionID   string   `json:"session_id"`
	Permissions []string `json:"permissions"`
}

// Identity returns the calling account's own details.
func (h *UserHandler) Identity(r *router.Request) (router.Result, error) {
	return router.JSONResult{Payload: identityResponse{
		Username:    r.User.Name,
		UserID:      r.User.ID,
		SessionID:   r.Session.ID,
		Permissions: models.RoleNames(models.ParseRoles(r.User.Roles)),
	}}, nil
}

// userSummary is the admin-facing view of one account.
type userSummary struct {
	Username    string   `json:"username"`
	UserID      uint64   `json:"user_id"`
	Disabled    bool     `json:"disabled"`
	Permissions []string `json:"permissions"`
}

// List returns every account, optionally narrowed by a name filter.
func (h *UserHandler) List(r *router.Request) (router.Result, error) {
	users, errList := h.store.ListUsers(r.C.Request.Context(), r.C.Query("filter"))
	if errList != nil {
		return nil, fmt.Errorf("handlers: list users: %w", errList)
	}
	summaries := make([]userSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, userSummary{
			Username:    user.Name,
			UserID:      user.ID,
			Disabled:    user.Disabled,
			Permissions: models.RoleNames(models.ParseRoles(user.Roles)),
		})
	}
	return router.JSONResult{Payload: summaries}, nil
}

type updateUserRequest struct {
	UserID  uint64 `json:"user_id"`
	Blocked bool   `json:"blocked"`
}

// Update administers another account. PATCH toggles the blocked flag; DELETE
// removes the account and revokes all of its sessions. The initial account
// can never be modified.
func (h *UserHandler) Update(r *router.Request) (router.Result, error) {
	var body updateUserRequest
	if errUnmarshal := json.Unmarshal(r.Body, &body); errUnmarshal != nil {
		return nil, router.Invalid("You must provide a user identifier.")
	}
	target, errCheck := h.checkTarget(r, body.UserID)
	if errCheck != nil {
		return nil, errCheck
	}

	ctx := r.C.Request.Context()
	switch r.C.Request.Method {
	case http.MethodPatch:
		if errUpdate := h.store.UpdateUser(ctx, target.ID, map[string]any{"disabled": body.Blocked}); errUpdate != nil {
			return nil, fmt.Errorf("handlers: update user: %w", errUpdate)
		}
	case http.MethodDelete:
		// Sessions first so a revoked account cannot keep acting through a
		// live cookie.
		if errSessions := h.auth.RemoveSessionsForUser(ctx, target.ID); errSessions != nil {
			return nil, fmt.Errorf("handlers: revoke sessions: %w", errSessions)
		}
		if errDelete := h.store.DeleteUser(ctx, target.ID); errDelete != nil {
			return nil, fmt.Errorf("handlers: delete user: %w", errDelete)
		}
	}
	return router.NoContentResult{}, nil
}

// checkTarget validates the administered account: it must be named, exist,
// and not be the bootstrap account.
func (h *UserHandler) checkTarget(r *router.Request, userID uint64) (*models.User, error) {
	if userID == 0 {
		return nil, router.Invalid("You must provide a user identifier.")
	}
	target, errFind := h.store.UserByID(r.C.Request.Context(), userID)
	if errFind != nil {
		if errors.Is(errFind, store.ErrNotFound) {
			return nil, router.Invalid("The specified user does not exist.")
		}
		return nil, fmt.Errorf("handlers: target lookup: %w", errFind)
	}
	if target.ID == models.BootstrapUserID {
		return nil, router.Invalid("You cannot modify the initial user.")
	}
	return target, nil
}
