package handlers

import (
	"fmt"
	"time"

	"github.com/mwdev22/webpanel/internal/auth"
	"github.com/mwdev22/webpanel/internal/router"
)

// SessionHandler exposes session administration.
type SessionHandler struct {
	auth *auth.Manager
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(authMgr *auth.Manager) *SessionHandler {
	return &SessionHandler{auth: authMgr}
}

// sessionSummary is the admin-facing view of one live session. Secrets are
// never included.
type sessionSummary struct {
	SessionID     string    `json:"session_id"`
	UserID        uint64    `json:"user_id"`
	Username      string    `json:"username"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	RemoteAddress string    `json:"remote_address"`
}

// List returns every currently valid session.
func (h *SessionHandler) List(r *router.Request) (router.Result, error) {
	sessions, errList := h.auth.AllValidSessions(r.C.Request.Context())
	if errList != nil {
		return nil, fmt.Errorf("handlers: list sessions: %w", errList)
	}
	summaries := make([]sessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary := sessionSummary{
			SessionID:     session.ID,
			UserID:        session.UserID,
			IssuedAt:      session.IssuedAt,
			ExpiresAt:     session.ExpiresAt,
			RemoteAddress: session.RemoteAddress,
		}
		if session.User != nil {
			summary.Username = session.User.Name
		}
		summaries = append(summaries, summary)
	}
	return router.JSONResult{Payload: summaries}, nil
}
