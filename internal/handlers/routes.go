package handlers

import (
	"net/http"
	"time"

	"github.com/mwdev22/webpanel/internal/auth"
	"github.com/mwdev22/webpanel/internal/config"
	"github.com/mwdev22/webpanel/internal/models"
	"github.com/mwdev22/webpanel/internal/ratelimit"
	"github.com/mwdev22/webpanel/internal/router"
	"github.com/mwdev22/webpanel/internal/store"
)

// credentialRatePolicy throttles the credential endpoints. Excess attempts
// keep extending the window, so a brute-force client stays locked out.
var credentialRatePolicy = ratelimit.Policy{
	MaxRequests:  5,
	Window:       time.Minute,
	PreserveRate: true,
	Message:      "You are being rate limited.",
}

// BuildRegistry assembles the full route table.
func BuildRegistry(cfg config.Config, st *store.Store, authMgr *auth.Manager) (*router.Registry, error) {
	authHandler := NewAuthHandler(st, authMgr)
	userHandler := NewUserHandler(st, authMgr)
	sessionHandler := NewSessionHandler(authMgr)

	api := func(suffix string) string { return cfg.Router.APIPrefix + suffix }

	return router.NewRegistry(
		&router.Route{
			Path:      api("auth/validate-login"),
			Kind:      router.KindAPI,
			Methods:   []string{http.MethodPost},
			Body:      true,
			RateLimit: &credentialRatePolicy,
			Handler:   authHandler.Login,
		},
		&router.Route{
			Path:      api("auth/register"),
			Kind:      router.KindAPI,
			Methods:   []string{http.MethodPost},
			Body:      true,
			RateLimit: &credentialRatePolicy,
			Handler:   authHandler.Register,
		},
		&router.Route{
			Path:          api("auth/change-password"),
			Kind:          router.KindAPI,
			Methods:       []string{http.MethodPatch},
			RequiresLogin: true,
			Body:          true,
			Handler:       authHandler.ChangePassword,
		},
		&router.Route{
			Path:          api("auth/logout"),
			Kind:          router.KindAPI,
			Methods:       []string{http.MethodPost},
			RequiresLogin: true,
			Handler:       authHandler.Logout,
		},
		&router.Route{
			Path:          api("users/identity"),
			Kind:          router.KindAPI,
			Methods:       []string{http.MethodGet},
			RequiresLogin: true,
			Handler:       userHandler.Identity,
		},
		&router.Route{
			Path:          api("users/list"),
			Kind:          router.KindAPI,
			Methods:       []string{http.MethodGet},
			RequiresLogin: true,
			RequiredRoles: []models.Role{models.RoleAdmin},
			Query:         []router.QueryParam{{Name: "filter"}},
			Handler:       userHandler.List,
		},
		&router.Route{
			Path:          api("users/update"),
			Kind:          router.KindAPI,
			Methods:       []string{http.MethodPatch, http.MethodDelete},
			RequiresLogin: true,
			RequiredRoles: []models.Role{models.RoleAdmin},
			Body:          true,
			Handler:       userHandler.Update,
		},
		&router.Route{
			Path:          api("sessions/list"),
			Kind:          router.KindAPI,
			Methods:       []string{http.MethodGet},
			RequiresLogin: true,
			RequiredRoles: []models.Role{models.RoleAdmin},
			Handler:       sessionHandler.List,
		},

		&router.Route{
			Path:                 "/login",
			Kind:                 router.KindPage,
			Directory:            "pages/login.html",
			RedirectIfAuthorized: cfg.Router.PanelRoute,
			Handler:              renderPage,
		},
		&router.Route{
			Path:                 "/register",
			Kind:                 router.KindPage,
			Directory:            "pages/register.html",
			RedirectIfAuthorized: cfg.Router.PanelRoute,
			Handler:              renderPage,
		},
		&router.Route{
			Path:          "/panel",
			Kind:          router.KindPage,
			Directory:     "pages/panel.html",
			RequiresLogin: true,
			Handler:       renderPage,
		},
		&router.Route{
			Path:          "/updates",
			Kind:          router.KindPage,
			Directory:     "pages/updates.html",
			RequiresLogin: true,
			Handler:       renderPage,
		},
	)
}
