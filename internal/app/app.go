// Package app wires configuration, storage, and the dispatcher into a
// running HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mwdev22/webpanel/internal/auth"
	"github.com/mwdev22/webpanel/internal/config"
	"github.com/mwdev22/webpanel/internal/db"
	"github.com/mwdev22/webpanel/internal/handlers"
	"github.com/mwdev22/webpanel/internal/ratelimit"
	"github.com/mwdev22/webpanel/internal/router"
	"github.com/mwdev22/webpanel/internal/store"
	"github.com/mwdev22/webpanel/internal/views"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Run starts the application and blocks until the context is canceled or the
// server fails. A positive portOverride wins over the configured port.
func Run(ctx context.Context, configPath string, portOverride int) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	if portOverride > 0 {
		cfg.Server.Port = portOverride
	}

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return fmt.Errorf("app: open database: %w", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return fmt.Errorf("app: migrate: %w", errMigrate)
	}

	st := store.New(conn)
	authMgr := auth.NewManager(st, cfg.Session, nil)
	limiter := ratelimit.NewManager(cfg.RateLimit, nil, nil)
	renderer := views.NewRenderer(cfg.Views)

	registry, errRegistry := handlers.BuildRegistry(cfg, st, authMgr)
	if errRegistry != nil {
		return fmt.Errorf("app: build routes: %w", errRegistry)
	}
	for _, route := range registry.Routes() {
		log.Debugf("registered route %s", route.Path)
	}
	log.Infof("serving %d routes", len(registry.Routes()))
	dispatcher := router.NewDispatcher(
		registry, authMgr, limiter, renderer,
		cfg.Router, cfg.Session, cfg.Server.RequestTimeout,
	)

	engine := newEngine(cfg, dispatcher)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on port %d", cfg.Server.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return fmt.Errorf("app: shutdown: %w", errShutdown)
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", errServe)
	}
}

// newEngine builds the gin engine. Every dynamic route flows through the
// dispatcher; gin only serves static assets and the root redirect directly.
func newEngine(cfg config.Config, dispatcher *router.Dispatcher) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.Static("/static", cfg.Views.Directory+"/static")
	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, cfg.Router.DefaultRoute)
	})
	engine.NoRoute(dispatcher.Handle)
	return engine
}
