package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by the loader.
const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvCookieName   = "SESSION_COOKIE_NAME"
	EnvValidity     = "SESSION_VALIDITY"
)

// Defaults applied when the config file omits a value.
const (
	defaultPort            = 1337
	defaultRequestTimeout  = 30 * time.Second
	defaultSQLiteDSN       = "file:panel.db"
	// Cookie names must be valid HTTP tokens, so no '|' or ':' here.
	defaultCookieName      = "__SITE_SECURITY"
	defaultTokenLength     = 256
	defaultSessionValidity = 15 * time.Hour
	defaultDefaultRoute    = "/login"
	defaultPanelRoute      = "/panel"
	defaultAPIPrefix       = "/api/"
	defaultViewDirectory   = "web"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request-timeout"`
}

// DatabaseConfig holds the backing store DSN.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SessionConfig holds cookie and token issuance settings.
type SessionConfig struct {
	CookieName        string        `yaml:"cookie-name"`
	Validity          time.Duration `yaml:"validity"`
	TokenLength       int           `yaml:"token-length"`
	SpecialCharacters bool          `yaml:"special-characters"`
}

// RouterConfig holds dispatch settings shared by page and API routes.
type RouterConfig struct {
	// DefaultRoute receives unauthenticated page-route redirects.
	DefaultRoute string `yaml:"default-route"`
	// PanelRoute receives already-authenticated visitors of entry pages.
	PanelRoute string `yaml:"panel-route"`
	// APIPrefix marks paths answered with JSON errors instead of pages.
	APIPrefix string `yaml:"api-prefix"`
}

// RateLimitConfig holds limiter backend settings. Redis is optional; the
// in-memory backend is always available.
type RateLimitConfig struct {
	RedisEnabled  bool   `yaml:"redis-enabled"`
	RedisAddr     string `yaml:"redis-addr"`
	RedisPassword string `yaml:"redis-password"`
	RedisDB       int    `yaml:"redis-db"`
	RedisPrefix   string `yaml:"redis-prefix"`
}

// ViewConfig holds view resolution settings for page routes.
type ViewConfig struct {
	Directory string `yaml:"directory"`
	// Error view identifiers, relative to Directory.
	NotFound     string `yaml:"not-found"`
	Unauthorized string `yaml:"unauthorized"`
	ServerError  string `yaml:"server-error"`
}

// Config is the resolved application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Router    RouterConfig    `yaml:"router"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Views     ViewConfig      `yaml:"views"`
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the YAML config file, fills defaults, and applies environment
// overrides. A missing file yields the default configuration.
func Load(configPath string) (Config, error) {
	cfg := defaults()

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", configPath, errUnmarshal)
		}
	} else if !os.IsNotExist(errRead) {
		return Config{}, fmt.Errorf("config: read %s: %w", configPath, errRead)
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)
	return cfg, nil
}

// defaults returns the configuration used when no file is present.
func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           defaultPort,
			RequestTimeout: defaultRequestTimeout,
		},
		Database: DatabaseConfig{DSN: defaultSQLiteDSN},
		Session: SessionConfig{
			CookieName:        defaultCookieName,
			Validity:          defaultSessionValidity,
			TokenLength:       defaultTokenLength,
			SpecialCharacters: false,
		},
		Router: RouterConfig{
			DefaultRoute: defaultDefaultRoute,
			PanelRoute:   defaultPanelRoute,
			APIPrefix:    defaultAPIPrefix,
		},
		Views: ViewConfig{
			Directory:    defaultViewDirectory,
			NotFound:     "pages/errors/not-found.html",
			Unauthorized: "pages/errors/unauthorized.html",
			ServerError:  "pages/errors/server-error.html",
		},
	}
}

// applyEnvOverrides lets the environment win over file values.
func applyEnvOverrides(cfg *Config) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if name := strings.TrimSpace(os.Getenv(EnvCookieName)); name != "" {
		cfg.Session.CookieName = name
	}
	if raw := strings.TrimSpace(os.Getenv(EnvValidity)); raw != "" {
		if validity, errParse := time.ParseDuration(raw); errParse == nil && validity > 0 {
			cfg.Session.Validity = validity
		}
	}
}

// normalize repairs out-of-range values after file and env merging.
func normalize(cfg *Config) {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = defaultRequestTimeout
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		cfg.Database.DSN = defaultSQLiteDSN
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		cfg.Session.CookieName = defaultCookieName
	}
	if cfg.Session.Validity <= 0 {
		cfg.Session.Validity = defaultSessionValidity
	}
	if cfg.Session.TokenLength <= 0 {
		cfg.Session.TokenLength = defaultTokenLength
	}
	if strings.TrimSpace(cfg.Router.DefaultRoute) == "" {
		cfg.Router.DefaultRoute = defaultDefaultRoute
	}
	if strings.TrimSpace(cfg.Router.PanelRoute) == "" {
		cfg.Router.PanelRoute = defaultPanelRoute
	}
	cfg.Router.APIPrefix = normalizeAPIPrefix(cfg.Router.APIPrefix)
	if strings.TrimSpace(cfg.Views.Directory) == "" {
		cfg.Views.Directory = defaultViewDirectory
	}
	if cfg.RateLimit.RedisDB < 0 {
		cfg.RateLimit.RedisDB = 0
	}
}

// normalizeAPIPrefix forces a leading and trailing slash on the API prefix.
func normalizeAPIPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return defaultAPIPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
