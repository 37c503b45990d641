package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, errLoad := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if errLoad != nil {
		t.Fatalf("Load returned error: %v", errLoad)
	}
	if cfg.Server.Port != defaultPort {
		t.Fatalf("port = %d, want %d", cfg.Server.Port, defaultPort)
	}
	if cfg.Session.CookieName != defaultCookieName {
		t.Fatalf("cookie name = %q, want %q", cfg.Session.CookieName, defaultCookieName)
	}
	if cfg.Session.Validity != defaultSessionValidity {
		t.Fatalf("validity = %v, want %v", cfg.Session.Validity, defaultSessionValidity)
	}
	if cfg.Router.APIPrefix != defaultAPIPrefix {
		t.Fatalf("api prefix = %q, want %q", cfg.Router.APIPrefix, defaultAPIPrefix)
	}
}

func TestLoadReadsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
server:
  port: 9000
  request-timeout: 5s
session:
  cookie-name: panel_session
  validity: 1h
  token-length: 64
router:
  api-prefix: backend
`
	if errWrite := os.WriteFile(path, []byte(payload), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("Load returned error: %v", errLoad)
	}
	if cfg.Server.Port != 9000 {
		t.Fatalf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Session.CookieName != "panel_session" {
		t.Fatalf("cookie name = %q", cfg.Session.CookieName)
	}
	if cfg.Session.Validity != time.Hour {
		t.Fatalf("validity = %v, want 1h", cfg.Session.Validity)
	}
	if cfg.Session.TokenLength != 64 {
		t.Fatalf("token length = %d, want 64", cfg.Session.TokenLength)
	}
	if cfg.Router.APIPrefix != "/backend/" {
		t.Fatalf("api prefix = %q, want /backend/", cfg.Router.APIPrefix)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte("server: ["), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	if _, errLoad := Load(path); errLoad == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `
database:
  dsn: file:from-file.db
session:
  cookie-name: from_file
  validity: 1h
`
	if errWrite := os.WriteFile(path, []byte(payload), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	t.Setenv(EnvDBConnection, "postgres://env-host/panel")
	t.Setenv(EnvCookieName, "from_env")
	t.Setenv(EnvValidity, "30m")

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("Load returned error: %v", errLoad)
	}
	if cfg.Database.DSN != "postgres://env-host/panel" {
		t.Fatalf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Session.CookieName != "from_env" {
		t.Fatalf("cookie name = %q", cfg.Session.CookieName)
	}
	if cfg.Session.Validity != 30*time.Minute {
		t.Fatalf("validity = %v, want 30m", cfg.Session.Validity)
	}
}

func TestNormalizeRepairsOutOfRangeValues(t *testing.T) {
	cfg := Config{}
	cfg.Server.Port = -1
	cfg.Session.TokenLength = 0
	cfg.Router.APIPrefix = "api"
	normalize(&cfg)

	if cfg.Server.Port != defaultPort {
		t.Fatalf("port = %d, want %d", cfg.Server.Port, defaultPort)
	}
	if cfg.Session.TokenLength != defaultTokenLength {
		t.Fatalf("token length = %d, want %d", cfg.Session.TokenLength, defaultTokenLength)
	}
	if cfg.Router.APIPrefix != "/api/" {
		t.Fatalf("api prefix = %q, want /api/", cfg.Router.APIPrefix)
	}
}

func TestResolveConfigPathPrefersFlagOverEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/from/env/config.yaml")
	if got := ResolveConfigPath("/from/flag/config.yaml"); got != "/from/flag/config.yaml" {
		t.Fatalf("resolved = %q", got)
	}
	if got := ResolveConfigPath(""); got != "/from/env/config.yaml" {
		t.Fatalf("resolved = %q", got)
	}
}
