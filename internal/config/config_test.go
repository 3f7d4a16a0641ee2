package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "8000")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("SECRET_KEY_FILE", "")
	t.Setenv("JWT_EXPIRE_MINUTES", "")
	t.Setenv("COOKIE_SECURE", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("OAUTH_REDIRECT_BASE", "")
	t.Setenv("MCP_SERVER_URL", "")
}

func TestLoadDefaultsInDevelopment(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.SecretKey != "dev" {
		t.Fatalf("expected development secret fallback, got %q", cfg.SecretKey)
	}
	if cfg.SessionTTL != 60*time.Minute {
		t.Fatalf("expected 60 minute session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.CookieSecure {
		t.Fatal("expected insecure cookies by default")
	}
	if cfg.OAuthRedirectBase != "http://localhost:8000" {
		t.Fatalf("unexpected redirect base %q", cfg.OAuthRedirectBase)
	}
	if cfg.MCPServerURL != "http://localhost:8000/mcp" {
		t.Fatalf("unexpected MCP server URL %q", cfg.MCPServerURL)
	}
	if cfg.MobileApp != "PitchMate" || cfg.MobileOS != "ETC" {
		t.Fatalf("unexpected client identification %q/%q", cfg.MobileOS, cfg.MobileApp)
	}
	if !cfg.UseInMemoryStore() {
		t.Fatal("expected in-memory store by default")
	}
	if cfg.HTTPAddress() != ":8000" {
		t.Fatalf("unexpected address %q", cfg.HTTPAddress())
	}
}

func TestLoadParsesSessionSettings(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_EXPIRE_MINUTES", "15")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("OAUTH_REDIRECT_BASE", "https://api.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Fatalf("expected 15 minute TTL, got %s", cfg.SessionTTL)
	}
	if !cfg.CookieSecure {
		t.Fatal("expected secure cookies")
	}
	if cfg.OAuthRedirectBase != "https://api.example.com" {
		t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.OAuthRedirectBase)
	}
}

func TestLoadRejectsInvalidExpiry(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_EXPIRE_MINUTES", "soon")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JWT_EXPIRE_MINUTES") {
		t.Fatalf("expected JWT_EXPIRE_MINUTES error, got %v", err)
	}
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://example.com")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when SECRET_KEY missing outside development")
	}
	if !strings.Contains(err.Error(), "SECRET_KEY is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadReadsSecretFromFile(t *testing.T) {
	setBaseEnv(t)
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("  from-file \n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("SECRET_KEY_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.SecretKey != "from-file" {
		t.Fatalf("expected secret from file, got %q", cfg.SecretKey)
	}
}

func TestLoadRejectsWildcardOriginsOutsideDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://example.com,*")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ALLOWED_ORIGINS contains wildcard")
	}
	if !strings.Contains(err.Error(), "cannot contain wildcard") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRequiresAllowedOriginsOutsideDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "   ")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ALLOWED_ORIGINS is empty")
	}
	if !strings.Contains(err.Error(), "must define at least one origin") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATA_STORE", "postgres")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL is not set") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestLoadRejectsUnknownDataStore(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATA_STORE", "mongo")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "unsupported DATA_STORE") {
		t.Fatalf("expected DATA_STORE error, got %v", err)
	}
}
