// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  token_ttl: "2h"

disqus:
  domain: "example"
  inherit_login: true
  localize: true
  track_newcomment_ga: true
  notify_newcomment: false
  public_key: "pub"
  secret_key: "sec"
  sso:
    enabled: true
    name: "Example"
    login_url: "https://example.com/login"
  noscript_message: "Enable *JavaScript*"

render:
  cache_ttl: "30s"
  cache_max_entries: 50
  vary_by_language: true
  languages: ["en", "fr"]
  assets:
    disqus/disqus: "https://cdn.example.com/disqus.js"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want %v", cfg.Auth.TokenTTL, 2*time.Hour)
	}

	if cfg.Disqus.Domain != "example" {
		t.Errorf("Disqus.Domain = %q, want %q", cfg.Disqus.Domain, "example")
	}
	if !cfg.Disqus.InheritLogin || !cfg.Disqus.Localize || !cfg.Disqus.TrackNewCommentGA {
		t.Errorf("Disqus behavior flags not parsed: %+v", cfg.Disqus)
	}
	if cfg.Disqus.NotifyNewComment {
		t.Error("Disqus.NotifyNewComment = true, want false")
	}
	if !cfg.Disqus.SSO.Enabled || cfg.Disqus.SSO.LoginURL != "https://example.com/login" {
		t.Errorf("Disqus.SSO = %+v", cfg.Disqus.SSO)
	}

	if cfg.Render.CacheTTL != 30*time.Second {
		t.Errorf("Render.CacheTTL = %v, want %v", cfg.Render.CacheTTL, 30*time.Second)
	}
	if cfg.Render.CacheMaxEntries != 50 {
		t.Errorf("Render.CacheMaxEntries = %d, want 50", cfg.Render.CacheMaxEntries)
	}
	if !cfg.Render.VaryByLanguage {
		t.Error("Render.VaryByLanguage = false, want true")
	}
	if len(cfg.Render.Languages) != 2 || cfg.Render.Languages[1] != "fr" {
		t.Errorf("Render.Languages = %v, want [en fr]", cfg.Render.Languages)
	}
	if got := cfg.Render.Assets["disqus/disqus"]; got != "https://cdn.example.com/disqus.js" {
		t.Errorf("Render.Assets[disqus/disqus] = %q, want configured override", got)
	}
	if got := cfg.Render.Assets["disqus/ga"]; got != "/static/disqus-ga.js" {
		t.Errorf("Render.Assets[disqus/ga] = %q, want default", got)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8080"
database:
  path: "./test.db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Render.CacheTTL != 10*time.Minute {
		t.Errorf("Render.CacheTTL = %v, want 10m", cfg.Render.CacheTTL)
	}
	if cfg.Render.CacheMaxEntries != 10_000 {
		t.Errorf("Render.CacheMaxEntries = %d, want 10000", cfg.Render.CacheMaxEntries)
	}
	if len(cfg.Render.Languages) != 1 || cfg.Render.Languages[0] != "en" {
		t.Errorf("Render.Languages = %v, want [en]", cfg.Render.Languages)
	}
	if len(cfg.Render.Assets) != 3 {
		t.Errorf("Render.Assets = %v, want 3 default entries", cfg.Render.Assets)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "env-secret-that-is-at-least-32-bytes")
	t.Setenv("TEST_DISQUS_SECRET", "disqus-secret-from-env")

	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
disqus:
  secret_key: "${TEST_DISQUS_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "env-secret-that-is-at-least-32-bytes" {
		t.Errorf("Auth.JWTSecret = %q, want value from env", cfg.Auth.JWTSecret)
	}
	if cfg.Disqus.SecretKey != "disqus-secret-from-env" {
		t.Errorf("Disqus.SecretKey = %q, want value from env", cfg.Disqus.SecretKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "server: [unclosed")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "invalid token_ttl",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
auth:
  token_ttl: "forever"
`,
			wantErrSubstr: "token_ttl",
		},
		{
			name: "invalid cache_ttl",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
render:
  cache_ttl: "10 minutes"
`,
			wantErrSubstr: "cache_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.configContent))
			if err == nil {
				t.Fatalf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "missing http_addr",
			configContent: `
server:
  http_addr: ""
database:
  path: "./test.db"
`,
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "missing database path",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: ""
`,
			wantErrSubstr: "database.path is required",
		},
		{
			name: "short jwt secret",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
database:
  path: "./test.db"
auth:
  jwt_secret: "too-short"
`,
			wantErrSubstr: "auth.jwt_secret must be at least",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.configContent))
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}

			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single env var", input: "${FOO}", expected: "bar"},
		{name: "env var with surrounding text", input: "prefix-${FOO}-suffix", expected: "prefix-bar-suffix"},
		{name: "multiple env vars", input: "${FOO}/${BAZ}", expected: "bar/qux"},
		{name: "no env vars", input: "no-vars-here", expected: "no-vars-here"},
		{name: "unset env var", input: "${UNSET_VAR_FOR_EMBED_TEST}", expected: ""},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
