package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/disqus-embed/internal/config"
	"github.com/2389/disqus-embed/internal/store"
)

func TestParseBootstrapArgs(t *testing.T) {
	got, err := parseBootstrapArgs([]string{"--name", " root ", "--email=root@example.com", "--password", "hunter2222"})
	require.NoError(t, err)
	assert.Equal(t, bootstrapArgs{name: "root", email: "root@example.com", password: "hunter2222"}, got)

	tests := []struct {
		name string
		args []string
	}{
		{"missing name", []string{"--password", "hunter2222"}},
		{"blank name", []string{"--name", "  ", "--password", "hunter2222"}},
		{"short password", []string{"--name", "root", "--password", "x"}},
		{"missing value", []string{"--name"}},
		{"unknown flag", []string{"--name", "root", "--admin"}},
		{"unknown assignment", []string{"--role=admin"}},
		{"positional", []string{"root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBootstrapArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := `
domain = "example"
noscript_message = "Enable *JavaScript*."

[behavior]
inherit_login = true
track_newcomment_ga = true

[advanced]
public_key = "pub"
secret_key = "sec"

[advanced.sso]
enabled = true
name = "Example"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	settings, err := loadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "example", settings.Domain)
	assert.True(t, settings.Behavior.InheritLogin)
	assert.True(t, settings.Behavior.TrackNewCommentGA)
	assert.False(t, settings.Behavior.Localize)
	assert.Equal(t, "sec", settings.Advanced.SecretKey)
	assert.True(t, settings.Advanced.SSO.Enabled)
	assert.Equal(t, "Example", settings.Advanced.SSO.Name)
}

func TestLoadSettingsFile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("domian = \"typo\"\n"), 0600))

	_, err := loadSettingsFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domian")
}

func TestSeedSettings(t *testing.T) {
	got := seedSettings(config.DisqusConfig{
		Domain:       "example",
		InheritLogin: true,
		SecretKey:    "sec",
		SSO:          config.SSOConfig{Enabled: true, LoginURL: "https://example.com/login"},
	})

	assert.Equal(t, "example", got.Domain)
	assert.True(t, got.Behavior.InheritLogin)
	assert.True(t, got.SecretKeyPresent())
	assert.Equal(t, store.SSOSettings{Enabled: true, LoginURL: "https://example.com/login"}, got.Advanced.SSO)
}

func TestSetupLogger(t *testing.T) {
	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: "text"})
	assert.False(t, logger.Enabled(t.Context(), -4))
	assert.True(t, logger.Enabled(t.Context(), 4))

	derived := logger.With("component", "test").WithGroup("g")
	assert.NotNil(t, derived)
}
