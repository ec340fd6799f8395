// ABOUTME: Configuration loading and parsing for disqus-embed
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// MinSecretLength is the minimum accepted length of auth.jwt_secret.
const MinSecretLength = 32

// Config represents the complete disqus-embed configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Disqus   DisqusConfig   `yaml:"disqus"`
	Render   RenderConfig   `yaml:"render"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"-"`

	TokenTTLRaw string `yaml:"token_ttl"`
}

// DisqusConfig holds the initial widget settings. They are written to the
// settings table on first start and edited through the API afterwards.
type DisqusConfig struct {
	Domain            string    `yaml:"domain"`
	InheritLogin      bool      `yaml:"inherit_login"`
	Localize          bool      `yaml:"localize"`
	TrackNewCommentGA bool      `yaml:"track_newcomment_ga"`
	NotifyNewComment  bool      `yaml:"notify_newcomment"`
	PublicKey         string    `yaml:"public_key"`
	SecretKey         string    `yaml:"secret_key"`
	SSO               SSOConfig `yaml:"sso"`
	NoScriptMessage   string    `yaml:"noscript_message"` // Markdown
}

// SSOConfig holds single sign-on button configuration
type SSOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Name      string `yaml:"name"`
	LoginURL  string `yaml:"login_url"`
	LogoutURL string `yaml:"logout_url"`
	Button    string `yaml:"button"`
	Icon      string `yaml:"icon"`
}

// RenderConfig holds render pipeline and cache configuration
type RenderConfig struct {
	CacheTTL        time.Duration     `yaml:"-"`
	CacheMaxEntries int               `yaml:"cache_max_entries"`
	VaryByLanguage  bool              `yaml:"vary_by_language"`
	Languages       []string          `yaml:"languages"`
	Assets          map[string]string `yaml:"assets"` // library ID -> script URL

	CacheTTLRaw string `yaml:"cache_ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values that are optional in the config file.
func applyDefaults(cfg *Config) {
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Render.CacheTTL == 0 {
		cfg.Render.CacheTTL = 10 * time.Minute
	}
	if cfg.Render.CacheMaxEntries == 0 {
		cfg.Render.CacheMaxEntries = 10_000
	}
	if len(cfg.Render.Languages) == 0 {
		cfg.Render.Languages = []string{"en"}
	}
	if cfg.Render.Assets == nil {
		cfg.Render.Assets = map[string]string{}
	}
	defaultAssets := map[string]string{
		"disqus/disqus":       "/static/disqus.js",
		"disqus/ga":           "/static/disqus-ga.js",
		"disqus/notification": "/static/disqus-notification.js",
	}
	for id, src := range defaultAssets {
		if _, ok := cfg.Render.Assets[id]; !ok {
			cfg.Render.Assets[id] = src
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// An empty secret disables login; a short one is a mistake
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinSecretLength)
	}

	if c.Render.CacheMaxEntries < 0 {
		return fmt.Errorf("render.cache_max_entries must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	if cfg.Render.CacheTTLRaw != "" {
		cfg.Render.CacheTTL, err = time.ParseDuration(cfg.Render.CacheTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing cache_ttl %q: %w", cfg.Render.CacheTTLRaw, err)
		}
	}

	return nil
}
