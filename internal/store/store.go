// ABOUTME: Store interface and data types for disqus-embed persistence
// ABOUTME: Defines Settings, Account structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateAccount is returned when an account name is already taken
var ErrDuplicateAccount = errors.New("account already exists")

// SettingsCacheTag invalidates every render that read the widget settings.
const SettingsCacheTag = "config:disqus.settings"

// Settings holds the persisted widget configuration. It is read once per
// request and treated as immutable for the rest of that request.
type Settings struct {
	Domain          string           `json:"domain" toml:"domain"`
	Behavior        BehaviorSettings `json:"behavior" toml:"behavior"`
	Advanced        AdvancedSettings `json:"advanced" toml:"advanced"`
	NoScriptMessage string           `json:"noscript_message" toml:"noscript_message"`
}

// BehaviorSettings toggles the optional widget features
type BehaviorSettings struct {
	InheritLogin      bool `json:"inherit_login" toml:"inherit_login"`
	Localize          bool `json:"localize" toml:"localize"`
	TrackNewCommentGA bool `json:"track_newcomment_ga" toml:"track_newcomment_ga"`
	NotifyNewComment  bool `json:"notify_newcomment" toml:"notify_newcomment"`
}

// AdvancedSettings holds API credentials and single sign-on configuration
type AdvancedSettings struct {
	PublicKey string      `json:"public_key" toml:"public_key"`
	SecretKey string      `json:"secret_key,omitempty" toml:"secret_key"`
	SSO       SSOSettings `json:"sso" toml:"sso"`
}

// SSOSettings describes the login button shown inside the widget
type SSOSettings struct {
	Enabled   bool   `json:"enabled" toml:"enabled"`
	Name      string `json:"name" toml:"name"`
	LoginURL  string `json:"login_url" toml:"login_url"`
	LogoutURL string `json:"logout_url" toml:"logout_url"`
	Button    string `json:"button" toml:"button"`
	Icon      string `json:"icon" toml:"icon"`
}

// SecretKeyPresent reports whether API requests can be signed.
func (s *Settings) SecretKeyPresent() bool {
	return s.Advanced.SecretKey != ""
}

// CacheTags implements render.CacheableDependency.
func (s *Settings) CacheTags() []string {
	return []string{SettingsCacheTag}
}

// CacheContexts implements render.CacheableDependency. Settings are global.
func (s *Settings) CacheContexts() []string {
	return nil
}

// Redacted returns a copy without the secret key, for API responses.
func (s Settings) Redacted() Settings {
	s.Advanced.SecretKey = ""
	return s
}

// AccountStatus represents whether an account may be used as a viewer identity
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusBlocked AccountStatus = "blocked"
)

// Account is a site user that can be identified as a viewer
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt hash
	Status       AccountStatus
	CreatedAt    time.Time
}

// SettingsStore persists the widget settings
type SettingsStore interface {
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, settings *Settings) error
	// SeedSettings writes settings only if none have been saved yet.
	// Returns true if the seed was written.
	SeedSettings(ctx context.Context, settings *Settings) (bool, error)
}

// AccountStore persists site accounts
type AccountStore interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByName(ctx context.Context, name string) (*Account, error)
}

// RoleStore persists role assignments and the capabilities each role grants
type RoleStore interface {
	AddRole(ctx context.Context, accountID string, role RoleName) error
	RemoveRole(ctx context.Context, accountID string, role RoleName) error
	ListRoles(ctx context.Context, accountID string) ([]RoleName, error)
	GrantCapability(ctx context.Context, role RoleName, capability string) error
	RevokeCapability(ctx context.Context, role RoleName, capability string) error
	RoleHasCapability(ctx context.Context, role RoleName, capability string) (bool, error)
}

// Store combines all persistence used by the service
type Store interface {
	SettingsStore
	AccountStore
	RoleStore
	Close() error
}
