// ABOUTME: Widget settings persistence as a key/value table
// ABOUTME: Maps the Settings struct to dotted keys such as behavior.inherit_login

package store

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// settingsField binds one settings key to its struct field.
type settingsField struct {
	key string
	get func(*Settings) string
	set func(*Settings, string)
}

func stringField(key string, ptr func(*Settings) *string) settingsField {
	return settingsField{
		key: key,
		get: func(s *Settings) string { return *ptr(s) },
		set: func(s *Settings, v string) { *ptr(s) = v },
	}
}

func boolField(key string, ptr func(*Settings) *bool) settingsField {
	return settingsField{
		key: key,
		get: func(s *Settings) string { return strconv.FormatBool(*ptr(s)) },
		set: func(s *Settings, v string) {
			b, _ := strconv.ParseBool(v)
			*ptr(s) = b
		},
	}
}

var settingsFields = []settingsField{
	stringField("domain", func(s *Settings) *string { return &s.Domain }),
	stringField("noscript_message", func(s *Settings) *string { return &s.NoScriptMessage }),
	boolField("behavior.inherit_login", func(s *Settings) *bool { return &s.Behavior.InheritLogin }),
	boolField("behavior.localize", func(s *Settings) *bool { return &s.Behavior.Localize }),
	boolField("behavior.track_newcomment_ga", func(s *Settings) *bool { return &s.Behavior.TrackNewCommentGA }),
	boolField("behavior.notify_newcomment", func(s *Settings) *bool { return &s.Behavior.NotifyNewComment }),
	stringField("advanced.public_key", func(s *Settings) *string { return &s.Advanced.PublicKey }),
	stringField("advanced.secret_key", func(s *Settings) *string { return &s.Advanced.SecretKey }),
	boolField("advanced.sso.enabled", func(s *Settings) *bool { return &s.Advanced.SSO.Enabled }),
	stringField("advanced.sso.name", func(s *Settings) *string { return &s.Advanced.SSO.Name }),
	stringField("advanced.sso.login_url", func(s *Settings) *string { return &s.Advanced.SSO.LoginURL }),
	stringField("advanced.sso.logout_url", func(s *Settings) *string { return &s.Advanced.SSO.LogoutURL }),
	stringField("advanced.sso.button", func(s *Settings) *string { return &s.Advanced.SSO.Button }),
	stringField("advanced.sso.icon", func(s *Settings) *string { return &s.Advanced.SSO.Icon }),
}

// settingsToValues flattens settings into key/value pairs.
func settingsToValues(s *Settings) map[string]string {
	values := make(map[string]string, len(settingsFields))
	for _, f := range settingsFields {
		values[f.key] = f.get(s)
	}
	return values
}

// settingsFromValues builds settings from key/value pairs. Unknown keys are
// ignored and missing keys keep their zero value.
func settingsFromValues(values map[string]string) *Settings {
	var s Settings
	for _, f := range settingsFields {
		if v, ok := values[f.key]; ok {
			f.set(&s, v)
		}
	}
	return &s
}

// GetSettings loads the widget settings. A database with no saved settings
// yields zero-valued Settings, not an error.
func (s *SQLiteStore) GetSettings(ctx context.Context) (*Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}

	return settingsFromValues(values), nil
}

// SaveSettings writes every settings key in a single transaction.
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings *Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range settingsToValues(settings) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value, now)
		if err != nil {
			return fmt.Errorf("saving setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}

	s.logger.Debug("saved settings", "domain", settings.Domain)
	return nil
}

// SeedSettings writes settings only when the table is empty.
func (s *SQLiteStore) SeedSettings(ctx context.Context, settings *Settings) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&count); err != nil {
		return false, fmt.Errorf("counting settings: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if err := s.SaveSettings(ctx, settings); err != nil {
		return false, err
	}
	s.logger.Info("seeded settings from config", "domain", settings.Domain)
	return true, nil
}
