// Package store provides persistence for disqus-embed.
//
// # Overview
//
// The store package defines the Store interface and provides a SQLite
// implementation (modernc.org/sqlite, no cgo). It persists:
//
//   - Settings: the widget configuration, stored as dotted key/value rows
//   - Accounts: site users that can be identified as viewers
//   - Roles: role assignments and the capabilities each role grants
//
// # Settings
//
// Settings are stored one row per key so that single values can be inspected
// or patched with the sqlite3 CLI:
//
//	domain                      example
//	behavior.inherit_login      true
//	advanced.sso.enabled        false
//
// A database without settings rows yields zero-valued Settings. SeedSettings
// writes the config file's disqus section on first start only.
//
// # Roles and Capabilities
//
// Two roles are implicit and never stored per account:
//
//   - anonymous: every viewer without an account
//   - authenticated: every identified viewer
//
// Fresh databases receive DefaultGrants: both implicit roles may view
// comments, and admin may additionally administer settings.
//
// # Testing
//
// MockStore is an in-memory implementation with DefaultGrants installed.
package store
