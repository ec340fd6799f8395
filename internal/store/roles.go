// ABOUTME: Role entity and store methods for authorization
// ABOUTME: Roles are assigned to accounts and grant capabilities

package store

import (
	"context"
	"fmt"
	"time"
)

// RoleName represents a role that can be assigned
type RoleName string

const (
	// RoleAnonymous is held implicitly by every viewer without an account.
	RoleAnonymous RoleName = "anonymous"
	// RoleAuthenticated is held implicitly by every identified viewer.
	RoleAuthenticated RoleName = "authenticated"
	RoleAdmin         RoleName = "admin"
)

// Capabilities checked by the service
const (
	CapabilityViewComments = "view disqus comments"
	CapabilityAdminister   = "administer disqus"
)

// DefaultGrants are installed on a fresh database
var DefaultGrants = map[RoleName][]string{
	RoleAnonymous:     {CapabilityViewComments},
	RoleAuthenticated: {CapabilityViewComments},
	RoleAdmin:         {CapabilityViewComments, CapabilityAdminister},
}

// AddRole adds a role to an account. This operation is idempotent - adding an
// existing role succeeds silently.
func (s *SQLiteStore) AddRole(ctx context.Context, accountID string, role RoleName) error {
	query := `
		INSERT OR IGNORE INTO account_roles (account_id, role, created_at)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		accountID,
		role,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("adding role: %w", err)
	}

	s.logger.Debug("added role", "account_id", accountID, "role", role)
	return nil
}

// RemoveRole removes a role from an account. This operation is idempotent -
// removing a non-existent role succeeds silently.
func (s *SQLiteStore) RemoveRole(ctx context.Context, accountID string, role RoleName) error {
	query := `DELETE FROM account_roles WHERE account_id = ? AND role = ?`

	_, err := s.db.ExecContext(ctx, query, accountID, role)
	if err != nil {
		return fmt.Errorf("removing role: %w", err)
	}

	s.logger.Debug("removed role", "account_id", accountID, "role", role)
	return nil
}

// ListRoles returns the roles explicitly assigned to an account. Implicit
// roles (anonymous, authenticated) are not stored. Returns an empty slice
// if the account has no roles.
func (s *SQLiteStore) ListRoles(ctx context.Context, accountID string) ([]RoleName, error) {
	query := `
		SELECT role FROM account_roles
		WHERE account_id = ?
		ORDER BY role
	`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var roles []RoleName
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, RoleName(role))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}

	if roles == nil {
		roles = []RoleName{}
	}

	return roles, nil
}

// GrantCapability grants a capability to a role. Idempotent.
func (s *SQLiteStore) GrantCapability(ctx context.Context, role RoleName, capability string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO role_capabilities (role, capability) VALUES (?, ?)`,
		role, capability,
	)
	if err != nil {
		return fmt.Errorf("granting capability: %w", err)
	}

	s.logger.Debug("granted capability", "role", role, "capability", capability)
	return nil
}

// RevokeCapability removes a capability from a role. Idempotent.
func (s *SQLiteStore) RevokeCapability(ctx context.Context, role RoleName, capability string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM role_capabilities WHERE role = ? AND capability = ?`,
		role, capability,
	)
	if err != nil {
		return fmt.Errorf("revoking capability: %w", err)
	}

	s.logger.Debug("revoked capability", "role", role, "capability", capability)
	return nil
}

// RoleHasCapability checks whether a role grants a capability.
func (s *SQLiteStore) RoleHasCapability(ctx context.Context, role RoleName, capability string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM role_capabilities WHERE role = ? AND capability = ?`,
		role, capability,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking capability: %w", err)
	}

	return count > 0, nil
}
