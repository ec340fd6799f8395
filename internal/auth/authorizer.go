// ABOUTME: Capability checks for viewers based on implicit and assigned roles
// ABOUTME: Anonymous viewers hold "anonymous"; identified viewers hold "authenticated" plus their roles

package auth

import (
	"context"
	"fmt"

	"github.com/2389/disqus-embed/internal/store"
)

// RoleStore is the subset of store.Store needed for capability checks
type RoleStore interface {
	ListRoles(ctx context.Context, accountID string) ([]store.RoleName, error)
	RoleHasCapability(ctx context.Context, role store.RoleName, capability string) (bool, error)
}

// Authorizer answers capability questions for viewers.
type Authorizer struct {
	roles RoleStore
}

// NewAuthorizer creates an Authorizer backed by the role store.
func NewAuthorizer(roles RoleStore) *Authorizer {
	return &Authorizer{roles: roles}
}

// rolesFor returns the implicit role followed by any assigned roles.
func (a *Authorizer) rolesFor(ctx context.Context, viewer Viewer) ([]store.RoleName, error) {
	if viewer.IsAnonymous() {
		return []store.RoleName{store.RoleAnonymous}, nil
	}
	assigned, err := a.roles.ListRoles(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("listing roles for %s: %w", viewer.ID, err)
	}
	return append([]store.RoleName{store.RoleAuthenticated}, assigned...), nil
}

// HasCapability reports whether any of the viewer's roles grants capability.
func (a *Authorizer) HasCapability(ctx context.Context, viewer Viewer, capability string) (bool, error) {
	roles, err := a.rolesFor(ctx, viewer)
	if err != nil {
		return false, err
	}
	for _, role := range roles {
		ok, err := a.roles.RoleHasCapability(ctx, role, capability)
		if err != nil {
			return false, fmt.Errorf("checking %q for role %s: %w", capability, role, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
