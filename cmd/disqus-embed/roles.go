// ABOUTME: "roles" command for assigning roles to accounts and capabilities to roles
// ABOUTME: Accounts are named by account name; capabilities by their full name

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/disqus-embed/internal/config"
	"github.com/2389/disqus-embed/internal/store"
)

const rolesUsage = `usage:
  disqus-embed roles list ACCOUNT
  disqus-embed roles add ACCOUNT ROLE
  disqus-embed roles remove ACCOUNT ROLE
  disqus-embed roles grant ROLE CAPABILITY
  disqus-embed roles revoke ROLE CAPABILITY`

var knownRoles = []store.RoleName{store.RoleAnonymous, store.RoleAuthenticated, store.RoleAdmin}

var knownCapabilities = []string{store.CapabilityViewComments, store.CapabilityAdminister}

// roleStore is the part of store.Store the roles command uses.
type roleStore interface {
	store.RoleStore
	GetAccountByName(ctx context.Context, name string) (*store.Account, error)
}

func runRoles(ctx context.Context, args []string) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	if err := rolesCommand(ctx, s, args, os.Stdout); err != nil {
		return err
	}
	color.New(color.FgHiBlack).Printf("    Running servers apply the change on the next request.\n")
	return nil
}

// rolesCommand dispatches a roles subcommand against s, writing results to w.
func rolesCommand(ctx context.Context, s roleStore, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errors.New(rolesUsage)
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "list":
		if len(rest) != 1 {
			return errors.New(rolesUsage)
		}
		account, err := lookupAccount(ctx, s, rest[0])
		if err != nil {
			return err
		}
		roles, err := s.ListRoles(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("listing roles: %w", err)
		}
		names := []string{string(store.RoleAuthenticated)}
		for _, r := range roles {
			names = append(names, string(r))
		}
		fmt.Fprintf(w, "%s: %s\n", account.Name, strings.Join(names, ", "))
		return nil

	case "add", "remove":
		if len(rest) != 2 {
			return errors.New(rolesUsage)
		}
		role, err := assignableRole(rest[1])
		if err != nil {
			return err
		}
		account, err := lookupAccount(ctx, s, rest[0])
		if err != nil {
			return err
		}
		if sub == "add" {
			if err := s.AddRole(ctx, account.ID, role); err != nil {
				return fmt.Errorf("adding role: %w", err)
			}
			fmt.Fprintf(w, "  ✓ %s now has role %s\n", account.Name, role)
			return nil
		}
		if err := s.RemoveRole(ctx, account.ID, role); err != nil {
			return fmt.Errorf("removing role: %w", err)
		}
		fmt.Fprintf(w, "  ✓ %s no longer has role %s\n", account.Name, role)
		return nil

	case "grant", "revoke":
		if len(rest) != 2 {
			return errors.New(rolesUsage)
		}
		role := store.RoleName(rest[0])
		if !slices.Contains(knownRoles, role) {
			return fmt.Errorf("unknown role %q", rest[0])
		}
		capability := rest[1]
		if !slices.Contains(knownCapabilities, capability) {
			return fmt.Errorf("unknown capability %q (known: %s)", capability, strings.Join(knownCapabilities, ", "))
		}
		if sub == "grant" {
			if err := s.GrantCapability(ctx, role, capability); err != nil {
				return fmt.Errorf("granting capability: %w", err)
			}
			fmt.Fprintf(w, "  ✓ %s may now %s\n", role, capability)
			return nil
		}
		if err := s.RevokeCapability(ctx, role, capability); err != nil {
			return fmt.Errorf("revoking capability: %w", err)
		}
		fmt.Fprintf(w, "  ✓ %s may no longer %s\n", role, capability)
		return nil

	default:
		return fmt.Errorf("unknown roles command %q\n%s", sub, rolesUsage)
	}
}

// assignableRole parses a role that can be stored on an account. The
// anonymous and authenticated roles are implicit.
func assignableRole(name string) (store.RoleName, error) {
	role := store.RoleName(name)
	switch {
	case !slices.Contains(knownRoles, role):
		return "", fmt.Errorf("unknown role %q", name)
	case role == store.RoleAnonymous || role == store.RoleAuthenticated:
		return "", fmt.Errorf("role %q is implicit and cannot be assigned", name)
	}
	return role, nil
}

func lookupAccount(ctx context.Context, s roleStore, name string) (*store.Account, error) {
	account, err := s.GetAccountByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no account named %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	return account, nil
}
