package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/disqus-embed/internal/store"
)

func setupRolesTest(t *testing.T) (*store.MockStore, *store.Account) {
	t.Helper()
	s := store.NewMockStore()
	account := &store.Account{Name: "carol", Email: "c@x.com"}
	require.NoError(t, s.CreateAccount(context.Background(), account))
	return s, account
}

func TestRolesCommand_AddListRemove(t *testing.T) {
	ctx := context.Background()
	s, account := setupRolesTest(t)
	var out bytes.Buffer

	require.NoError(t, rolesCommand(ctx, s, []string{"add", "carol", "admin"}, &out))
	roles, err := s.ListRoles(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, []store.RoleName{store.RoleAdmin}, roles)

	out.Reset()
	require.NoError(t, rolesCommand(ctx, s, []string{"list", "carol"}, &out))
	assert.Equal(t, "carol: authenticated, admin\n", out.String())

	require.NoError(t, rolesCommand(ctx, s, []string{"remove", "carol", "admin"}, &out))
	roles, err = s.ListRoles(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestRolesCommand_GrantRevoke(t *testing.T) {
	ctx := context.Background()
	s, _ := setupRolesTest(t)
	var out bytes.Buffer

	require.NoError(t, rolesCommand(ctx, s, []string{"revoke", "anonymous", store.CapabilityViewComments}, &out))
	ok, err := s.RoleHasCapability(ctx, store.RoleAnonymous, store.CapabilityViewComments)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rolesCommand(ctx, s, []string{"grant", "anonymous", store.CapabilityViewComments}, &out))
	ok, err = s.RoleHasCapability(ctx, store.RoleAnonymous, store.CapabilityViewComments)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "anonymous may now view disqus comments")
}

func TestRolesCommand_Errors(t *testing.T) {
	s, _ := setupRolesTest(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no subcommand", nil, "usage"},
		{"unknown subcommand", []string{"promote", "carol"}, "unknown roles command"},
		{"missing role", []string{"add", "carol"}, "usage"},
		{"unknown account", []string{"add", "nobody", "admin"}, `no account named "nobody"`},
		{"unknown role", []string{"add", "carol", "owner"}, `unknown role "owner"`},
		{"implicit role", []string{"add", "carol", "authenticated"}, "implicit"},
		{"unknown capability", []string{"grant", "admin", "delete everything"}, "unknown capability"},
		{"grant unknown role", []string{"grant", "owner", store.CapabilityAdminister}, `unknown role "owner"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := rolesCommand(context.Background(), s, tt.args, &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
