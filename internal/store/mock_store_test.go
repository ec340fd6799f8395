// ABOUTME: Tests for the in-memory MockStore
// ABOUTME: Ensures the mock matches SQLiteStore semantics relied on by other packages

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_SettingsCopies(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	in := &Settings{Domain: "example"}
	require.NoError(t, m.SaveSettings(ctx, in))
	in.Domain = "mutated"

	got, err := m.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "example", got.Domain, "mock must store a copy")

	got.Domain = "mutated again"
	again, err := m.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "example", again.Domain, "mock must return a copy")
}

func TestMockStore_SettingsErr(t *testing.T) {
	m := NewMockStore()
	m.SettingsErr = errors.New("boom")

	_, err := m.GetSettings(context.Background())
	assert.EqualError(t, err, "boom")
}

func TestMockStore_AccountsAndRoles(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	account := &Account{Name: "alice", Email: "a@x.com"}
	require.NoError(t, m.CreateAccount(ctx, account))
	assert.ErrorIs(t, m.CreateAccount(ctx, &Account{Name: "alice"}), ErrDuplicateAccount)

	got, err := m.GetAccountByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	require.NoError(t, m.AddRole(ctx, account.ID, RoleAdmin))
	roles, err := m.ListRoles(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, []RoleName{RoleAdmin}, roles)

	assert.Error(t, m.AddRole(ctx, "missing", RoleAdmin))

	ok, err := m.RoleHasCapability(ctx, RoleAdmin, CapabilityAdminister)
	require.NoError(t, err)
	assert.True(t, ok)
}
