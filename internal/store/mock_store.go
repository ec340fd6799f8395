// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu           sync.RWMutex
	settings     *Settings                    // nil until saved
	accounts     map[string]*Account          // keyed by account ID
	accountNames map[string]string            // keyed by name -> account ID
	roles        map[string]map[RoleName]bool // keyed by account ID
	grants       map[RoleName]map[string]bool // keyed by role -> capability

	// SettingsErr, when set, is returned by GetSettings.
	SettingsErr error
}

// NewMockStore creates a new MockStore with DefaultGrants installed.
func NewMockStore() *MockStore {
	m := &MockStore{
		accounts:     make(map[string]*Account),
		accountNames: make(map[string]string),
		roles:        make(map[string]map[RoleName]bool),
		grants:       make(map[RoleName]map[string]bool),
	}
	for role, caps := range DefaultGrants {
		for _, c := range caps {
			m.grantLocked(role, c)
		}
	}
	return m
}

// GetSettings returns a copy of the saved settings.
func (m *MockStore) GetSettings(ctx context.Context) (*Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.SettingsErr != nil {
		return nil, m.SettingsErr
	}
	if m.settings == nil {
		return &Settings{}, nil
	}
	cp := *m.settings
	return &cp, nil
}

// SaveSettings stores a copy of the settings.
func (m *MockStore) SaveSettings(ctx context.Context, settings *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *settings
	m.settings = &cp
	return nil
}

// SeedSettings stores the settings only if none were saved yet.
func (m *MockStore) SeedSettings(ctx context.Context, settings *Settings) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settings != nil {
		return false, nil
	}
	cp := *settings
	m.settings = &cp
	return true, nil
}

// CreateAccount stores a new account.
func (m *MockStore) CreateAccount(ctx context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accountNames[account.Name]; exists {
		return ErrDuplicateAccount
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.Status == "" {
		account.Status = AccountStatusActive
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	cp := *account
	m.accounts[account.ID] = &cp
	m.accountNames[account.Name] = account.ID
	return nil
}

// GetAccount retrieves an account by ID.
func (m *MockStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *account
	return &cp, nil
}

// GetAccountByName retrieves an account by name.
func (m *MockStore) GetAccountByName(ctx context.Context, name string) (*Account, error) {
	m.mu.RLock()
	id, ok := m.accountNames[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetAccount(ctx, id)
}

// AddRole assigns a role to an account.
func (m *MockStore) AddRole(ctx context.Context, accountID string, role RoleName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[accountID]; !ok {
		return errors.New("account does not exist")
	}
	if m.roles[accountID] == nil {
		m.roles[accountID] = make(map[RoleName]bool)
	}
	m.roles[accountID][role] = true
	return nil
}

// RemoveRole removes a role from an account.
func (m *MockStore) RemoveRole(ctx context.Context, accountID string, role RoleName) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.roles[accountID], role)
	return nil
}

// ListRoles returns the roles assigned to an account, sorted by name.
func (m *MockStore) ListRoles(ctx context.Context, accountID string) ([]RoleName, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roles := []RoleName{}
	for role := range m.roles[accountID] {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles, nil
}

// GrantCapability grants a capability to a role.
func (m *MockStore) GrantCapability(ctx context.Context, role RoleName, capability string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grantLocked(role, capability)
	return nil
}

func (m *MockStore) grantLocked(role RoleName, capability string) {
	if m.grants[role] == nil {
		m.grants[role] = make(map[string]bool)
	}
	m.grants[role][capability] = true
}

// RevokeCapability removes a capability from a role.
func (m *MockStore) RevokeCapability(ctx context.Context, role RoleName, capability string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.grants[role], capability)
	return nil
}

// RoleHasCapability checks whether a role grants a capability.
func (m *MockStore) RoleHasCapability(ctx context.Context, role RoleName, capability string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.grants[role][capability], nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
