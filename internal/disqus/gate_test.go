package disqus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/store"
)

type fakeChecker struct {
	allow bool
	err   error
	asked []string
}

func (f *fakeChecker) HasCapability(_ context.Context, _ auth.Viewer, capability string) (bool, error) {
	f.asked = append(f.asked, capability)
	return f.allow, f.err
}

func TestGate_Denied(t *testing.T) {
	requests := []WidgetRequest{
		{},
		{Title: "T", URL: "http://u", Identifier: "id1"},
		{Title: "T", URL: "http://u", Identifier: "id1", Callbacks: Callbacks{"onReady": {"a"}}},
	}

	for _, req := range requests {
		assert.Nil(t, Gate(context.Background(), req, auth.Anonymous(), &fakeChecker{allow: false}))
		assert.Nil(t, Gate(context.Background(), req, auth.Anonymous(), &fakeChecker{allow: true, err: errors.New("boom")}),
			"a failing check denies")
		assert.Nil(t, Gate(context.Background(), req, auth.Anonymous(), nil), "a missing checker denies")
	}
}

func TestGate_Allowed(t *testing.T) {
	checker := &fakeChecker{allow: true}
	req := WidgetRequest{
		Title:      "T",
		URL:        "http://u",
		Identifier: "id1",
		Callbacks:  Callbacks{"onNewComment": {"a", "b"}},
	}

	lazy := Gate(context.Background(), req, auth.Viewer{ID: "1"}, checker)
	require.NotNil(t, lazy)

	assert.Equal(t, []string{store.CapabilityViewComments}, checker.asked)
	assert.Equal(t, BuilderName, lazy.Builder)
	require.Len(t, lazy.Args, 4)
	assert.Equal(t, req, requestFromArgs(lazy.Args))
}

func TestGate_EmptyFieldsStillDefer(t *testing.T) {
	lazy := Gate(context.Background(), WidgetRequest{}, auth.Anonymous(), &fakeChecker{allow: true})
	require.NotNil(t, lazy)
	assert.Equal(t, []string{"", "", "", "{}"}, lazy.Args)
}

func TestGate_WithAuthorizer(t *testing.T) {
	s := store.NewMockStore()
	authz := auth.NewAuthorizer(s)
	req := WidgetRequest{Identifier: "id1"}

	assert.NotNil(t, Gate(context.Background(), req, auth.Anonymous(), authz))

	require.NoError(t, s.RevokeCapability(context.Background(), store.RoleAnonymous, store.CapabilityViewComments))
	assert.Nil(t, Gate(context.Background(), req, auth.Anonymous(), authz))
}
