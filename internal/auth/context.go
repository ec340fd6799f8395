// ABOUTME: Viewer identity carried through request handlers via context
// ABOUTME: Provides WithViewer/ViewerFromContext; absent viewers are anonymous

package auth

import (
	"context"
)

// Cache contexts describing the viewer
const (
	// UserCacheContext is the cache context identified viewers add.
	UserCacheContext = "user"
	// AuthenticatedCacheContext separates anonymous renders from identified
	// ones without varying by identity.
	AuthenticatedCacheContext = "user.is_authenticated"
)

// Viewer is the person a page is rendered for. A Viewer with an empty ID is
// anonymous.
type Viewer struct {
	ID          string // account ID, empty when anonymous
	AccountName string
	Email       string
}

// Anonymous returns the anonymous viewer.
func Anonymous() Viewer {
	return Viewer{}
}

// IsAnonymous reports whether the viewer has no account.
func (v Viewer) IsAnonymous() bool {
	return v.ID == ""
}

// CacheTags implements render.CacheableDependency. Anonymous viewers carry
// no tags so renders stay shareable between anonymous visitors.
func (v Viewer) CacheTags() []string {
	if v.IsAnonymous() {
		return nil
	}
	return []string{"user:" + v.ID}
}

// CacheContexts implements render.CacheableDependency.
func (v Viewer) CacheContexts() []string {
	if v.IsAnonymous() {
		return nil
	}
	return []string{UserCacheContext}
}

// AuthenticatedValue is the viewer's value for AuthenticatedCacheContext.
func (v Viewer) AuthenticatedValue() string {
	if v.IsAnonymous() {
		return ""
	}
	return "1"
}

// viewerContextKey is the key type for storing Viewer in context.Context.
type viewerContextKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	return context.WithValue(ctx, viewerContextKey{}, v)
}

// ViewerFromContext retrieves the viewer from the context, returning the
// anonymous viewer if none is present.
func ViewerFromContext(ctx context.Context) Viewer {
	v, ok := ctx.Value(viewerContextKey{}).(Viewer)
	if !ok {
		return Anonymous()
	}
	return v
}
