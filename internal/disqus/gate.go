// ABOUTME: Permission gate deciding whether a viewer gets a deferred widget
// ABOUTME: Emits a render.Lazy for the widget builder or nothing at all

package disqus

import (
	"context"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/render"
	"github.com/2389/disqus-embed/internal/store"
)

// BuilderName is the lazy builder that composes the widget.
const BuilderName = "disqus.widget"

// CapabilityChecker answers whether a viewer holds a capability.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, viewer auth.Viewer, capability string) (bool, error)
}

// Gate returns the deferred widget unit for req, or nil when the viewer may
// not view comments. A nil checker or a failing check counts as a denial.
func Gate(ctx context.Context, req WidgetRequest, viewer auth.Viewer, checker CapabilityChecker) *render.Lazy {
	if checker == nil {
		return nil
	}
	ok, err := checker.HasCapability(ctx, viewer, store.CapabilityViewComments)
	if err != nil || !ok {
		return nil
	}
	return &render.Lazy{Builder: BuilderName, Args: req.args()}
}
