// ABOUTME: Composes the widget configuration, attachments and cache dependencies
// ABOUTME: Runs an ordered list of named steps; only the SSO step can fail

package disqus

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/render"
	"github.com/2389/disqus-embed/internal/store"
)

// Library IDs attached to the page
const (
	LibraryWidget       = "disqus/disqus"
	LibraryAnalytics    = "disqus/ga"
	LibraryNotification = "disqus/notification"
)

// Callback references appended by the built-in hooks
const (
	EventNewComment      = "onNewComment"
	AnalyticsCallback    = "disqusEmbed.trackNewComment"
	NotificationCallback = "disqusEmbed.notifyNewComment"
)

// SettingsKey is the attachment settings key the widget script reads.
const SettingsKey = "widget"

// LanguageCacheContext is the cache context for the negotiated page language.
const LanguageCacheContext = "languages"

// ErrNoSettings is returned when Compose is called without settings.
var ErrNoSettings = errors.New("widget settings not loaded")

// Env is everything Compose reads besides the request.
type Env struct {
	Settings *store.Settings
	Viewer   auth.Viewer
	Language string
	SSO      SSOProvider

	// VaryByLanguage adds the language cache context when localization is on.
	VaryByLanguage bool
}

// Result is a composed widget.
type Result struct {
	Wrapper     template.HTML
	Config      WidgetConfig
	Cache       render.Cacheability
	Attachments render.Attachments
}

// Fragment converts the result for the render pipeline.
func (r *Result) Fragment() *render.Fragment {
	return &render.Fragment{HTML: r.Wrapper, Attachments: r.Attachments, Cache: r.Cache}
}

type composition struct {
	req WidgetRequest
	env Env
	out *Result
}

type step struct {
	name string
	run  func(ctx context.Context, c *composition) error
}

// steps run in order. Only the callback hooks depend on it: the analytics
// reference must precede the notification reference.
var steps = []step{
	{"base", composeBase},
	{"identity", composeIdentity},
	{"localization", composeLanguage},
	{"sso", composeSSO},
	{"callbacks", composeCallbacks},
	{"analytics", composeAnalytics},
	{"notification", composeNotification},
	{"library", composeLibrary},
}

// Compose builds the widget for req.
func Compose(ctx context.Context, req WidgetRequest, env Env) (*Result, error) {
	if env.Settings == nil {
		return nil, ErrNoSettings
	}

	c := &composition{req: req, env: env, out: &Result{}}
	for _, s := range steps {
		if err := s.run(ctx, c); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	wrapper, err := renderWrapper(env.Settings.Domain, req.URL, env.Settings.NoScriptMessage)
	if err != nil {
		return nil, fmt.Errorf("rendering wrapper: %w", err)
	}
	c.out.Wrapper = wrapper
	return c.out, nil
}

func composeBase(_ context.Context, c *composition) error {
	c.out.Config.Domain = c.env.Settings.Domain
	c.out.Config.URL = c.req.URL
	c.out.Config.Title = c.req.Title
	c.out.Config.Identifier = c.req.Identifier
	c.out.Cache.AddDependency(c.env.Settings)
	return nil
}

func composeIdentity(_ context.Context, c *composition) error {
	if !c.env.Settings.Behavior.InheritLogin || c.env.Viewer.IsAnonymous() {
		return nil
	}
	c.out.Config.setIdentity(c.env.Viewer.AccountName, c.env.Viewer.Email)
	c.out.Cache.AddDependency(c.env.Viewer)
	return nil
}

func composeLanguage(_ context.Context, c *composition) error {
	if !c.env.Settings.Behavior.Localize {
		return nil
	}
	c.out.Config.setLanguage(c.env.Language)
	if c.env.VaryByLanguage {
		c.out.Cache.AddContext(LanguageCacheContext)
	}
	return nil
}

func composeSSO(ctx context.Context, c *composition) error {
	if !c.env.Settings.Advanced.SSO.Enabled {
		return nil
	}
	if c.env.SSO == nil {
		return ErrSSOUnavailable
	}
	fields, err := c.env.SSO.SSOFields(ctx, c.env.Settings, c.env.Viewer)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSSOUnavailable, err)
	}
	for k, v := range fields {
		c.out.Config.setSSO(k, v)
	}
	// The signed payload identifies the viewer.
	c.out.Cache.AddDependency(c.env.Viewer)
	return nil
}

func composeCallbacks(_ context.Context, c *composition) error {
	if len(c.req.Callbacks) == 0 {
		return nil
	}
	c.out.Config.Callbacks = c.req.Callbacks.Clone()
	return nil
}

func composeAnalytics(_ context.Context, c *composition) error {
	if !c.env.Settings.Behavior.TrackNewCommentGA {
		return nil
	}
	c.out.Config.appendCallback(EventNewComment, AnalyticsCallback)
	c.out.Attachments.AddLibrary(LibraryAnalytics)
	return nil
}

func composeNotification(_ context.Context, c *composition) error {
	if !c.env.Settings.SecretKeyPresent() || !c.env.Settings.Behavior.NotifyNewComment {
		return nil
	}
	c.out.Config.appendCallback(EventNewComment, NotificationCallback)
	c.out.Attachments.AddLibrary(LibraryNotification)
	return nil
}

func composeLibrary(_ context.Context, c *composition) error {
	c.out.Attachments.AddLibrary(LibraryWidget)
	c.out.Attachments.SetSetting(SettingsKey, c.out.Config)
	return nil
}
