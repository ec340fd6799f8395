// ABOUTME: Lazy builder that resolves deferred widget units in the render pipeline
// ABOUTME: Loads settings once per build and reads viewer and language from the context

package disqus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/render"
	"github.com/2389/disqus-embed/internal/store"
)

// SettingsSource loads the current widget settings.
type SettingsSource interface {
	GetSettings(ctx context.Context) (*store.Settings, error)
}

// Builder composes widgets for the render pipeline.
type Builder struct {
	settings       SettingsSource
	sso            SSOProvider
	language       func(ctx context.Context) string
	varyByLanguage bool
	logger         *slog.Logger
}

// BuilderConfig holds Builder dependencies.
type BuilderConfig struct {
	Settings SettingsSource
	SSO      SSOProvider
	// Language returns the request's language; nil means no language.
	Language       func(ctx context.Context) string
	VaryByLanguage bool
	Logger         *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(cfg BuilderConfig) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	language := cfg.Language
	if language == nil {
		language = func(context.Context) string { return "" }
	}
	return &Builder{
		settings:       cfg.Settings,
		sso:            cfg.SSO,
		language:       language,
		varyByLanguage: cfg.VaryByLanguage,
		logger:         logger.With("component", "disqus"),
	}
}

// Register binds the builder to BuilderName on p.
func (b *Builder) Register(p *render.Pipeline) {
	p.Register(BuilderName, b.Build)
}

// Build implements render.BuilderFunc.
func (b *Builder) Build(ctx context.Context, args []string) (*render.Fragment, error) {
	settings, err := b.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	req := requestFromArgs(args)
	result, err := Compose(ctx, req, Env{
		Settings:       settings,
		Viewer:         auth.ViewerFromContext(ctx),
		Language:       b.language(ctx),
		SSO:            b.sso,
		VaryByLanguage: b.varyByLanguage,
	})
	if err != nil {
		b.logger.Warn("widget composition failed", "identifier", req.Identifier, "error", err)
		return nil, err
	}

	b.logger.Debug("composed widget",
		"identifier", req.Identifier,
		"libraries", result.Attachments.Library,
		"cache_tags", result.Cache.Tags(),
	)
	return fragmentFor(result), nil
}

// fragmentFor converts result, declaring AuthenticatedCacheContext first so
// that anonymous and identified renders never share a cache entry.
func fragmentFor(result *Result) *render.Fragment {
	frag := result.Fragment()
	var cache render.Cacheability
	cache.AddContext(auth.AuthenticatedCacheContext)
	cache.Merge(frag.Cache)
	frag.Cache = cache
	return frag
}
