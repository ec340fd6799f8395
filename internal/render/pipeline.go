// ABOUTME: Two-phase render pipeline: pages emit placeholders, Resolve builds them later
// ABOUTME: Lazy units are resolved from the fragment cache or their registered builder

package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"regexp"
	"sync"
)

// ErrUnknownBuilder is returned when a Lazy names a builder that was never registered.
var ErrUnknownBuilder = errors.New("unknown lazy builder")

// Lazy is a deferred unit of work. Args are plain strings so the unit can be
// hashed, cached, and passed across a process boundary.
type Lazy struct {
	Builder string   `json:"builder"`
	Args    []string `json:"args"`
}

// Key identifies the unit for placeholders and the fragment cache.
func (l Lazy) Key() string {
	data, _ := json.Marshal(l)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fragment is the output of a lazy builder.
type Fragment struct {
	HTML        template.HTML
	Attachments Attachments
	Cache       Cacheability
}

// BuilderFunc builds a fragment from a Lazy's args. Everything else it needs
// comes from ctx or from the closure.
type BuilderFunc func(ctx context.Context, args []string) (*Fragment, error)

// ContextResolver returns the current request's value for a cache context
// such as "user" or "languages".
type ContextResolver func(ctx context.Context, name string) string

// Pipeline resolves lazy units. It is safe for concurrent use once all
// builders are registered.
type Pipeline struct {
	mu       sync.RWMutex
	builders map[string]BuilderFunc
	cache    *Cache
	resolver ContextResolver
	logger   *slog.Logger
}

// NewPipeline creates a pipeline. cache may be nil to disable fragment caching.
func NewPipeline(cache *Cache, resolver ContextResolver, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = func(context.Context, string) string { return "" }
	}
	return &Pipeline{
		builders: make(map[string]BuilderFunc),
		cache:    cache,
		resolver: resolver,
		logger:   logger.With("component", "render"),
	}
}

// Register binds a builder name to its implementation.
func (p *Pipeline) Register(name string, fn BuilderFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builders[name] = fn
}

// ResolveLazy builds a single lazy unit, consulting the fragment cache first.
func (p *Pipeline) ResolveLazy(ctx context.Context, l Lazy) (*Fragment, error) {
	p.mu.RLock()
	fn, ok := p.builders[l.Builder]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuilder, l.Builder)
	}

	key := l.Key()
	value := func(name string) string { return p.resolver(ctx, name) }

	if p.cache != nil {
		if frag, hit := p.cache.Get(key, value); hit {
			p.logger.Debug("fragment cache hit", "builder", l.Builder, "key", key[:12])
			return frag, nil
		}
	}

	frag, err := fn(ctx, l.Args)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		p.cache.Set(key, frag, value)
	}
	return frag, nil
}

// InvalidateTags drops cached fragments carrying any of the tags.
func (p *Pipeline) InvalidateTags(tags ...string) {
	if p.cache == nil {
		return
	}
	n := p.cache.InvalidateTags(tags...)
	p.logger.Debug("invalidated cache tags", "tags", tags, "dropped", n)
}

// Page collects the placeholders emitted while rendering one response.
type Page struct {
	mu    sync.Mutex
	units map[string]Lazy
}

// NewPage creates an empty page.
func NewPage() *Page {
	return &Page{units: make(map[string]Lazy)}
}

// Placeholder registers l and returns the markup Resolve will replace.
func (pg *Page) Placeholder(l Lazy) template.HTML {
	key := l.Key()
	pg.mu.Lock()
	pg.units[key] = l
	pg.mu.Unlock()
	return template.HTML(`<render-placeholder token="` + key + `"></render-placeholder>`)
}

var placeholderPattern = regexp.MustCompile(`<render-placeholder token="([0-9a-f]{64})"></render-placeholder>`)

// Resolved is a page after every placeholder has been replaced.
type Resolved struct {
	HTML        string
	Attachments Attachments
	Cache       Cacheability
}

// Resolve replaces the page's placeholders in html with their fragments.
// A builder failure is logged and its placeholder is replaced with nothing,
// so one broken fragment never fails the whole page.
func (p *Pipeline) Resolve(ctx context.Context, page *Page, html string) *Resolved {
	out := &Resolved{}

	out.HTML = placeholderPattern.ReplaceAllStringFunc(html, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]

		page.mu.Lock()
		l, ok := page.units[key]
		page.mu.Unlock()
		if !ok {
			p.logger.Warn("placeholder without registered unit", "key", key)
			return ""
		}

		frag, err := p.ResolveLazy(ctx, l)
		if err != nil {
			p.logger.Error("lazy builder failed", "builder", l.Builder, "error", err)
			return ""
		}

		out.Attachments.Merge(frag.Attachments)
		out.Cache.Merge(frag.Cache)
		return string(frag.HTML)
	})

	return out
}
