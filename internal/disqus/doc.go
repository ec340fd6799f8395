// Package disqus embeds a Disqus discussion thread into rendered pages.
//
// Embedding happens in two phases. While a page renders, Gate checks the
// viewer's "view disqus comments" capability and returns a render.Lazy
// carrying only the WidgetRequest fields (or nil, in which case nothing at
// all is rendered). Later, once the page's own caching is settled, the
// render pipeline resolves that unit through Builder, which calls Compose.
//
// Compose runs a fixed sequence of steps over the settings, the viewer and
// the request:
//
//	base → identity → localization → sso → callbacks → analytics → notification → library
//
// Each step may add fields to the WidgetConfig, libraries to the page
// attachments, and dependencies to the result's render.Cacheability. Every
// external value that influences the config is recorded as a dependency so
// the cached fragment is invalidated when settings change or varies per
// identified viewer.
//
// Only the SSO step can fail. A failure aborts the composition and the
// pipeline renders no widget.
package disqus
