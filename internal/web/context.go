// ABOUTME: Request language negotiation and cache context values
// ABOUTME: Supplies the render pipeline with per-request values for viewer and language contexts

package web

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/disqus"
)

type languageContextKey struct{}

// WithLanguage returns a context carrying the negotiated language.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageContextKey{}, lang)
}

// LanguageFromContext returns the negotiated language, or "" if none.
func LanguageFromContext(ctx context.Context) string {
	lang, _ := ctx.Value(languageContextKey{}).(string)
	return lang
}

// CacheContextValue implements render.ContextResolver for the contexts
// fragments in this service declare.
func CacheContextValue(ctx context.Context, name string) string {
	switch name {
	case auth.UserCacheContext:
		return auth.ViewerFromContext(ctx).ID
	case auth.AuthenticatedCacheContext:
		return auth.ViewerFromContext(ctx).AuthenticatedValue()
	case disqus.LanguageCacheContext:
		return LanguageFromContext(ctx)
	default:
		return ""
	}
}

func newMatcher(langs []string) language.Matcher {
	tags := make([]language.Tag, 0, len(langs))
	for _, l := range langs {
		if tag, err := language.Parse(l); err == nil {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, language.English)
	}
	return language.NewMatcher(tags)
}

// negotiateLanguage picks the best supported language for the request. An
// explicit ?lang= query parameter wins over Accept-Language.
func negotiateLanguage(m language.Matcher, r *http.Request) string {
	tag, _ := language.MatchStrings(m, r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
	base, _ := tag.Base()
	return base.String()
}

func (s *Server) languageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := negotiateLanguage(s.matcher, r)
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
	})
}
