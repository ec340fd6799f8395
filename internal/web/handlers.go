// ABOUTME: Route handlers for threads, the widget API, login, and settings
// ABOUTME: Pages render with placeholders first and are resolved through the pipeline

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/dunglas/httpsfv"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/disqus"
	"github.com/2389/disqus-embed/internal/render"
	"github.com/2389/disqus-embed/internal/store"
)

// CacheTagsHeader carries the cache tags of a response as a structured field list.
const CacheTagsHeader = "Cache-Tags"

// callbackParamPrefix prefixes query parameters naming widget callbacks,
// e.g. callback.onNewComment=site.track.
const callbackParamPrefix = "callback."

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// setCacheTags writes the Cache-Tags header for a resolved response.
func (s *Server) setCacheTags(w http.ResponseWriter, tags []string) {
	if len(tags) == 0 {
		return
	}
	list := make(httpsfv.List, 0, len(tags))
	for _, tag := range tags {
		list = append(list, httpsfv.NewItem(tag))
	}
	value, err := httpsfv.Marshal(list)
	if err != nil {
		s.logger.Warn("failed to encode cache tags", "tags", tags, "error", err)
		return
	}
	w.Header().Set(CacheTagsHeader, value)
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Password == "" {
		s.sendJSONError(w, http.StatusBadRequest, "name and password required")
		return
	}

	account, err := s.store.GetAccountByName(r.Context(), req.Name)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("failed to get account", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	hash := ""
	if account != nil {
		hash = account.PasswordHash
	}
	if err := auth.CheckPassword(hash, req.Password); err != nil {
		s.sendJSONError(w, http.StatusUnauthorized, "invalid name or password")
		return
	}
	if account.Status != store.AccountStatusActive {
		s.sendJSONError(w, http.StatusForbidden, "account is blocked")
		return
	}

	token, err := s.tokens.Generate(account.ID, s.config.TokenTTL)
	if err != nil {
		s.logger.Error("failed to generate token", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.config.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.Info("account logged in", "account_id", account.ID)
	s.writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// callbacksFromQuery collects callback.<event>=ref parameters. Repeated
// parameters keep their order.
func callbacksFromQuery(r *http.Request) disqus.Callbacks {
	cb := disqus.Callbacks{}
	for key, refs := range r.URL.Query() {
		event, ok := strings.CutPrefix(key, callbackParamPrefix)
		if !ok || event == "" {
			continue
		}
		for _, ref := range refs {
			if ref != "" {
				cb[event] = append(cb[event], ref)
			}
		}
	}
	return cb
}

type layoutData struct {
	Title    string
	Language string
	Body     template.HTML
	Settings map[string]any
	Scripts  []string
}

type threadData struct {
	Title  string
	Widget template.HTML
}

// scripts maps attached library IDs to script URLs. Unknown IDs are logged
// and skipped.
func (s *Server) scripts(libs []string) []string {
	out := make([]string, 0, len(libs))
	for _, id := range libs {
		src, ok := s.config.Assets[id]
		if !ok {
			s.logger.Warn("no asset configured for library", "library", id)
			continue
		}
		out = append(out, src)
	}
	return out
}

func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	req := disqus.WidgetRequest{
		Title:      q.Get("title"),
		URL:        q.Get("url"),
		Identifier: r.PathValue("identifier"),
		Callbacks:  callbacksFromQuery(r),
	}

	page := render.NewPage()
	var widget template.HTML
	if lazy := disqus.Gate(ctx, req, auth.ViewerFromContext(ctx), s.authz); lazy != nil {
		widget = page.Placeholder(*lazy)
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, "thread", threadData{Title: req.Title, Widget: widget}); err != nil {
		s.logger.Error("failed to render thread", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resolved := s.pipeline.Resolve(ctx, page, body.String())

	var out bytes.Buffer
	err := templates.ExecuteTemplate(&out, "layout", layoutData{
		Title:    req.Title,
		Language: LanguageFromContext(ctx),
		Body:     template.HTML(resolved.HTML),
		Settings: resolved.Attachments.Settings,
		Scripts:  s.scripts(resolved.Attachments.Library),
	})
	if err != nil {
		s.logger.Error("failed to render layout", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.setCacheTags(w, resolved.Cache.Tags())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(out.Bytes())
}

type widgetRequest struct {
	Title      string           `json:"title"`
	URL        string           `json:"url"`
	Identifier string           `json:"identifier"`
	Callbacks  disqus.Callbacks `json:"callbacks"`
}

type widgetResponse struct {
	HTML          string             `json:"html"`
	Attachments   render.Attachments `json:"attachments"`
	CacheTags     []string           `json:"cache_tags"`
	CacheContexts []string           `json:"cache_contexts"`
}

// handleWidget resolves a single widget for pages rendered elsewhere. A
// viewer without access gets an empty widget, not an error.
func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	var body widgetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	req := disqus.WidgetRequest{
		Title:      body.Title,
		URL:        body.URL,
		Identifier: body.Identifier,
		Callbacks:  body.Callbacks,
	}

	resp := widgetResponse{CacheTags: []string{}, CacheContexts: []string{}}
	if lazy := disqus.Gate(ctx, req, auth.ViewerFromContext(ctx), s.authz); lazy != nil {
		frag, err := s.pipeline.ResolveLazy(ctx, *lazy)
		if err != nil {
			s.logger.Error("widget build failed", "identifier", req.Identifier, "error", err)
		} else {
			resp.HTML = string(frag.HTML)
			resp.Attachments = frag.Attachments
			resp.CacheTags = append(resp.CacheTags, frag.Cache.Tags()...)
			resp.CacheContexts = append(resp.CacheContexts, frag.Cache.Contexts()...)
		}
	}

	s.setCacheTags(w, resp.CacheTags)
	s.writeJSON(w, http.StatusOK, resp)
}

type settingsResponse struct {
	store.Settings
	SecretKeyPresent bool `json:"secret_key_present"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	s.writeJSON(w, http.StatusOK, settingsResponse{
		Settings:         settings.Redacted(),
		SecretKeyPresent: settings.SecretKeyPresent(),
	})
}

// handlePutSettings replaces the settings. An empty secret_key keeps the
// stored one, since GET never returns it.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var next store.Settings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	current, err := s.store.GetSettings(ctx)
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if next.Advanced.SecretKey == "" {
		next.Advanced.SecretKey = current.Advanced.SecretKey
	}

	if err := s.store.SaveSettings(ctx, &next); err != nil {
		s.logger.Error("failed to save settings", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	s.pipeline.InvalidateTags(next.CacheTags()...)

	s.logger.Info("settings updated",
		"by", auth.ViewerFromContext(ctx).ID,
		"domain", next.Domain,
		"changed", changedSections(current, &next),
	)
	s.writeJSON(w, http.StatusOK, settingsResponse{
		Settings:         next.Redacted(),
		SecretKeyPresent: next.SecretKeyPresent(),
	})
}

// changedSections names the top-level settings sections that differ.
func changedSections(before, after *store.Settings) []string {
	var changed []string
	if before.Domain != after.Domain {
		changed = append(changed, "domain")
	}
	if before.Behavior != after.Behavior {
		changed = append(changed, "behavior")
	}
	if before.Advanced != after.Advanced {
		changed = append(changed, "advanced")
	}
	if before.NoScriptMessage != after.NoScriptMessage {
		changed = append(changed, "noscript_message")
	}
	sort.Strings(changed)
	return changed
}
