// ABOUTME: HTTP server exposing embedded threads, the widget API, login, and settings admin
// ABOUTME: Resolves viewer and language per request and runs pages through the render pipeline

package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/render"
	"github.com/2389/disqus-embed/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Tokens issues and verifies viewer tokens.
type Tokens interface {
	auth.TokenVerifier
	auth.TokenGenerator
}

// Config holds server configuration
type Config struct {
	// Assets maps library IDs to script URLs.
	Assets map[string]string
	// Languages the site is available in; the first is the fallback.
	Languages []string
	// TokenTTL is the lifetime of tokens issued by /login.
	TokenTTL time.Duration
}

// Server serves the embed endpoints.
type Server struct {
	store      store.Store
	tokens     Tokens
	authz      *auth.Authorizer
	pipeline   *render.Pipeline
	matcher    language.Matcher
	config     Config
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a server. The pipeline must already have its builders registered.
func New(cfg Config, st store.Store, tokens Tokens, pipeline *render.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Server{
		store:    st,
		tokens:   tokens,
		authz:    auth.NewAuthorizer(st),
		pipeline: pipeline,
		matcher:  newMatcher(cfg.Languages),
		config:   cfg,
		logger:   logger.With("component", "web"),
	}
}

// Handler returns the routed handler with viewer and language middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /threads/{identifier}", s.handleThread)
	mux.HandleFunc("POST /api/widget", s.handleWidget)

	admin := auth.RequireCapability(s.authz, store.CapabilityAdminister)
	mux.Handle("GET /api/settings", admin(http.HandlerFunc(s.handleGetSettings)))
	mux.Handle("PUT /api/settings", admin(http.HandlerFunc(s.handlePutSettings)))

	var h http.Handler = mux
	h = s.languageMiddleware(h)
	h = auth.ViewerMiddleware(s.store, s.tokens, s.logger)(h)
	return h
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// The original context is already canceled.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && serverErr == nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return serverErr
}
