// ABOUTME: HTTP middleware resolving the viewer from a JWT bearer header or cookie
// ABOUTME: Unauthenticated or unresolvable requests continue as the anonymous viewer

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/disqus-embed/internal/store"
)

// TokenCookieName is the cookie set by the login endpoint
const TokenCookieName = "disqus_embed_token"

// AccountStore is the subset of store.Store needed to resolve viewers
type AccountStore interface {
	GetAccount(ctx context.Context, id string) (*store.Account, error)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// requestToken prefers the Authorization header and falls back to the cookie.
func requestToken(r *http.Request) string {
	if token, errMsg := extractBearerToken(r.Header.Get("Authorization")); errMsg == "" {
		return token
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// ViewerMiddleware attaches the request's Viewer to the context. Requests
// without a usable token, or whose account is missing or blocked, continue
// as the anonymous viewer.
func ViewerMiddleware(accounts AccountStore, verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := resolveViewer(r, accounts, verifier, logger)
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

func resolveViewer(r *http.Request, accounts AccountStore, verifier TokenVerifier, logger *slog.Logger) Viewer {
	token := requestToken(r)
	if token == "" {
		return Anonymous()
	}

	accountID, err := verifier.Verify(token)
	if err != nil {
		logger.Debug("ignoring invalid token", "error", err)
		return Anonymous()
	}

	account, err := accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		logger.Debug("token account not found", "account_id", accountID, "error", err)
		return Anonymous()
	}

	if account.Status != store.AccountStatusActive {
		logger.Info("blocked account presented token", "account_id", accountID)
		return Anonymous()
	}

	return Viewer{ID: account.ID, AccountName: account.Name, Email: account.Email}
}

// CapabilityChecker answers whether a viewer holds a capability
type CapabilityChecker interface {
	HasCapability(ctx context.Context, viewer Viewer, capability string) (bool, error)
}

// RequireCapability rejects requests whose viewer lacks capability. Anonymous
// viewers get 401, identified viewers 403. Must be used after ViewerMiddleware.
func RequireCapability(checker CapabilityChecker, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFromContext(r.Context())
			ok, err := checker.HasCapability(r.Context(), viewer, capability)
			if err != nil {
				sendJSONError(w, http.StatusInternalServerError, "authorization check failed")
				return
			}
			if !ok {
				if viewer.IsAnonymous() {
					sendJSONError(w, http.StatusUnauthorized, "not authenticated")
					return
				}
				sendJSONError(w, http.StatusForbidden, capability+" required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sendJSONError writes a JSON error response.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
