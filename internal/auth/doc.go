// Package auth resolves who is viewing a page and what they may do.
//
// # Viewers
//
// Every request carries a Viewer. Requests that present a valid JWT (in the
// Authorization header or the disqus_embed_token cookie) for an active
// account get an identified Viewer; everything else is anonymous:
//
//	mw := ViewerMiddleware(store, NewJWTVerifier(secret), logger)
//	viewer := ViewerFromContext(r.Context())
//
// A Viewer is also a cache dependency: identified viewers add the "user"
// cache context and a "user:<id>" tag to anything rendered for them.
//
// # Capabilities
//
// Capabilities are granted to roles. Anonymous viewers implicitly hold the
// "anonymous" role and identified viewers hold "authenticated" plus any
// roles assigned to their account. Authorizer.HasCapability checks all of
// them; RequireCapability wraps a handler with the same check.
//
// # Passwords
//
// Accounts log in with a name and password hashed with bcrypt.
package auth
