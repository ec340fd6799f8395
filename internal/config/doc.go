// Package config handles configuration loading for disqus-embed.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from DISQUS_EMBED_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/disqus-embed/config.yaml
//  3. ~/.config/disqus-embed/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${DISQUS_EMBED_JWT_SECRET}"
//
// # Configuration Sections
//
// Server and database:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	database:
//	  path: "/var/lib/disqus-embed/embed.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${DISQUS_EMBED_JWT_SECRET}"  # 32+ bytes, empty disables login
//	  token_ttl: "24h"
//
// Initial widget settings (only written when the settings table is empty):
//
//	disqus:
//	  domain: "example"
//	  inherit_login: true
//	  localize: false
//	  track_newcomment_ga: false
//	  notify_newcomment: false
//	  public_key: "${DISQUS_PUBLIC_KEY}"
//	  secret_key: "${DISQUS_SECRET_KEY}"
//	  sso:
//	    enabled: false
//	    name: "Example"
//	    login_url: "https://example.com/login"
//	  noscript_message: "Please enable JavaScript to view the [comments](https://disqus.com/?ref_noscript)."
//
// Render pipeline:
//
//	render:
//	  cache_ttl: "10m"
//	  cache_max_entries: 10000
//	  vary_by_language: false
//	  languages: ["en", "fr"]
//	  assets:
//	    disqus/disqus: "/static/disqus.js"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
