// ABOUTME: Entry point for the disqus-embed server
// ABOUTME: Serves embedded discussion threads and manages accounts and widget settings

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/config"
	"github.com/2389/disqus-embed/internal/disqus"
	"github.com/2389/disqus-embed/internal/render"
	"github.com/2389/disqus-embed/internal/store"
	"github.com/2389/disqus-embed/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _ _                                           _              _
  __| (_)___  __ _ _   _ ___        ___ _ __ ___ | |__   ___  __| |
 / _' | / __|/ _' | | | / __|_____ / _ \ '_ ' _ \| '_ \ / _ \/ _' |
| (_| | \__ \ (_| | |_| \__ \_____|  __/ | | | | | |_) |  __/ (_| |
 \__,_|_|___/\__, |\__,_|___/      \___|_| |_| |_|_.__/ \___|\__,_|
                |_|
`

// getConfigPath returns the path to the config file.
// Priority: DISQUS_EMBED_CONFIG env var > XDG_CONFIG_HOME/disqus-embed/config.yaml > ~/.config/disqus-embed/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("DISQUS_EMBED_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "disqus-embed", "config.yaml")
}

// getDataPath returns the path to the data directory.
// Priority: XDG_DATA_HOME/disqus-embed > ~/.local/share/disqus-embed
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "disqus-embed")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: disqus-embed <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                                        Start the server")
		fmt.Println("  bootstrap --name NAME --email EMAIL --password PW")
		fmt.Println("                                               Create the initial admin account and token")
		fmt.Println("  settings import FILE.toml                    Replace widget settings from a TOML file")
		fmt.Println("  roles list|add|remove|grant|revoke ...       Manage account roles and role capabilities")
		fmt.Println("  health                                       Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "bootstrap":
		err = runBootstrap(ctx, os.Args[2:])
	case "settings":
		err = runSettings(ctx, os.Args[2:])
	case "roles":
		err = runRoles(ctx, os.Args[2:])
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// seedSettings converts the disqus config section into initial settings.
func seedSettings(c config.DisqusConfig) *store.Settings {
	return &store.Settings{
		Domain: c.Domain,
		Behavior: store.BehaviorSettings{
			InheritLogin:      c.InheritLogin,
			Localize:          c.Localize,
			TrackNewCommentGA: c.TrackNewCommentGA,
			NotifyNewComment:  c.NotifyNewComment,
		},
		Advanced: store.AdvancedSettings{
			PublicKey: c.PublicKey,
			SecretKey: c.SecretKey,
			SSO: store.SSOSettings{
				Enabled:   c.SSO.Enabled,
				Name:      c.SSO.Name,
				LoginURL:  c.SSO.LoginURL,
				LogoutURL: c.SSO.LogoutURL,
				Button:    c.SSO.Button,
				Icon:      c.SSO.Icon,
			},
		},
		NoScriptMessage: c.NoScriptMessage,
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured in %s", configPath)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Cache:     %s, %d entries", cfg.Render.CacheTTL, cfg.Render.CacheMaxEntries)
	if cfg.Render.VaryByLanguage {
		yellow.Print(" [vary by language]")
	}
	fmt.Println()
	fmt.Println()

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	seeded, err := s.SeedSettings(ctx, seedSettings(cfg.Disqus))
	if err != nil {
		return fmt.Errorf("seeding settings: %w", err)
	}
	if seeded {
		logger.Info("seeded widget settings from config", "domain", cfg.Disqus.Domain)
	}

	tokens, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}

	cache := render.NewCache(cfg.Render.CacheTTL, cfg.Render.CacheMaxEntries)
	defer cache.Close()

	pipeline := render.NewPipeline(cache, web.CacheContextValue, logger)
	disqus.NewBuilder(disqus.BuilderConfig{
		Settings:       s,
		SSO:            &disqus.SignedSSO{},
		Language:       web.LanguageFromContext,
		VaryByLanguage: cfg.Render.VaryByLanguage,
		Logger:         logger,
	}).Register(pipeline)

	srv := web.New(web.Config{
		Assets:    cfg.Render.Assets,
		Languages: cfg.Render.Languages,
		TokenTTL:  cfg.Auth.TokenTTL,
	}, s, tokens, pipeline, logger)

	logger.Info("starting disqus-embed",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	return srv.Run(ctx, cfg.Server.HTTPAddr)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			mu:    &sync.Mutex{},
			level: level,
		}
	}
	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
// Handlers derived via WithAttrs/WithGroup share the parent's mutex.
type colorHandler struct {
	mu     *sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	prefix := strings.Join(h.groups, ".")
	if prefix != "" {
		prefix += "."
	}
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + prefix + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		mu:     h.mu,
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		mu:     h.mu,
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

type bootstrapArgs struct {
	name     string
	email    string
	password string
}

// parseBootstrapArgs supports both "--flag value" and "--flag=value".
func parseBootstrapArgs(args []string) (bootstrapArgs, error) {
	var out bootstrapArgs
	targets := map[string]*string{
		"--name":     &out.name,
		"--email":    &out.email,
		"--password": &out.password,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if flag, value, ok := strings.Cut(arg, "="); ok {
			dst, known := targets[flag]
			if !known {
				return out, fmt.Errorf("unknown flag: %s", flag)
			}
			*dst = value
			continue
		}
		dst, known := targets[arg]
		switch {
		case known:
			if i+1 >= len(args) {
				return out, fmt.Errorf("%s requires a value", arg)
			}
			*dst = args[i+1]
			i++
		case strings.HasPrefix(arg, "-"):
			return out, fmt.Errorf("unknown flag: %s", arg)
		default:
			return out, fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	out.name = strings.TrimSpace(out.name)
	if out.name == "" {
		return out, errors.New("--name flag is required")
	}
	if len(out.name) > 100 {
		return out, errors.New("name exceeds maximum length of 100 characters")
	}
	if len(out.password) < 8 {
		return out, errors.New("--password must be at least 8 characters")
	}
	return out, nil
}

// runBootstrap performs first-time setup:
// 1. Creates a config file with a random JWT secret (if none exists)
// 2. Creates the database and an admin account
// 3. Prints a token for the admin
func runBootstrap(ctx context.Context, argv []string) error {
	args, err := parseBootstrapArgs(argv)
	if err != nil {
		return err
	}

	configPath := getConfigPath()
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeDefaultConfig(configPath, getDataPath()); err != nil {
			return err
		}
		green.Printf("  ✓ Created config: %s\n", configPath)
	} else {
		cyan.Printf("  Using existing config: %s\n", configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt_secret not configured in %s (required for bootstrap)", configPath)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()
	green.Printf("  ✓ Database: %s\n", cfg.Database.Path)

	hash, err := auth.HashPassword(args.password)
	if err != nil {
		return err
	}

	account := &store.Account{Name: args.name, Email: args.email, PasswordHash: hash}
	if err := s.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicateAccount) {
			return fmt.Errorf("bootstrap already complete: account %q exists", args.name)
		}
		return fmt.Errorf("creating account: %w", err)
	}
	if err := s.AddRole(ctx, account.ID, store.RoleAdmin); err != nil {
		return fmt.Errorf("granting admin role: %w", err)
	}
	green.Printf("  ✓ Created admin account: %s\n", args.name)

	tokens, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}
	token, err := tokens.Generate(account.ID, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Println()
	yellow.Printf("  Token (valid %s):\n", cfg.Auth.TokenTTL)
	fmt.Printf("  %s\n", token)
	return nil
}

func writeDefaultConfig(configPath, dataPath string) error {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	content := fmt.Sprintf(`# disqus-embed configuration
# Generated by disqus-embed bootstrap

server:
  http_addr: "localhost:8080"

database:
  path: "%s"

auth:
  jwt_secret: "%s"
  token_ttl: "24h"

disqus:
  domain: ""
  inherit_login: true

logging:
  level: "info"
  format: "text"
`, filepath.Join(dataPath, "embed.db"), jwtSecret)

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// loadSettingsFile decodes a TOML settings file. Unknown keys are rejected
// so typos don't silently reset a setting.
func loadSettingsFile(path string) (*store.Settings, error) {
	var settings store.Settings
	meta, err := toml.DecodeFile(path, &settings)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown settings keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return &settings, nil
}

func runSettings(ctx context.Context, args []string) error {
	if len(args) != 2 || args[0] != "import" {
		return errors.New("usage: disqus-embed settings import FILE.toml")
	}

	settings, err := loadSettingsFile(args[1])
	if err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	if err := s.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	color.New(color.FgGreen).Printf("  ✓ Imported settings for %q\n", settings.Domain)
	color.New(color.FgHiBlack).Printf("    Running servers pick them up within %s.\n", cfg.Render.CacheTTL)
	return nil
}
