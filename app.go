// Package agora wires the discussion app: storage, authorization, services and
// the web handler.
package agora

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/agora/authentication"
	"github.com/nasermirzaei89/agora/authorization"
	"github.com/nasermirzaei89/agora/authorization/casbin"
	"github.com/nasermirzaei89/agora/contents"
	"github.com/nasermirzaei89/agora/db/sqlite3"
	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/likes"
	"github.com/nasermirzaei89/agora/random"
	"github.com/nasermirzaei89/agora/server"
	"github.com/nasermirzaei89/agora/web"
	"github.com/nasermirzaei89/env"
)

const (
	defaultDSN           = "file:agora.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sessionPruneInterval = time.Hour
)

type App struct {
	server  *server.Server
	handler *web.Handler
	db      *sql.DB
	authSvc *authentication.Service
}

//go:embed policy.csv
var defaultAuthorizationPolicyContent string

func NewApp(ctx context.Context) (*App, error) {
	db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", defaultDSN))
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	ensureSchema := func(ctx context.Context) error {
		return sqlite3.EnsureCommentParentColumn(ctx, db)
	}

	err = ensureSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure comment parent column: %w", err)
	}

	userRepo := sqlite3.NewUserRepository(db)
	sessionRepo := sqlite3.NewSessionRepository(db)
	postRepo := sqlite3.NewPostRepository(db)
	commentRepo := sqlite3.NewCommentRepository(db)
	likeRepo := sqlite3.NewLikeRepository(db)

	authzProvider, err := newAuthorizationProvider(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization provider: %w", err)
	}

	authzSvc, err := authorization.NewService(authzProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization service: %w", err)
	}

	authzClient := authorization.NewClient(authzSvc)
	authSvc := authentication.NewService(
		userRepo,
		sessionRepo,
		authzClient,
		env.GetStringSlice("ADMIN_USERNAMES", []string{})...,
	)

	err = authSvc.LoadBloomFilter(ctx, 10_000, 0.01)
	if err != nil {
		return nil, fmt.Errorf("failed to load bloom filter: %w", err)
	}

	err = authSvc.PruneSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prune sessions: %w", err)
	}

	contentsSvc := contents.NewAuthorizationMiddleware(authzClient, contents.NewService(postRepo))
	discussSvc := discuss.NewAuthorizationMiddleware(authzClient, discuss.NewService(commentRepo))
	likesSvc := likes.NewAuthorizationMiddleware(authzClient, likes.NewService(likeRepo))

	sessionName := env.GetString("SESSION_NAME", "agora-"+random.String(4))
	sessionKey := env.GetString("SESSION_KEY", random.String(32))
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))

	srv := newServer()

	httpHandler, err := web.NewHandler(
		web.Services{
			Auth:         authSvc,
			Authz:        authzClient,
			Contents:     contentsSvc,
			Discuss:      discussSvc,
			Likes:        likesSvc,
			EnsureSchema: ensureSchema,
		},
		web.Options{
			CookieStore:        cookieStore,
			SessionName:        sessionName,
			CSRFAuthKey:        csrfAuthKey(),
			CSRFTrustedOrigins: env.GetStringSlice("CSRF_TRUSTED_ORIGINS", []string{}),
			Plaintext:          !srv.TLS.Enabled,
			OrphanPolicy:       orphanPolicyFromEnv(),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP handler: %w", err)
	}

	app := &App{
		server:  srv,
		handler: httpHandler,
		db:      db,
		authSvc: authSvc,
	}

	return app, nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if app.db != nil {
			err := app.db.Close()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}
	}()

	go app.pruneSessions(ctx)

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func (app *App) pruneSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := app.authSvc.PruneSessions(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "failed to prune sessions", "error", err)
			}
		}
	}
}

func newServer() *server.Server {
	server := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return server
}

// csrfAuthKey must be 32 bytes. A random key invalidates open forms on restart.
func csrfAuthKey() []byte {
	key := env.GetString("CSRF_AUTH_KEY", "")
	if key == "" {
		return random.Bytes(32)
	}

	return []byte(key)
}

func orphanPolicyFromEnv() discuss.OrphanPolicy {
	policy := env.GetString("COMMENT_ORPHAN_POLICY", "promote")
	switch policy {
	case "promote":
		return discuss.OrphansPromote
	case "hide":
		return discuss.OrphansHide
	default:
		slog.Warn("unknown comment orphan policy, defaulting to promote", "policy", policy)

		return discuss.OrphansPromote
	}
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}

func newAuthorizationProvider(ctx context.Context, db *sql.DB) (*casbin.Provider, error) {
	adapter, err := casbin.NewSQLiteAdapter(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization adapter: %w", err)
	}

	provider, err := casbin.NewProvider(adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization provider: %w", err)
	}

	policyContent, err := loadPolicyContent()
	if err != nil {
		return nil, fmt.Errorf("failed to load authorization policy content: %w", err)
	}

	added, err := provider.Seed(ctx, policyContent)
	if err != nil {
		return nil, fmt.Errorf("failed to seed authorization policy: %w", err)
	}

	if added > 0 {
		slog.InfoContext(ctx, "authorization policy seeded", "rules", added)
	}

	return provider, nil
}

func loadPolicyContent() (string, error) {
	policyFilePath := env.GetString("AUTHORIZATION_POLICY_FILE", "")

	if policyFilePath == "" {
		return defaultAuthorizationPolicyContent, nil
	}

	content, err := os.ReadFile(policyFilePath) // nolint:gosec
	if err != nil {
		return "", fmt.Errorf("failed to read policy file %q: %w", policyFilePath, err)
	}

	return string(content), nil
}
