package agora

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	authcontext "github.com/nasermirzaei89/agora/authentication/context"
	"github.com/nasermirzaei89/agora/authorization"
	"github.com/nasermirzaei89/agora/contents"
	"github.com/nasermirzaei89/agora/db/sqlite3"
	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/likes"
	"github.com/nasermirzaei89/agora/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+filepath.Join(t.TempDir(), "agora.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})

	// loading twice must not duplicate rules
	_, err = newAuthorizationProvider(ctx, db)
	require.NoError(t, err)

	provider, err := newAuthorizationProvider(ctx, db)
	require.NoError(t, err)

	authzSvc, err := authorization.NewService(provider)
	require.NoError(t, err)

	client := authorization.NewClient(authzSvc)

	require.NoError(t, client.AddToGroup(ctx, "member", authcontext.Authenticated))
	require.NoError(t, client.AddToGroup(ctx, "root", authcontext.Authenticated, authcontext.Admin))

	tests := []struct {
		name    string
		subject string
		domain  string
		action  string
		allowed bool
	}{
		{"guest reads posts", authcontext.Anonymous, contents.ServiceName, contents.ActionListPosts, true},
		{"guest reads comments", authcontext.Anonymous, discuss.ServiceName, discuss.ActionListComments, true},
		{"guest reads likes", authcontext.Anonymous, likes.ServiceName, likes.ActionGetLikes, true},
		{"guest cannot post", authcontext.Anonymous, contents.ServiceName, contents.ActionCreatePost, false},
		{"guest cannot comment", authcontext.Anonymous, discuss.ServiceName, discuss.ActionCreateComment, false},
		{"guest cannot like", authcontext.Anonymous, likes.ServiceName, likes.ActionLike, false},
		{"member comments", "member", discuss.ServiceName, discuss.ActionCreateComment, true},
		{"member deletes", "member", discuss.ServiceName, discuss.ActionDeleteComment, true},
		{"member likes", "member", likes.ServiceName, likes.ActionLike, true},
		{"member cannot migrate", "member", web.AdminDomain, web.ActionEnsureSchema, false},
		{"admin migrates", "root", web.AdminDomain, web.ActionEnsureSchema, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, client.Can(ctx, tt.subject, tt.domain, "some-object", tt.action))
		})
	}
}

func TestLoadPolicyContent(t *testing.T) {
	t.Run("embedded default", func(t *testing.T) {
		t.Setenv("AUTHORIZATION_POLICY_FILE", "")

		content, err := loadPolicyContent()
		require.NoError(t, err)
		assert.Equal(t, defaultAuthorizationPolicyContent, content)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.csv")
		require.NoError(t, os.WriteFile(path, []byte("p, a, b, c, d\n"), 0o600))

		t.Setenv("AUTHORIZATION_POLICY_FILE", path)

		content, err := loadPolicyContent()
		require.NoError(t, err)
		assert.Equal(t, "p, a, b, c, d\n", content)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("AUTHORIZATION_POLICY_FILE", filepath.Join(t.TempDir(), "missing.csv"))

		_, err := loadPolicyContent()
		require.Error(t, err)
	})
}

func TestGetLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		value    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.value)

			assert.Equal(t, tt.expected, GetLogLevelFromEnv())
		})
	}
}

func TestOrphanPolicyFromEnv(t *testing.T) {
	tests := []struct {
		value    string
		expected discuss.OrphanPolicy
	}{
		{"promote", discuss.OrphansPromote},
		{"hide", discuss.OrphansHide},
		{"other", discuss.OrphansPromote},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("COMMENT_ORPHAN_POLICY", tt.value)

			assert.Equal(t, tt.expected, orphanPolicyFromEnv())
		})
	}
}
