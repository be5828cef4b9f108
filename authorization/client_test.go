package authorization_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	fileadapter "github.com/casbin/casbin/v3/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v3/persist/string-adapter"
	authcontext "github.com/nasermirzaei89/agora/authentication/context"
	"github.com/nasermirzaei89/agora/authorization"
	"github.com/nasermirzaei89/agora/authorization/casbin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	discussDomain = "github.com/nasermirzaei89/agora/discuss"
	likesDomain   = "github.com/nasermirzaei89/agora/likes"
)

const threadPolicy = `g, system:anonymous, system:unauthenticated
p, system:unauthenticated, github.com/nasermirzaei89/agora/discuss, *, listComments
p, system:authenticated, github.com/nasermirzaei89/agora/discuss, *, listComments
p, system:authenticated, github.com/nasermirzaei89/agora/discuss, *, createComment
p, system:authenticated, github.com/nasermirzaei89/agora/likes, *, like
g, alice, system:authenticated
`

func newClient(t *testing.T) *authorization.Client {
	t.Helper()

	provider, err := casbin.NewProvider(stringadapter.NewAdapter(threadPolicy))
	require.NoError(t, err)

	authzSvc, err := authorization.NewService(provider)
	require.NoError(t, err)

	return authorization.NewClient(authzSvc)
}

func TestNewService(t *testing.T) {
	t.Parallel()

	_, err := authorization.NewService(nil)
	require.ErrorIs(t, err, authorization.ErrNilProvider)
}

func TestClient_CheckAccess(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	t.Run("member comments", func(t *testing.T) {
		err := client.CheckAccess(authcontext.WithSubject(ctx, "alice"), discussDomain, "post-1", "createComment")
		require.NoError(t, err)
	})

	t.Run("member is refused an action outside the policy", func(t *testing.T) {
		err := client.CheckAccess(authcontext.WithSubject(ctx, "alice"), discussDomain, "c1", "deleteComment")

		accessDeniedErr := &authorization.AccessDeniedError{}
		require.ErrorAs(t, err, &accessDeniedErr)
		assert.False(t, accessDeniedErr.Guest())
		assert.Equal(t, authorization.Permission{
			Domain: discussDomain,
			Object: "c1",
			Action: "deleteComment",
		}, accessDeniedErr.Permission)
		assert.Contains(t, err.Error(), "subject 'alice' may not deleteComment on discuss/c1")
	})

	t.Run("guest reads the thread", func(t *testing.T) {
		err := client.CheckAccess(ctx, discussDomain, "post-1", "listComments")
		require.NoError(t, err)
	})

	t.Run("guest cannot like", func(t *testing.T) {
		err := client.CheckAccess(ctx, likesDomain, "comment:c1", "like")

		accessDeniedErr := &authorization.AccessDeniedError{}
		require.ErrorAs(t, err, &accessDeniedErr)
		assert.True(t, accessDeniedErr.Guest())
		assert.Contains(t, err.Error(), "guests may not like on likes/comment:c1")
	})

	t.Run("unknown user has no groups", func(t *testing.T) {
		err := client.CheckAccess(authcontext.WithSubject(ctx, "bob"), discussDomain, "post-1", "listComments")

		accessDeniedErr := &authorization.AccessDeniedError{}
		require.ErrorAs(t, err, &accessDeniedErr)
	})
}

func TestClient_CanI(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	tests := []struct {
		name    string
		subject string
		domain  string
		action  string
		want    bool
	}{
		{"member likes", "alice", likesDomain, "like", true},
		{"member comments", "alice", discussDomain, "createComment", true},
		{"guest reads", "", discussDomain, "listComments", true},
		{"guest comments", "", discussDomain, "createComment", false},
		{"wrong domain", "alice", discussDomain, "like", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subjectCtx := ctx
			if tt.subject != "" {
				subjectCtx = authcontext.WithSubject(ctx, tt.subject)
			}

			assert.Equal(t, tt.want, client.CanI(subjectCtx, tt.domain, "x", tt.action))
			assert.Equal(t, tt.want, client.Can(ctx, authcontext.GetSubject(subjectCtx), tt.domain, "x", tt.action))
		})
	}
}

func TestClient_AddToGroup(t *testing.T) {
	ctx := context.Background()

	policyFile := filepath.Join(t.TempDir(), "policy.csv")
	require.NoError(t, os.WriteFile(policyFile, []byte(threadPolicy), 0o600))

	// the string adapter cannot save, so writes go through a file
	provider, err := casbin.NewProvider(fileadapter.NewAdapter(policyFile))
	require.NoError(t, err)

	authzSvc, err := authorization.NewService(provider)
	require.NoError(t, err)

	client := authorization.NewClient(authzSvc)

	assert.False(t, client.Can(ctx, "bob", likesDomain, "comment:c1", "like"))

	require.NoError(t, client.AddToGroup(ctx, "bob", authcontext.Authenticated))

	assert.True(t, client.Can(ctx, "bob", likesDomain, "comment:c1", "like"))
	assert.False(t, client.Can(ctx, "carol", likesDomain, "comment:c1", "like"))
}

func TestPermission_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		perm authorization.Permission
		want string
	}{
		{
			name: "object",
			perm: authorization.Permission{Domain: discussDomain, Object: "c1", Action: "deleteComment"},
			want: "deleteComment on discuss/c1",
		},
		{
			name: "whole domain",
			perm: authorization.Permission{Domain: "github.com/nasermirzaei89/agora/contents", Action: "createPost"},
			want: "createPost on contents",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.perm.String())
		})
	}
}
