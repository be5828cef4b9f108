package casbin_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	fileadapter "github.com/casbin/casbin/v3/persist/file-adapter"
	"github.com/nasermirzaei89/agora/authorization"
	"github.com/nasermirzaei89/agora/authorization/casbin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	rules, err := casbin.ParsePolicy(`# guests
g, system:anonymous, system:unauthenticated

p, system:unauthenticated, github.com/nasermirzaei89/agora/discuss, *, listComments
`)
	require.NoError(t, err)

	assert.Equal(t, []casbin.Rule{
		{Line: 2, Type: "g", Values: []string{"system:anonymous", "system:unauthenticated"}},
		{
			Line:   4,
			Type:   "p",
			Values: []string{"system:unauthenticated", "github.com/nasermirzaei89/agora/discuss", "*", "listComments"},
		},
	}, rules)
}

func TestParsePolicy_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		content   string
		malformed bool
		line      int
	}{
		{name: "unknown type", content: "x, a, b", line: 1},
		{name: "short policy", content: "g, a, b\np, a, domain, listComments", malformed: true, line: 2},
		{name: "long grouping", content: "g, a, b, c", malformed: true, line: 1},
		{name: "empty value", content: "p, a, , *, like", malformed: true, line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := casbin.ParsePolicy(tt.content)
			require.Error(t, err)

			if tt.malformed {
				malformedErr := &casbin.MalformedRuleError{}
				require.ErrorAs(t, err, &malformedErr)
				assert.Equal(t, tt.line, malformedErr.Line)

				return
			}

			unknownErr := &casbin.UnknownPolicyTypeError{}
			require.ErrorAs(t, err, &unknownErr)
			assert.Equal(t, tt.line, unknownErr.Line)
		})
	}
}

func TestProvider_Seed(t *testing.T) {
	ctx := context.Background()

	policyFile := filepath.Join(t.TempDir(), "policy.csv")
	require.NoError(t, os.WriteFile(policyFile, nil, 0o600))

	provider, err := casbin.NewProvider(fileadapter.NewAdapter(policyFile))
	require.NoError(t, err)

	content := `g, system:anonymous, system:unauthenticated
p, system:unauthenticated, github.com/nasermirzaei89/agora/discuss, *, listComments
p, system:admin, github.com/nasermirzaei89/agora/admin, schema, ensureSchema
`

	added, err := provider.Seed(ctx, content)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	added, err = provider.Seed(ctx, content)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	decision, err := provider.Enforce(ctx, "system:anonymous", authorization.Permission{
		Domain: "github.com/nasermirzaei89/agora/discuss",
		Object: "post-1",
		Action: "listComments",
	})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t,
		[]string{"system:unauthenticated", "github.com/nasermirzaei89/agora/discuss", "*", "listComments"},
		decision.Rule,
	)

	decision, err = provider.Enforce(ctx, "system:anonymous", authorization.Permission{
		Domain: "github.com/nasermirzaei89/agora/admin",
		Object: "schema",
		Action: "ensureSchema",
	})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Empty(t, decision.Rule)

	_, err = provider.Seed(ctx, "p, only, three")
	malformedErr := &casbin.MalformedRuleError{}
	require.ErrorAs(t, err, &malformedErr)
}
