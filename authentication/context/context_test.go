package authcontext_test

import (
	"context"
	"testing"

	authcontext "github.com/nasermirzaei89/agora/authentication/context"
	"github.com/stretchr/testify/assert"
)

func TestGetSubject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	assert.Equal(t, authcontext.Anonymous, authcontext.GetSubject(ctx))
	assert.True(t, authcontext.IsAnonymous(ctx))

	ctx = authcontext.WithSubject(ctx, "user-1")
	assert.Equal(t, "user-1", authcontext.GetSubject(ctx))
	assert.False(t, authcontext.IsAnonymous(ctx))

	assert.Equal(t, authcontext.Anonymous, authcontext.GetSubject(authcontext.WithSubject(ctx, "")))
}

func TestSessionIDFromContext(t *testing.T) {
	t.Parallel()

	_, ok := authcontext.SessionIDFromContext(context.Background())
	assert.False(t, ok)

	sessionID, ok := authcontext.SessionIDFromContext(authcontext.WithSessionID(context.Background(), "s-1"))
	assert.True(t, ok)
	assert.Equal(t, "s-1", sessionID)
}
