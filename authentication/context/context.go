// Package authcontext carries the identity of the current request. The
// authentication middleware populates it when a session is resolved and
// nothing is set after sign-out, so downstream code always sees either a user
// id or Anonymous.
package authcontext

import "context"

const (
	// Anonymous is the guest user id.
	Anonymous = "system:anonymous"

	Authenticated   = "system:authenticated"
	Unauthenticated = "system:unauthenticated"
	Admin           = "system:admin"
)

type contextKeySessionID struct{}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(contextKeySessionID{}).(string)
	if !ok {
		return "", false
	}

	return sessionID, true
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID{}, sessionID)
}

type contextKeySubject struct{}

func GetSubject(ctx context.Context) string {
	userID, ok := ctx.Value(contextKeySubject{}).(string)
	if !ok || userID == "" {
		return Anonymous
	}

	return userID
}

func IsAnonymous(ctx context.Context) bool {
	return GetSubject(ctx) == Anonymous
}

func WithSubject(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeySubject{}, userID)
}

func WithServiceSubject(ctx context.Context, serviceName string) context.Context {
	return WithSubject(ctx, "system:service:"+serviceName)
}
