// Package authorization decides whether a subject may act on an agora
// resource. A Permission is scoped by the service that owns the object, so
// comment rules live under the discuss service name and like rules under the
// likes service name.
package authorization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	authcontext "github.com/nasermirzaei89/agora/authentication/context"
)

// Permission is one action on one object inside a service domain. An empty
// Object stands for the whole domain, as with creating a post.
type Permission struct {
	Domain string
	Object string
	Action string
}

func (p Permission) String() string {
	if p.Object == "" {
		return p.Action + " on " + path.Base(p.Domain)
	}

	return p.Action + " on " + path.Base(p.Domain) + "/" + p.Object
}

// Decision is the outcome of one enforcement. Rule is the policy line that
// granted access and is empty on denial.
type Decision struct {
	Allowed bool
	Rule    []string
}

type Provider interface {
	Enforce(ctx context.Context, subject string, perm Permission) (*Decision, error)
	AddToGroup(ctx context.Context, subject string, groups ...string) error
}

var ErrNilProvider = errors.New("authorization provider must not be nil")

type Service struct {
	provider Provider
}

func NewService(provider Provider) (*Service, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	return &Service{
		provider: provider,
	}, nil
}

type AccessDeniedError struct {
	Subject    string
	Permission Permission
}

func (err AccessDeniedError) Error() string {
	if err.Guest() {
		return "guests may not " + err.Permission.String()
	}

	return fmt.Sprintf("subject '%s' may not %s", err.Subject, err.Permission)
}

// Guest reports whether the denied subject was not signed in.
func (err AccessDeniedError) Guest() bool {
	return err.Subject == authcontext.Anonymous
}

// Authorize returns an *AccessDeniedError when subject lacks perm.
func (svc *Service) Authorize(ctx context.Context, subject string, perm Permission) error {
	decision, err := svc.provider.Enforce(ctx, subject, perm)
	if err != nil {
		return fmt.Errorf("failed to enforce %s: %w", perm, err)
	}

	if !decision.Allowed {
		return &AccessDeniedError{
			Subject:    subject,
			Permission: perm,
		}
	}

	slog.DebugContext(ctx, "access granted", "subject", subject, "permission", perm.String(), "rule", decision.Rule)

	return nil
}

func (svc *Service) AddToGroup(ctx context.Context, subject string, groups ...string) error {
	err := svc.provider.AddToGroup(ctx, subject, groups...)
	if err != nil {
		return fmt.Errorf("failed to add grouping policies: %w", err)
	}

	return nil
}
