// Package casbin enforces agora permissions with an RBAC-with-domains casbin
// model. Subjects are user ids or system groups, domains are service names.
package casbin

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/nasermirzaei89/agora/authorization"
)

// ObjectNone is stored in place of an empty object.
const ObjectNone = "-"

//go:embed model.conf
var casbinModelContent string

type Provider struct {
	enforcer *casbin.Enforcer
}

var _ authorization.Provider = (*Provider)(nil)

// NewProvider builds an enforcer whose rules are loaded from, and auto-saved
// to, persistAdapter.
func NewProvider(persistAdapter persist.Adapter) (*Provider, error) {
	casbinModel, err := model.NewModelFromString(casbinModelContent)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(casbinModel, persistAdapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)

	err = enforcer.LoadPolicy()
	if err != nil {
		return nil, fmt.Errorf("failed to load db policy: %w", err)
	}

	return &Provider{
		enforcer: enforcer,
	}, nil
}

func (p *Provider) Enforce(
	ctx context.Context,
	subject string,
	perm authorization.Permission,
) (*authorization.Decision, error) {
	object := perm.Object
	if object == "" {
		object = ObjectNone
	}

	allowed, rule, err := p.enforcer.EnforceEx(subject, perm.Domain, object, perm.Action)
	if err != nil {
		return nil, fmt.Errorf("failed to enforce: %w", err)
	}

	return &authorization.Decision{
		Allowed: allowed,
		Rule:    rule,
	}, nil
}

func (p *Provider) AddToGroup(ctx context.Context, subject string, groups ...string) error {
	rules := make([][]string, 0, len(groups))

	for _, group := range groups {
		rules = append(rules, []string{subject, group})
	}

	_, err := p.enforcer.AddGroupingPolicies(rules)
	if err != nil {
		return fmt.Errorf("failed to add grouping policies: %w", err)
	}

	return nil
}
