package authorization

import (
	"context"
	"fmt"

	authcontext "github.com/nasermirzaei89/agora/authentication/context"
)

// Client checks access for the subject carried by the request context.
type Client struct {
	authzSvc *Service
}

func NewClient(authzSvc *Service) *Client {
	return &Client{
		authzSvc: authzSvc,
	}
}

// CheckAccess fails with *AccessDeniedError when the current subject may not
// perform action on object within the service domain.
func (c *Client) CheckAccess(ctx context.Context, domain, object, action string) error {
	err := c.authzSvc.Authorize(ctx, authcontext.GetSubject(ctx), Permission{
		Domain: domain,
		Object: object,
		Action: action,
	})
	if err != nil {
		return fmt.Errorf("error on check permission: %w", err)
	}

	return nil
}

// CanI reports whether the current subject may perform action. Errors count as a denial.
func (c *Client) CanI(ctx context.Context, domain, object, action string) bool {
	return c.Can(ctx, authcontext.GetSubject(ctx), domain, object, action)
}

func (c *Client) Can(ctx context.Context, subject, domain, object, action string) bool {
	err := c.authzSvc.Authorize(ctx, subject, Permission{
		Domain: domain,
		Object: object,
		Action: action,
	})

	return err == nil
}

func (c *Client) AddToGroup(ctx context.Context, subject string, groups ...string) error {
	err := c.authzSvc.AddToGroup(ctx, subject, groups...)
	if err != nil {
		return fmt.Errorf("error on add to group: %w", err)
	}

	return nil
}
