package likes

import (
	"context"
	"fmt"

	"github.com/nasermirzaei89/agora/authorization"
)

const (
	ActionLike     = "like"
	ActionGetLikes = "getLikes"
)

const resourceSeparator = ":"

type AuthorizationMiddleware struct {
	authzClient *authorization.Client
	next        Service
}

var _ Service = (*AuthorizationMiddleware)(nil)

func NewAuthorizationMiddleware(authzClient *authorization.Client, next Service) *AuthorizationMiddleware {
	return &AuthorizationMiddleware{
		authzClient: authzClient,
		next:        next,
	}
}

func resource(targetType TargetType, targetID string) string {
	return string(targetType) + resourceSeparator + targetID
}

func (mw *AuthorizationMiddleware) SetLike(ctx context.Context, req SetLikeRequest) (*TargetLikes, error) {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, resource(req.TargetType, req.TargetID), ActionLike)
	if err != nil {
		return nil, fmt.Errorf("failed to check authorization: %w", err)
	}

	targetLikes, err := mw.next.SetLike(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return targetLikes, nil
}

func (mw *AuthorizationMiddleware) ToggleLike(ctx context.Context, req ToggleLikeRequest) (*TargetLikes, error) {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, resource(req.TargetType, req.TargetID), ActionLike)
	if err != nil {
		return nil, fmt.Errorf("failed to check authorization: %w", err)
	}

	targetLikes, err := mw.next.ToggleLike(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return targetLikes, nil
}

func (mw *AuthorizationMiddleware) GetTargetLikes(
	ctx context.Context,
	targetType TargetType,
	targetID string,
	viewerID *string,
) (*TargetLikes, error) {
	err := mw.authzClient.CheckAccess(ctx, ServiceName, resource(targetType, targetID), ActionGetLikes)
	if err != nil {
		return nil, fmt.Errorf("failed to check authorization: %w", err)
	}

	targetLikes, err := mw.next.GetTargetLikes(ctx, targetType, targetID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return targetLikes, nil
}

func (mw *AuthorizationMiddleware) ListTargetLikes(
	ctx context.Context,
	targetType TargetType,
	targetIDs []string,
	viewerID *string,
) (map[string]*TargetLikes, error) {
	for _, targetID := range targetIDs {
		err := mw.authzClient.CheckAccess(ctx, ServiceName, resource(targetType, targetID), ActionGetLikes)
		if err != nil {
			return nil, fmt.Errorf("failed to check authorization: %w", err)
		}
	}

	result, err := mw.next.ListTargetLikes(ctx, targetType, targetIDs, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next method: %w", err)
	}

	return result, nil
}
