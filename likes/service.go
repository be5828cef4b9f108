// Package likes records which users like which posts and comments.
package likes

import (
	"context"
	"fmt"
	"time"
)

const ServiceName = "github.com/nasermirzaei89/agora/likes"

type Service interface {
	SetLike(ctx context.Context, req SetLikeRequest) (*TargetLikes, error)
	ToggleLike(ctx context.Context, req ToggleLikeRequest) (*TargetLikes, error)
	GetTargetLikes(ctx context.Context, targetType TargetType, targetID string, viewerID *string) (*TargetLikes, error)
	ListTargetLikes(
		ctx context.Context,
		targetType TargetType,
		targetIDs []string,
		viewerID *string,
	) (map[string]*TargetLikes, error)
}

type BaseService struct {
	likeRepo LikeRepository
}

var _ Service = (*BaseService)(nil)

func NewService(likeRepo LikeRepository) *BaseService {
	return &BaseService{likeRepo: likeRepo}
}

// TargetLikes is the like state of a target as seen by one viewer.
type TargetLikes struct {
	TargetType TargetType
	TargetID   string
	Count      int
	Liked      bool
}

type SetLikeRequest struct {
	TargetType TargetType
	TargetID   string
	UserID     string
	Liked      bool
}

// SetLike makes the user's like state equal to req.Liked. Repeating the same
// request changes nothing, so a retried or doubled click never counts twice.
func (svc *BaseService) SetLike(ctx context.Context, req SetLikeRequest) (*TargetLikes, error) {
	if !req.TargetType.IsValid() {
		return nil, InvalidTargetTypeError{TargetType: req.TargetType}
	}

	if req.Liked {
		_, err := svc.likeRepo.Insert(ctx, &Like{
			TargetType: req.TargetType,
			TargetID:   req.TargetID,
			UserID:     req.UserID,
			CreatedAt:  time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to insert like: %w", err)
		}
	} else {
		_, err := svc.likeRepo.Delete(ctx, req.TargetType, req.TargetID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to delete like: %w", err)
		}
	}

	targetLikes, err := svc.GetTargetLikes(ctx, req.TargetType, req.TargetID, &req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target likes: %w", err)
	}

	return targetLikes, nil
}

type ToggleLikeRequest struct {
	TargetType TargetType
	TargetID   string
	UserID     string
}

func (svc *BaseService) ToggleLike(ctx context.Context, req ToggleLikeRequest) (*TargetLikes, error) {
	if !req.TargetType.IsValid() {
		return nil, InvalidTargetTypeError{TargetType: req.TargetType}
	}

	exists, err := svc.likeRepo.Exists(ctx, req.TargetType, req.TargetID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing like: %w", err)
	}

	targetLikes, err := svc.SetLike(ctx, SetLikeRequest{
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		UserID:     req.UserID,
		Liked:      !exists,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set like: %w", err)
	}

	return targetLikes, nil
}

func (svc *BaseService) GetTargetLikes(
	ctx context.Context,
	targetType TargetType,
	targetID string,
	viewerID *string,
) (*TargetLikes, error) {
	if !targetType.IsValid() {
		return nil, InvalidTargetTypeError{TargetType: targetType}
	}

	counts, err := svc.likeRepo.CountByTargets(ctx, targetType, []string{targetID})
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	liked := false

	if viewerID != nil && *viewerID != "" {
		liked, err = svc.likeRepo.Exists(ctx, targetType, targetID, *viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check viewer like: %w", err)
		}
	}

	return &TargetLikes{
		TargetType: targetType,
		TargetID:   targetID,
		Count:      counts[targetID],
		Liked:      liked,
	}, nil
}

// ListTargetLikes is GetTargetLikes for many targets of one type, using one
// count query and at most one viewer query.
func (svc *BaseService) ListTargetLikes(
	ctx context.Context,
	targetType TargetType,
	targetIDs []string,
	viewerID *string,
) (map[string]*TargetLikes, error) {
	if !targetType.IsValid() {
		return nil, InvalidTargetTypeError{TargetType: targetType}
	}

	counts, err := svc.likeRepo.CountByTargets(ctx, targetType, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	liked := map[string]bool{}

	if viewerID != nil && *viewerID != "" {
		liked, err = svc.likeRepo.LikedByUser(ctx, targetType, targetIDs, *viewerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check viewer likes: %w", err)
		}
	}

	result := make(map[string]*TargetLikes, len(targetIDs))

	for _, targetID := range targetIDs {
		result[targetID] = &TargetLikes{
			TargetType: targetType,
			TargetID:   targetID,
			Count:      counts[targetID],
			Liked:      liked[targetID],
		}
	}

	return result, nil
}
