package likes

import (
	"context"
	"fmt"
	"time"
)

type TargetType string

const (
	TargetTypePost    TargetType = "post"
	TargetTypeComment TargetType = "comment"
)

func (targetType TargetType) IsValid() bool {
	switch targetType {
	case TargetTypePost, TargetTypeComment:
		return true
	default:
		return false
	}
}

type Like struct {
	TargetType TargetType
	TargetID   string
	UserID     string
	CreatedAt  time.Time
}

type LikeRepository interface {
	// Insert stores the like unless the user already likes the target. It
	// reports whether a row was added.
	Insert(ctx context.Context, like *Like) (inserted bool, err error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, targetType TargetType, targetID string, userID string) (deleted bool, err error)
	Exists(ctx context.Context, targetType TargetType, targetID string, userID string) (exists bool, err error)
	CountByTargets(ctx context.Context, targetType TargetType, targetIDs []string) (counts map[string]int, err error)
	LikedByUser(
		ctx context.Context,
		targetType TargetType,
		targetIDs []string,
		userID string,
	) (liked map[string]bool, err error)
}

type InvalidTargetTypeError struct {
	TargetType TargetType
}

func (err InvalidTargetTypeError) Error() string {
	return fmt.Sprintf("invalid target type: %q", err.TargetType)
}
