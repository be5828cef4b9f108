package web

import (
	"context"
	"fmt"

	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/likes"
	"github.com/nasermirzaei89/agora/thread"
)

// threadBackend persists thread interactions through the domain services on
// behalf of one viewer.
type threadBackend struct {
	discussSvc discuss.Service
	likesSvc   likes.Service
	viewerID   string
}

var _ thread.Backend = (*threadBackend)(nil)

func newThreadBackend(discussSvc discuss.Service, likesSvc likes.Service, viewer thread.Viewer) *threadBackend {
	return &threadBackend{
		discussSvc: discussSvc,
		likesSvc:   likesSvc,
		viewerID:   viewer.UserID,
	}
}

func (b *threadBackend) ListComments(ctx context.Context, postID string) ([]*discuss.Comment, error) {
	comments, err := b.discussSvc.ListComments(ctx, discuss.ListCommentsRequest{
		PostID:   postID,
		ViewerID: b.viewerID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (b *threadBackend) SetLike(ctx context.Context, commentID string, liked bool) error {
	_, err := b.likesSvc.SetLike(ctx, likes.SetLikeRequest{
		TargetType: likes.TargetTypeComment,
		TargetID:   commentID,
		UserID:     b.viewerID,
		Liked:      liked,
	})
	if err != nil {
		return fmt.Errorf("failed to set like: %w", err)
	}

	return nil
}

func (b *threadBackend) CreateReply(ctx context.Context, postID, parentID, content string) error {
	_, err := b.discussSvc.CreateComment(ctx, discuss.CreateCommentRequest{
		PostID:   postID,
		AuthorID: b.viewerID,
		Content:  content,
		ParentID: parentID,
	})
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

func (b *threadBackend) DeleteComment(ctx context.Context, commentID string) error {
	err := b.discussSvc.DeleteComment(ctx, discuss.DeleteCommentRequest{
		CommentID:   commentID,
		RequesterID: b.viewerID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}
