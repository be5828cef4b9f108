// Package discuss stores comments on discussion posts and arranges them into
// reply threads.
package discuss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const ServiceName = "github.com/nasermirzaei89/agora/discuss"

const MaxContentLength = 10_000

type Service interface {
	CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error)
	GetComment(ctx context.Context, commentID string) (*Comment, error)
	ListComments(ctx context.Context, req ListCommentsRequest) ([]*Comment, error)
	CountComments(ctx context.Context, postID string) (int, error)
	DeleteComment(ctx context.Context, req DeleteCommentRequest) error
}

type BaseService struct {
	commentRepo CommentRepository
	validate    *validator.Validate
	now         func() time.Time
}

var _ Service = (*BaseService)(nil)

func NewService(commentRepo CommentRepository) *BaseService {
	return &BaseService{
		commentRepo: commentRepo,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}
}

type CreateCommentRequest struct {
	PostID   string `validate:"required"`
	AuthorID string `validate:"required"`
	Content  string `validate:"max=10000"`
	ParentID string
}

func (svc *BaseService) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return nil, ErrEmptyContent
	}

	err := svc.validate.Struct(req)
	if err != nil {
		return nil, &InvalidCommentError{Err: err}
	}

	var parentID *string

	if req.ParentID != "" {
		parent, err := svc.commentRepo.Find(ctx, req.ParentID)
		if err != nil {
			var notFoundErr *CommentNotFoundError
			if errors.As(err, &notFoundErr) {
				return nil, &ParentNotFoundError{PostID: req.PostID, ParentID: req.ParentID}
			}

			return nil, fmt.Errorf("failed to find parent comment: %w", err)
		}

		if parent.PostID != req.PostID {
			return nil, &ParentNotFoundError{PostID: req.PostID, ParentID: req.ParentID}
		}

		parentID = &parent.ID
	}

	comment := &Comment{
		ID:        uuid.NewString(),
		PostID:    req.PostID,
		AuthorID:  req.AuthorID,
		ParentID:  parentID,
		Content:   req.Content,
		CreatedAt: svc.now(),
	}

	err = svc.commentRepo.Insert(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	return comment, nil
}

func (svc *BaseService) GetComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return comment, nil
}

type ListCommentsRequest struct {
	PostID   string
	ViewerID string
}

// ListComments returns the flat, creation-ordered comments of a post. Use
// BuildTree to arrange them into threads.
func (svc *BaseService) ListComments(ctx context.Context, req ListCommentsRequest) ([]*Comment, error) {
	comments, err := svc.commentRepo.List(ctx, &ListCommentsParams{PostID: req.PostID, ViewerID: req.ViewerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (svc *BaseService) CountComments(ctx context.Context, postID string) (int, error) {
	count, err := svc.commentRepo.Count(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}

type DeleteCommentRequest struct {
	CommentID   string
	RequesterID string
}

// DeleteComment deletes a comment owned by the requester together with every
// reply below it.
func (svc *BaseService) DeleteComment(ctx context.Context, req DeleteCommentRequest) error {
	comment, err := svc.commentRepo.Find(ctx, req.CommentID)
	if err != nil {
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.AuthorID != req.RequesterID {
		return &NotCommentAuthorError{CommentID: req.CommentID, UserID: req.RequesterID}
	}

	err = svc.commentRepo.Delete(ctx, req.CommentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	slog.InfoContext(ctx, "comment deleted", "commentId", req.CommentID, "postId", comment.PostID)

	return nil
}
