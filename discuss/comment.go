package discuss

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Comment struct {
	ID         string
	PostID     string
	AuthorID   string
	AuthorName string
	ParentID   *string
	Content    string
	CreatedAt  time.Time

	// Likes and HasLiked are derived per viewer at query time.
	Likes    int
	HasLiked bool

	// Replies is filled by BuildTree only. It is never persisted.
	Replies []*Comment
}

func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

type CommentRepository interface {
	Insert(ctx context.Context, comment *Comment) (err error)
	Find(ctx context.Context, commentID string) (comment *Comment, err error)
	List(ctx context.Context, params *ListCommentsParams) (comments []*Comment, err error)
	Count(ctx context.Context, postID string) (count int, err error)
	// Delete removes the comment and, through the store's cascade, all of its descendants.
	Delete(ctx context.Context, commentID string) (err error)
}

type ListCommentsParams struct {
	PostID string
	// ViewerID selects whose like status is reported in HasLiked. Empty means anonymous.
	ViewerID string
}

type CommentNotFoundError struct {
	ID string
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment with id %q not found", err.ID)
}

type ParentNotFoundError struct {
	PostID   string
	ParentID string
}

func (err ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent comment %q not found on post %q", err.ParentID, err.PostID)
}

type NotCommentAuthorError struct {
	CommentID string
	UserID    string
}

func (err NotCommentAuthorError) Error() string {
	return fmt.Sprintf("user %q is not the author of comment %q", err.UserID, err.CommentID)
}

type InvalidCommentError struct {
	Err error
}

func (err InvalidCommentError) Error() string {
	return fmt.Sprintf("invalid comment: %s", err.Err)
}

func (err InvalidCommentError) Unwrap() error {
	return err.Err
}

var ErrEmptyContent = errors.New("comment content is empty")
