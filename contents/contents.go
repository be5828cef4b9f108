// Package contents manages discussion threads. Comments on them live in the
// discuss package.
package contents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const ServiceName = "github.com/nasermirzaei89/agora/contents"

type Service interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	GetPost(ctx context.Context, postID string) (*Post, error)
	ListPosts(ctx context.Context) ([]*Post, error)
}

type BaseService struct {
	postRepo PostRepository
	validate *validator.Validate
}

var _ Service = (*BaseService)(nil)

func NewService(postRepo PostRepository) *BaseService {
	return &BaseService{
		postRepo: postRepo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type CreatePostRequest struct {
	AuthorID string `validate:"required"`
	Title    string `validate:"required,max=200"`
	Content  string `validate:"required,max=20000"`
}

type InvalidPostError struct {
	Err error
}

func (err InvalidPostError) Error() string {
	return fmt.Sprintf("invalid post: %s", err.Err)
}

func (err InvalidPostError) Unwrap() error {
	return err.Err
}

func (svc *BaseService) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)

	err := svc.validate.Struct(req)
	if err != nil {
		return nil, &InvalidPostError{Err: err}
	}

	post := &Post{
		ID:        uuid.NewString(),
		AuthorID:  req.AuthorID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	err = svc.postRepo.Insert(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

func (svc *BaseService) GetPost(ctx context.Context, postID string) (*Post, error) {
	post, err := svc.postRepo.Find(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	return post, nil
}

func (svc *BaseService) ListPosts(ctx context.Context) ([]*Post, error) {
	posts, err := svc.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}
