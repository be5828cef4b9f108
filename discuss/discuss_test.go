package discuss_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/nasermirzaei89/agora/discuss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCommentRepository mimics the store, including the cascading delete.
type memoryCommentRepository struct {
	mu       sync.Mutex
	comments []*discuss.Comment
}

var _ discuss.CommentRepository = (*memoryCommentRepository)(nil)

func (repo *memoryCommentRepository) Insert(_ context.Context, comment *discuss.Comment) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored := *comment
	repo.comments = append(repo.comments, &stored)

	return nil
}

func (repo *memoryCommentRepository) Find(_ context.Context, commentID string) (*discuss.Comment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, comment := range repo.comments {
		if comment.ID == commentID {
			found := *comment

			return &found, nil
		}
	}

	return nil, &discuss.CommentNotFoundError{ID: commentID}
}

func (repo *memoryCommentRepository) List(_ context.Context, params *discuss.ListCommentsParams) ([]*discuss.Comment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	result := make([]*discuss.Comment, 0)

	for _, comment := range repo.comments {
		if comment.PostID == params.PostID {
			listed := *comment
			result = append(result, &listed)
		}
	}

	return result, nil
}

func (repo *memoryCommentRepository) Count(ctx context.Context, postID string) (int, error) {
	comments, err := repo.List(ctx, &discuss.ListCommentsParams{PostID: postID})

	return len(comments), err
}

func (repo *memoryCommentRepository) Delete(_ context.Context, commentID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	doomed := map[string]bool{commentID: true}

	for changed := true; changed; {
		changed = false

		for _, comment := range repo.comments {
			if comment.ParentID != nil && doomed[*comment.ParentID] && !doomed[comment.ID] {
				doomed[comment.ID] = true
				changed = true
			}
		}
	}

	kept := repo.comments[:0]

	for _, comment := range repo.comments {
		if !doomed[comment.ID] {
			kept = append(kept, comment)
		}
	}

	repo.comments = kept

	return nil
}

func TestService_CreateComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := discuss.NewService(&memoryCommentRepository{})

	t.Run("whitespace only content is rejected", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "user-1",
			Content:  " \n\t ",
		})
		require.ErrorIs(t, err, discuss.ErrEmptyContent)
	})

	t.Run("content is trimmed", func(t *testing.T) {
		comment, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "user-1",
			Content:  "  hello  ",
		})
		require.NoError(t, err)
		assert.Equal(t, "hello", comment.Content)
		assert.True(t, comment.IsTopLevel())
	})

	t.Run("too long content is rejected", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "user-1",
			Content:  strings.Repeat("a", discuss.MaxContentLength+1),
		})

		invalidErr := &discuss.InvalidCommentError{}
		require.ErrorAs(t, err, &invalidErr)
	})

	t.Run("reply to existing comment", func(t *testing.T) {
		parent, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID: "post-1", AuthorID: "user-1", Content: "parent",
		})
		require.NoError(t, err)

		reply, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID: "post-1", AuthorID: "user-2", Content: "reply", ParentID: parent.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, reply.ParentID)
		assert.Equal(t, parent.ID, *reply.ParentID)
	})

	t.Run("reply to missing comment", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID: "post-1", AuthorID: "user-1", Content: "reply", ParentID: "missing",
		})

		parentErr := &discuss.ParentNotFoundError{}
		require.ErrorAs(t, err, &parentErr)
	})

	t.Run("reply to comment of another post", func(t *testing.T) {
		other, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID: "post-2", AuthorID: "user-1", Content: "elsewhere",
		})
		require.NoError(t, err)

		_, err = svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID: "post-1", AuthorID: "user-1", Content: "reply", ParentID: other.ID,
		})

		parentErr := &discuss.ParentNotFoundError{}
		require.ErrorAs(t, err, &parentErr)
	})
}

func TestService_DeleteComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := discuss.NewService(&memoryCommentRepository{})

	root, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{PostID: "p", AuthorID: "alice", Content: "root"})
	require.NoError(t, err)

	for _, content := range []string{"first", "second"} {
		_, err = svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID: "p", AuthorID: "bob", Content: content, ParentID: root.ID,
		})
		require.NoError(t, err)
	}

	other, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{PostID: "p", AuthorID: "bob", Content: "other"})
	require.NoError(t, err)

	t.Run("non author is refused", func(t *testing.T) {
		err := svc.DeleteComment(ctx, discuss.DeleteCommentRequest{CommentID: root.ID, RequesterID: "bob"})

		notAuthorErr := &discuss.NotCommentAuthorError{}
		require.ErrorAs(t, err, &notAuthorErr)

		count, err := svc.CountComments(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("author delete cascades to replies", func(t *testing.T) {
		err := svc.DeleteComment(ctx, discuss.DeleteCommentRequest{CommentID: root.ID, RequesterID: "alice"})
		require.NoError(t, err)

		comments, err := svc.ListComments(ctx, discuss.ListCommentsRequest{PostID: "p"})
		require.NoError(t, err)

		tree := discuss.BuildTree(comments)
		require.Len(t, tree, 1)
		assert.Equal(t, other.ID, tree[0].ID)
	})

	t.Run("missing comment", func(t *testing.T) {
		err := svc.DeleteComment(ctx, discuss.DeleteCommentRequest{CommentID: "missing", RequesterID: "alice"})

		notFoundErr := &discuss.CommentNotFoundError{}
		require.ErrorAs(t, err, &notFoundErr)
	})
}
