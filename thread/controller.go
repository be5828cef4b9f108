package thread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nasermirzaei89/agora/discuss"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrEmptyReply             = errors.New("reply text is empty")
	ErrMutationPending        = errors.New("a like change for this comment is still pending")
	ErrNotCommentAuthor       = errors.New("only the author can delete a comment")
	ErrNothingToRetry         = errors.New("no failed like change to retry")
)

type CommentNotFoundError struct {
	ID string
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment %q is not in the thread", err.ID)
}

// Backend persists thread interactions on behalf of the viewer.
type Backend interface {
	ListComments(ctx context.Context, postID string) (comments []*discuss.Comment, err error)
	SetLike(ctx context.Context, commentID string, liked bool) (err error)
	CreateReply(ctx context.Context, postID, parentID, content string) (err error)
	DeleteComment(ctx context.Context, commentID string) (err error)
}

// Controller applies viewer interactions to a View. It is safe for concurrent
// use; backend calls run without holding the lock.
type Controller struct {
	mu       sync.Mutex
	view     *View
	likeSeq  uint64
	backend  Backend
	viewer   Viewer
	treeOpts []discuss.TreeOption
}

func NewController(view *View, backend Backend, viewer Viewer, treeOpts ...discuss.TreeOption) *Controller {
	return &Controller{
		view:     view,
		backend:  backend,
		viewer:   viewer,
		treeOpts: treeOpts,
	}
}

// View returns the current view. Callers must not modify it while other
// goroutines use the controller.
func (c *Controller) View() *View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.view
}

func (c *Controller) Viewer() Viewer {
	return c.viewer
}

func (c *Controller) node(commentID string) (*Node, error) {
	node, ok := c.view.Node(commentID)
	if !ok {
		return nil, &CommentNotFoundError{ID: commentID}
	}

	return node, nil
}

func applyLike(comment *discuss.Comment, liked bool) {
	if comment.HasLiked == liked {
		return
	}

	comment.HasLiked = liked

	if liked {
		comment.Likes++
	} else {
		comment.Likes--
	}
}

// ToggleLike flips the viewer's like immediately and then persists it. If the
// backend fails the flip is undone, the mutation is marked failed and the
// error is returned; RetryLike repeats it.
func (c *Controller) ToggleLike(ctx context.Context, commentID string) error {
	if c.viewer.IsAnonymous() {
		return ErrAuthenticationRequired
	}

	c.mu.Lock()

	node, err := c.node(commentID)
	if err != nil {
		c.mu.Unlock()

		return err
	}

	if node.LikePending() {
		c.mu.Unlock()

		return ErrMutationPending
	}

	desired := !node.Comment.HasLiked
	applyLike(node.Comment, desired)
	node.Like = Mutation{Status: MutationPending, Liked: desired, Err: nil}
	c.likeSeq++
	node.likeSeq = c.likeSeq

	c.mu.Unlock()

	backendErr := c.backend.SetLike(ctx, commentID, desired)

	c.mu.Lock()
	defer c.mu.Unlock()

	// the view may have been refreshed or pruned meanwhile
	node, err = c.node(commentID)
	if err != nil {
		return backendErr
	}

	if backendErr != nil {
		applyLike(node.Comment, !desired)
		node.Like = Mutation{Status: MutationFailed, Liked: desired, Err: backendErr}

		slog.ErrorContext(ctx, "failed to persist like", "commentId", commentID, "liked", desired, "error", backendErr)

		return fmt.Errorf("failed to set like: %w", backendErr)
	}

	node.Like = Mutation{Status: MutationCommitted, Liked: desired, Err: nil}

	return nil
}

// RestoreFailedLike marks the like change to liked as failed, as a client
// reports when it asks for a retry on a freshly loaded view. A comment that
// already has that state gets ErrNothingToRetry and is left alone.
func (c *Controller) RestoreFailedLike(commentID string, liked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.node(commentID)
	if err != nil {
		return err
	}

	if node.LikePending() {
		return ErrMutationPending
	}

	if node.Comment.HasLiked == liked {
		return ErrNothingToRetry
	}

	node.Like = Mutation{Status: MutationFailed, Liked: liked, Err: nil}

	return nil
}

// RetryLike repeats a failed like change. It returns ErrNothingToRetry when
// the comment already has the like state the failed change asked for.
func (c *Controller) RetryLike(ctx context.Context, commentID string) error {
	c.mu.Lock()

	node, err := c.node(commentID)
	if err != nil {
		c.mu.Unlock()

		return err
	}

	failed := node.LikeFailed() && node.Comment.HasLiked != node.Like.Liked

	c.mu.Unlock()

	if !failed {
		return ErrNothingToRetry
	}

	return c.ToggleLike(ctx, commentID)
}

func (c *Controller) SetDraft(commentID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.node(commentID)
	if err != nil {
		return err
	}

	node.State.Draft = text

	return nil
}

// SubmitReply sends a reply to parentID. Whitespace-only text is refused
// before anything is sent and leaves the form untouched. On success the draft
// is cleared and the form closed; the reply itself shows up after Refresh.
func (c *Controller) SubmitReply(ctx context.Context, parentID, text string) error {
	if c.viewer.IsAnonymous() {
		return ErrAuthenticationRequired
	}

	if strings.TrimSpace(text) == "" {
		return ErrEmptyReply
	}

	c.mu.Lock()
	_, err := c.node(parentID)
	postID := c.view.PostID
	c.mu.Unlock()

	if err != nil {
		return err
	}

	backendErr := c.backend.CreateReply(ctx, postID, parentID, strings.TrimSpace(text))

	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.view.Node(parentID)

	if backendErr != nil {
		if ok {
			node.State.ReplyFailed = true
		}

		return fmt.Errorf("failed to create reply: %w", backendErr)
	}

	if ok {
		node.State.Draft = ""
		node.State.ReplyFormVisible = false
		node.State.ReplyFailed = false
	}

	return nil
}

// DeleteComment deletes a comment of the viewer and drops it, with all its
// replies, from the view.
func (c *Controller) DeleteComment(ctx context.Context, commentID string) error {
	if c.viewer.IsAnonymous() {
		return ErrAuthenticationRequired
	}

	c.mu.Lock()

	node, err := c.node(commentID)
	if err != nil {
		c.mu.Unlock()

		return err
	}

	canDelete := node.CanDelete(c.viewer)

	c.mu.Unlock()

	if !canDelete {
		return ErrNotCommentAuthor
	}

	err = c.backend.DeleteComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.view.Node(commentID); ok {
		c.view.remove(node)
	}

	return nil
}

func (c *Controller) ToggleExpanded(commentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.node(commentID)
	if err != nil {
		return err
	}

	node.State.Expanded = !node.State.Expanded

	return nil
}

func (c *Controller) ToggleReplyForm(commentID string) error {
	if c.viewer.IsAnonymous() {
		return ErrAuthenticationRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.node(commentID)
	if err != nil {
		return err
	}

	node.State.ReplyFormVisible = !node.State.ReplyFormVisible

	return nil
}

// ToggleOptions opens or closes the options menu of a comment. Opening one
// menu counts as an outside interaction for every other open menu.
func (c *Controller) ToggleOptions(commentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.node(commentID)
	if err != nil {
		return err
	}

	open := !node.State.OptionsVisible

	c.view.Walk(func(other *Node) bool {
		other.State.OptionsVisible = false

		return true
	})

	node.State.OptionsVisible = open

	return nil
}

// CloseMenus closes every open options menu.
func (c *Controller) CloseMenus() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view.Walk(func(node *Node) bool {
		node.State.OptionsVisible = false

		return true
	})
}

// Refresh replaces the view with a fresh fetch, keeping the UI state of
// comments that still exist. Likes still in flight, and likes changed after
// the fetch started, stay applied on top of the fetched counts.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	postID := c.view.PostID
	since := c.likeSeq
	c.mu.Unlock()

	comments, err := c.backend.ListComments(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}

	fresh := NewView(postID, discuss.BuildTree(comments, c.treeOpts...))

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, node := range fresh.index {
		old, ok := c.view.index[id]
		if !ok {
			continue
		}

		node.State = old.State

		if !old.LikePending() && old.likeSeq <= since {
			continue
		}

		node.Like = old.Like
		node.likeSeq = old.likeSeq

		if !old.LikeFailed() {
			applyLike(node.Comment, old.Like.Liked)
		}
	}

	c.view = fresh

	return nil
}
