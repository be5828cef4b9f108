// Package thread keeps the interactive state of a rendered comment thread:
// which bodies are expanded, which reply forms and option menus are open, and
// the like mutations that were applied optimistically.
package thread

import (
	"github.com/nasermirzaei89/agora/discuss"
)

// Viewer is the identity interacting with a thread. The zero value is an
// anonymous viewer.
type Viewer struct {
	UserID string
}

func (v Viewer) IsAnonymous() bool {
	return v.UserID == ""
}

// State holds the independent UI toggles of one comment.
type State struct {
	Expanded         bool
	ReplyFormVisible bool
	OptionsVisible   bool
	Draft            string

	// ReplyFailed is set when the last reply could not be stored.
	ReplyFailed bool
}

type MutationStatus int

const (
	MutationIdle MutationStatus = iota
	MutationPending
	MutationCommitted
	MutationFailed
)

func (s MutationStatus) String() string {
	switch s {
	case MutationIdle:
		return "idle"
	case MutationPending:
		return "pending"
	case MutationCommitted:
		return "committed"
	case MutationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Mutation tracks the last like change of a comment.
type Mutation struct {
	Status MutationStatus
	// Liked is the like state the mutation asked for.
	Liked bool
	// Err is the cause of a failed mutation.
	Err error
}

type Node struct {
	Comment *discuss.Comment
	Depth   int
	State   State
	Like    Mutation
	Parent  *Node
	Replies []*Node

	// likeSeq orders like mutations within a controller.
	likeSeq uint64
}

func (n *Node) Body() Body {
	return TruncateBody(n.Comment.Content, n.State.Expanded)
}

func (n *Node) IsTopLevel() bool {
	return n.Depth == 0
}

// Indent is the nesting level used for visual indentation. Top-level comments
// are not indented.
func (n *Node) Indent() int {
	return n.Depth
}

func (n *Node) CanDelete(viewer Viewer) bool {
	return !viewer.IsAnonymous() && n.Comment.AuthorID == viewer.UserID
}

func (n *Node) LikeFailed() bool {
	return n.Like.Status == MutationFailed
}

func (n *Node) LikePending() bool {
	return n.Like.Status == MutationPending
}

// View is a comment tree of one post together with per-comment UI state.
type View struct {
	PostID string
	Roots  []*Node
	index  map[string]*Node
}

// NewView wraps a tree built by discuss.BuildTree.
func NewView(postID string, tree []*discuss.Comment) *View {
	view := &View{
		PostID: postID,
		Roots:  make([]*Node, 0, len(tree)),
		index:  make(map[string]*Node),
	}

	for _, comment := range tree {
		view.Roots = append(view.Roots, view.wrap(comment, nil, 0))
	}

	return view
}

func (v *View) wrap(comment *discuss.Comment, parent *Node, depth int) *Node {
	node := &Node{
		Comment: comment,
		Depth:   depth,
		Parent:  parent,
		Replies: make([]*Node, 0, len(comment.Replies)),
	}

	v.index[comment.ID] = node

	for _, reply := range comment.Replies {
		node.Replies = append(node.Replies, v.wrap(reply, node, depth+1))
	}

	return node
}

func (v *View) Node(commentID string) (*Node, bool) {
	node, ok := v.index[commentID]

	return node, ok
}

func (v *View) Len() int {
	return len(v.index)
}

// Walk visits nodes in pre-order until fn returns false.
func (v *View) Walk(fn func(node *Node) bool) {
	stack := make([]*Node, 0, len(v.Roots))
	for i := len(v.Roots) - 1; i >= 0; i-- {
		stack = append(stack, v.Roots[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(node) {
			return
		}

		for i := len(node.Replies) - 1; i >= 0; i-- {
			stack = append(stack, node.Replies[i])
		}
	}
}

// IDs lists comment ids in pre-order.
func (v *View) IDs() []string {
	ids := make([]string, 0, len(v.index))

	v.Walk(func(node *Node) bool {
		ids = append(ids, node.Comment.ID)

		return true
	})

	return ids
}

// remove detaches a node and forgets it and all its descendants.
func (v *View) remove(node *Node) {
	siblings := &v.Roots
	if node.Parent != nil {
		siblings = &node.Parent.Replies
	}

	for i, sibling := range *siblings {
		if sibling == node {
			*siblings = append((*siblings)[:i:i], (*siblings)[i+1:]...)

			break
		}
	}

	stack := []*Node{node}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		delete(v.index, current.Comment.ID)

		stack = append(stack, current.Replies...)
	}
}
