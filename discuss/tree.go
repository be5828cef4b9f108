package discuss

import (
	"cmp"
	"slices"
)

type Order int

const (
	OrderOldestFirst Order = iota
	OrderNewestFirst
)

// OrphanPolicy decides what happens to a comment whose parent is not in the
// fetched set, e.g. because the parent was deleted concurrently.
type OrphanPolicy int

const (
	// OrphansPromote shows orphans as top-level comments.
	OrphansPromote OrphanPolicy = iota
	// OrphansHide drops orphans and everything below them.
	OrphansHide
)

type treeOptions struct {
	order        Order
	orphanPolicy OrphanPolicy
}

type TreeOption func(*treeOptions)

func WithOrder(order Order) TreeOption {
	return func(o *treeOptions) {
		o.order = order
	}
}

func WithOrphanPolicy(policy OrphanPolicy) TreeOption {
	return func(o *treeOptions) {
		o.orphanPolicy = policy
	}
}

// BuildTree arranges a flat list of comments into threads by matching
// ParentID to ID. The result holds copies; the input is left untouched.
//
// Every input comment appears at most once in the result (exactly once under
// OrphansPromote). Duplicate ids keep their first occurrence. Parent chains
// that loop back on themselves are cut at the earliest comment of the loop,
// which is then handled like an orphan.
func BuildTree(comments []*Comment, opts ...TreeOption) []*Comment {
	options := treeOptions{order: OrderOldestFirst, orphanPolicy: OrphansPromote}
	for _, opt := range opts {
		opt(&options)
	}

	arena := make([]*Comment, 0, len(comments))
	indexByID := make(map[string]int, len(comments))

	for _, comment := range comments {
		if comment == nil {
			continue
		}

		if _, seen := indexByID[comment.ID]; seen {
			continue
		}

		node := *comment
		node.Replies = nil

		indexByID[node.ID] = len(arena)
		arena = append(arena, &node)
	}

	compare := func(a, b int) int {
		c := arena[a].CreatedAt.Compare(arena[b].CreatedAt)
		if options.order == OrderNewestFirst {
			c = -c
		}

		return cmp.Or(c, cmp.Compare(arena[a].ID, arena[b].ID))
	}

	children := make(map[int][]int, len(arena))
	roots := make([]int, 0)
	detached := make([]int, 0)

	for i, node := range arena {
		if node.IsTopLevel() {
			roots = append(roots, i)

			continue
		}

		parent, found := indexByID[*node.ParentID]
		if !found || parent == i {
			detached = append(detached, i)

			continue
		}

		children[parent] = append(children[parent], i)
	}

	for parent := range children {
		slices.SortFunc(children[parent], compare)
	}

	visited := make([]bool, len(arena))

	attach := func(root int) {
		visited[root] = true
		queue := []int{root}

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			for _, child := range children[current] {
				if visited[child] {
					continue
				}

				visited[child] = true
				arena[current].Replies = append(arena[current].Replies, arena[child])
				queue = append(queue, child)
			}
		}
	}

	for _, root := range roots {
		attach(root)
	}

	if options.orphanPolicy == OrphansPromote {
		// orphans first, then whatever a parent loop left unreached
		slices.SortFunc(detached, compare)

		for _, orphan := range detached {
			attach(orphan)
			roots = append(roots, orphan)
		}

		unreached := make([]int, 0)

		for i := range arena {
			if !visited[i] {
				unreached = append(unreached, i)
			}
		}

		slices.SortFunc(unreached, compare)

		for _, i := range unreached {
			if visited[i] {
				continue
			}

			attach(i)
			roots = append(roots, i)
		}
	}

	slices.SortFunc(roots, compare)

	result := make([]*Comment, 0, len(roots))
	for _, root := range roots {
		result = append(result, arena[root])
	}

	return result
}

type FlatComment struct {
	Comment *Comment
	Depth   int
}

// FlattenWithDepth walks the tree in pre-order. Top-level comments have depth 0.
func FlattenWithDepth(tree []*Comment) []FlatComment {
	result := make([]FlatComment, 0, len(tree))

	type frame struct {
		comment *Comment
		depth   int
	}

	stack := make([]frame, 0, len(tree))
	for i := len(tree) - 1; i >= 0; i-- {
		stack = append(stack, frame{comment: tree[i], depth: 0})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		result = append(result, FlatComment{Comment: top.comment, Depth: top.depth})

		for i := len(top.comment.Replies) - 1; i >= 0; i-- {
			stack = append(stack, frame{comment: top.comment.Replies[i], depth: top.depth + 1})
		}
	}

	return result
}

func Flatten(tree []*Comment) []*Comment {
	flat := FlattenWithDepth(tree)

	result := make([]*Comment, 0, len(flat))
	for _, item := range flat {
		result = append(result, item.Comment)
	}

	return result
}

func CountTree(tree []*Comment) int {
	return len(FlattenWithDepth(tree))
}

// FindInTree returns the comment with the given id and its depth.
func FindInTree(tree []*Comment, commentID string) (*Comment, int, bool) {
	for _, item := range FlattenWithDepth(tree) {
		if item.Comment.ID == commentID {
			return item.Comment, item.Depth, true
		}
	}

	return nil, 0, false
}
