package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nasermirzaei89/agora/discuss"
)

type commentJSON struct {
	ID         string         `json:"id"`
	ParentID   *string        `json:"parentId"`
	AuthorID   string         `json:"authorId"`
	AuthorName string         `json:"authorName"`
	Content    string         `json:"content"`
	CreatedAt  time.Time      `json:"createdAt"`
	Likes      int            `json:"likes"`
	HasLiked   bool           `json:"hasLiked"`
	Replies    []*commentJSON `json:"replies"`
}

type commentsResponse struct {
	PostID   string         `json:"postId"`
	Count    int            `json:"count"`
	Comments []*commentJSON `json:"comments"`
}

func toCommentJSON(tree []*discuss.Comment) []*commentJSON {
	result := make([]*commentJSON, 0, len(tree))

	for _, comment := range tree {
		result = append(result, &commentJSON{
			ID:         comment.ID,
			ParentID:   comment.ParentID,
			AuthorID:   comment.AuthorID,
			AuthorName: comment.AuthorName,
			Content:    comment.Content,
			CreatedAt:  comment.CreatedAt,
			Likes:      comment.Likes,
			HasLiked:   comment.HasLiked,
			Replies:    toCommentJSON(comment.Replies),
		})
	}

	return result
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// HandleListCommentsAPI returns the comment tree of a post as JSON, with
// like state for the current viewer.
func (h *Handler) HandleListCommentsAPI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		_, err := h.contentsSvc.GetPost(r.Context(), postID)
		if err != nil {
			h.handleServiceError(w, r, "failed to get post", err)

			return
		}

		comments, err := h.discussSvc.ListComments(r.Context(), discuss.ListCommentsRequest{
			PostID:   postID,
			ViewerID: viewerFromRequest(r).UserID,
		})
		if err != nil {
			h.handleServiceError(w, r, "failed to list comments", err)

			return
		}

		tree := discuss.BuildTree(comments, h.treeOpts...)

		writeJSON(w, r, http.StatusOK, &commentsResponse{
			PostID:   postID,
			Count:    discuss.CountTree(tree),
			Comments: toCommentJSON(tree),
		})
	})
}
