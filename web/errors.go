package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/agora/authorization"
	"github.com/nasermirzaei89/agora/contents"
	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/likes"
	"github.com/nasermirzaei89/agora/thread"
)

// handleServiceError answers err with the status matching its type. Unknown
// errors are logged with msg and answered with 500.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var (
		accessDeniedErr      *authorization.AccessDeniedError
		postNotFoundErr      *contents.PostNotFoundError
		commentNotFoundErr   *discuss.CommentNotFoundError
		parentNotFoundErr    *discuss.ParentNotFoundError
		nodeNotFoundErr      *thread.CommentNotFoundError
		notAuthorErr         *discuss.NotCommentAuthorError
		invalidCommentErr    *discuss.InvalidCommentError
		invalidTargetTypeErr likes.InvalidTargetTypeError
	)

	switch {
	case errors.Is(err, thread.ErrAuthenticationRequired):
		redirectToLogin(w, r)
	case errors.As(err, &accessDeniedErr):
		if accessDeniedErr.Guest() {
			redirectToLogin(w, r)

			return
		}

		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.As(err, &notAuthorErr), errors.Is(err, thread.ErrNotCommentAuthor):
		http.Error(w, "Only the author can do that", http.StatusForbidden)
	case errors.As(err, &postNotFoundErr):
		http.Error(w, "Post not found", http.StatusNotFound)
	case errors.As(err, &commentNotFoundErr), errors.As(err, &nodeNotFoundErr):
		http.Error(w, "Comment not found", http.StatusNotFound)
	case errors.As(err, &parentNotFoundErr):
		http.Error(w, "The comment you replied to no longer exists", http.StatusNotFound)
	case errors.Is(err, discuss.ErrEmptyContent), errors.Is(err, thread.ErrEmptyReply):
		http.Error(w, "Comment is empty", http.StatusBadRequest)
	case errors.As(err, &invalidCommentErr):
		http.Error(w, "Comment is too long", http.StatusBadRequest)
	case errors.As(err, &invalidTargetTypeErr):
		http.Error(w, "Invalid like target", http.StatusBadRequest)
	case errors.Is(err, thread.ErrMutationPending):
		http.Error(w, "Still saving the previous change", http.StatusConflict)
	default:
		slog.ErrorContext(r.Context(), msg, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
