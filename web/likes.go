package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/nasermirzaei89/agora/authorization"
	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/likes"
	"github.com/nasermirzaei89/agora/thread"
)

// likeFormValue reads the optional liked field. Without it the like is toggled.
func likeFormValue(r *http.Request) (*bool, error) {
	raw := r.FormValue("liked")
	if raw == "" {
		return nil, nil //nolint:nilnil
	}

	liked, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &liked, nil
}

func (h *Handler) HandleLike() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		liked, err := likeFormValue(r)
		if err != nil {
			http.Error(w, "Invalid liked value", http.StatusBadRequest)

			return
		}

		targetType := likes.TargetType(r.PathValue("targetType"))
		targetID := r.PathValue("targetId")

		switch targetType {
		case likes.TargetTypeComment:
			h.likeComment(w, r, targetID, liked)
		case likes.TargetTypePost:
			h.likePost(w, r, targetID, liked)
		default:
			h.handleServiceError(w, r, "invalid like target", likes.InvalidTargetTypeError{TargetType: targetType})
		}
	})

	return h.AuthenticatedOnly(hf)
}

// likeComment applies the like through the thread controller, so a failed
// write is rolled back and answered with a retry control.
func (h *Handler) likeComment(w http.ResponseWriter, r *http.Request, commentID string, liked *bool) {
	comment, err := h.discussSvc.GetComment(r.Context(), commentID)
	if err != nil {
		h.handleServiceError(w, r, "failed to get comment", err)

		return
	}

	controller, err := h.loadThread(r, comment.PostID)
	if err != nil {
		h.handleServiceError(w, r, "failed to load comments", err)

		return
	}

	node, ok := controller.View().Node(commentID)
	if !ok {
		http.Error(w, "Comment not found", http.StatusNotFound)

		return
	}

	switch {
	case liked != nil && r.FormValue("retry") == "true":
		err = retryCommentLike(r.Context(), controller, commentID, *liked)
	case liked == nil || node.Comment.HasLiked != *liked:
		err = controller.ToggleLike(r.Context(), commentID)
	}

	if err != nil && (!isHTMX(r) || !isWriteFailure(err)) {
		h.handleServiceError(w, r, "failed to like comment", err)

		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, returnToOr(r, "/p/"+comment.PostID), http.StatusSeeOther)

		return
	}

	h.renderFragment(w, r, controller, thread.FragmentLike, commentID)
}

// retryCommentLike repeats the like change the client reports as failed. A
// comment that already has the asked state needs no retry.
func retryCommentLike(ctx context.Context, controller *thread.Controller, commentID string, liked bool) error {
	err := controller.RestoreFailedLike(commentID, liked)
	if err == nil {
		err = controller.RetryLike(ctx, commentID)
	}

	if errors.Is(err, thread.ErrNothingToRetry) {
		return nil
	}

	return err //nolint:wrapcheck
}

// isWriteFailure tells storage failures, which the user may retry, from
// refusals that retrying cannot fix.
func isWriteFailure(err error) bool {
	var (
		accessDeniedErr      *authorization.AccessDeniedError
		invalidTargetTypeErr likes.InvalidTargetTypeError
		invalidCommentErr    *discuss.InvalidCommentError
		parentNotFoundErr    *discuss.ParentNotFoundError
		nodeNotFoundErr      *thread.CommentNotFoundError
	)

	switch {
	case errors.Is(err, thread.ErrAuthenticationRequired),
		errors.Is(err, thread.ErrMutationPending),
		errors.Is(err, thread.ErrEmptyReply),
		errors.Is(err, discuss.ErrEmptyContent),
		errors.As(err, &accessDeniedErr),
		errors.As(err, &invalidTargetTypeErr),
		errors.As(err, &invalidCommentErr),
		errors.As(err, &parentNotFoundErr),
		errors.As(err, &nodeNotFoundErr):
		return false
	default:
		return true
	}
}

func returnToOr(r *http.Request, fallback string) string {
	returnTo := r.FormValue("return_to")
	if returnTo == "" {
		return fallback
	}

	return sanitizeReturnToPath(returnTo)
}

func (h *Handler) likePost(w http.ResponseWriter, r *http.Request, postID string, liked *bool) {
	_, err := h.contentsSvc.GetPost(r.Context(), postID)
	if err != nil {
		h.handleServiceError(w, r, "failed to get post", err)

		return
	}

	userID := viewerFromRequest(r).UserID

	var targetLikes *likes.TargetLikes

	if liked != nil {
		targetLikes, err = h.likesSvc.SetLike(r.Context(), likes.SetLikeRequest{
			TargetType: likes.TargetTypePost,
			TargetID:   postID,
			UserID:     userID,
			Liked:      *liked,
		})
	} else {
		targetLikes, err = h.likesSvc.ToggleLike(r.Context(), likes.ToggleLikeRequest{
			TargetType: likes.TargetTypePost,
			TargetID:   postID,
			UserID:     userID,
		})
	}

	if err != nil {
		h.handleServiceError(w, r, "failed to like post", err)

		return
	}

	returnTo := returnToOr(r, "/p/"+postID)

	if !isHTMX(r) {
		http.Redirect(w, r, returnTo, http.StatusSeeOther)

		return
	}

	err = h.tpl.ExecuteTemplate(w, "post-like", &LikeWidgetData{
		TargetLikes:     targetLikes,
		ReturnTo:        returnTo,
		IsAuthenticated: true,
		CSRFField:       csrf.TemplateField(r),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render post like", "postId", postID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
