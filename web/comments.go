package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/thread"
)

// loadThread fetches the comments of a post and wraps them in a controller
// acting for the requesting viewer.
func (h *Handler) loadThread(r *http.Request, postID string) (*thread.Controller, error) {
	viewer := viewerFromRequest(r)
	backend := newThreadBackend(h.discussSvc, h.likesSvc, viewer)

	comments, err := backend.ListComments(r.Context(), postID)
	if err != nil {
		return nil, err
	}

	view := thread.NewView(postID, discuss.BuildTree(comments, h.treeOpts...))

	return thread.NewController(view, backend, viewer, h.treeOpts...), nil
}

func (h *Handler) renderContext(r *http.Request, postID string) thread.RenderContext {
	return thread.RenderContext{
		PostID:    postID,
		Viewer:    viewerFromRequest(r),
		CSRFField: csrf.TemplateField(r),
	}
}

func (h *Handler) renderThread(w http.ResponseWriter, r *http.Request, controller *thread.Controller) {
	view := controller.View()

	err := h.thread.RenderThread(w, view, h.renderContext(r, view.PostID))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render thread", "postId", view.PostID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) renderFragment(
	w http.ResponseWriter,
	r *http.Request,
	controller *thread.Controller,
	fragment string,
	commentID string,
) {
	view := controller.View()

	node, ok := view.Node(commentID)
	if !ok {
		http.Error(w, "Comment not found", http.StatusNotFound)

		return
	}

	err := h.thread.RenderNode(w, fragment, node, h.renderContext(r, view.PostID))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render comment fragment", "fragment", fragment, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// loadCommentThread loads the thread of the post in the path and makes sure
// the comment in the path belongs to it.
func (h *Handler) loadCommentThread(w http.ResponseWriter, r *http.Request) (*thread.Controller, string, bool) {
	postID := r.PathValue("postId")
	commentID := r.PathValue("commentId")

	controller, err := h.loadThread(r, postID)
	if err != nil {
		h.handleServiceError(w, r, "failed to load comments", err)

		return nil, "", false
	}

	if _, ok := controller.View().Node(commentID); !ok {
		http.Error(w, "Comment not found", http.StatusNotFound)

		return nil, "", false
	}

	return controller, commentID, true
}

func queryBool(r *http.Request, key string, fallback bool) bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}

	return value
}

// HandlePostComment creates a top-level comment, or a reply when the form
// carries a parent_id.
func (h *Handler) HandlePostComment() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		_, err = h.contentsSvc.GetPost(r.Context(), postID)
		if err != nil {
			h.handleServiceError(w, r, "failed to get post", err)

			return
		}

		controller, err := h.loadThread(r, postID)
		if err != nil {
			h.handleServiceError(w, r, "failed to load comments", err)

			return
		}

		content := r.FormValue("comment")
		parentID := strings.TrimSpace(r.FormValue("parent_id"))

		if parentID == "" {
			_, err = h.discussSvc.CreateComment(r.Context(), discuss.CreateCommentRequest{
				PostID:   postID,
				AuthorID: viewerFromRequest(r).UserID,
				Content:  content,
				ParentID: "",
			})
		} else {
			err = controller.SubmitReply(r.Context(), parentID, content)
		}

		if err != nil && parentID != "" && isHTMX(r) && isWriteFailure(err) {
			h.renderFailedReply(w, r, controller, parentID, content)

			return
		}

		if err != nil {
			h.handleServiceError(w, r, "failed to create comment", err)

			return
		}

		if !isHTMX(r) {
			http.Redirect(w, r, "/p/"+postID+"#thread", http.StatusSeeOther)

			return
		}

		err = controller.Refresh(r.Context())
		if err != nil {
			h.handleServiceError(w, r, "failed to reload comments", err)

			return
		}

		h.renderThread(w, r, controller)
	})

	return h.AuthenticatedOnly(hf)
}

// renderFailedReply puts the reply form back in place of the thread swap,
// keeping what the viewer typed.
func (h *Handler) renderFailedReply(
	w http.ResponseWriter,
	r *http.Request,
	controller *thread.Controller,
	parentID string,
	content string,
) {
	err := controller.SetDraft(parentID, content)
	if err == nil {
		err = controller.ToggleReplyForm(parentID)
	}

	if err != nil {
		h.handleServiceError(w, r, "failed to restore reply form", err)

		return
	}

	w.Header().Set("HX-Retarget", "#reply-"+parentID)
	w.Header().Set("HX-Reswap", "innerHTML")

	h.renderFragment(w, r, controller, thread.FragmentReplyForm, parentID)
}

// HandleReplyForm renders the reply form of a comment, or nothing when
// open=false.
func (h *Handler) HandleReplyForm() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controller, commentID, ok := h.loadCommentThread(w, r)
		if !ok {
			return
		}

		if !queryBool(r, "open", true) {
			w.WriteHeader(http.StatusOK)

			return
		}

		err := controller.ToggleReplyForm(commentID)
		if err != nil {
			h.handleServiceError(w, r, "failed to open reply form", err)

			return
		}

		h.renderFragment(w, r, controller, thread.FragmentReplyForm, commentID)
	})

	return h.HTMXOnly(h.AuthenticatedOnly(hf))
}

// HandleCommentBody renders a comment body, expanded when expanded=true.
func (h *Handler) HandleCommentBody() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controller, commentID, ok := h.loadCommentThread(w, r)
		if !ok {
			return
		}

		if queryBool(r, "expanded", false) {
			err := controller.ToggleExpanded(commentID)
			if err != nil {
				h.handleServiceError(w, r, "failed to expand comment", err)

				return
			}
		}

		h.renderFragment(w, r, controller, thread.FragmentBody, commentID)
	})

	return h.HTMXOnly(hf)
}

// HandleCommentOptions renders the options menu of a comment, open when
// open=true. An open menu asks for open=false when the viewer clicks outside
// of it.
func (h *Handler) HandleCommentOptions() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controller, commentID, ok := h.loadCommentThread(w, r)
		if !ok {
			return
		}

		if queryBool(r, "open", false) {
			err := controller.ToggleOptions(commentID)
			if err != nil {
				h.handleServiceError(w, r, "failed to open comment options", err)

				return
			}
		} else {
			controller.CloseMenus()
		}

		h.renderFragment(w, r, controller, thread.FragmentOptions, commentID)
	})

	return h.HTMXOnly(h.AuthenticatedOnly(hf))
}

// HandleDeleteComment deletes a comment of the current user with all of its
// replies.
func (h *Handler) HandleDeleteComment() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		controller, commentID, ok := h.loadCommentThread(w, r)
		if !ok {
			return
		}

		err := controller.DeleteComment(r.Context(), commentID)
		if err != nil {
			h.handleServiceError(w, r, "failed to delete comment", err)

			return
		}

		if !isHTMX(r) {
			http.Redirect(w, r, "/p/"+controller.View().PostID+"#thread", http.StatusSeeOther)

			return
		}

		h.renderThread(w, r, controller)
	})

	return h.AuthenticatedOnly(hf)
}
