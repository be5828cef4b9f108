package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/nasermirzaei89/agora/contents"
	"github.com/nasermirzaei89/agora/likes"
)

type PostItem struct {
	*contents.Post

	CommentsCount int
	Likes         *LikeWidgetData
}

// LikeWidgetData feeds the post like button.
type LikeWidgetData struct {
	*likes.TargetLikes

	ReturnTo        string
	IsAuthenticated bool
	CSRFField       template.HTML
}

func (h *Handler) HandleHomePage(w http.ResponseWriter, r *http.Request) {
	posts, err := h.contentsSvc.ListPosts(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "failed to list posts", err)

		return
	}

	items, err := h.postItems(r.Context(), posts, currentUserIDFromRequest(r), "/", csrf.TemplateField(r))
	if err != nil {
		h.handleServiceError(w, r, "failed to load post details", err)

		return
	}

	h.renderTemplate(w, r, "home-page.gohtml", map[string]any{"Posts": items})
}

func (h *Handler) postItems(
	ctx context.Context,
	posts []*contents.Post,
	viewerID *string,
	returnTo string,
	csrfField template.HTML,
) ([]*PostItem, error) {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	postLikes, err := h.likesSvc.ListTargetLikes(ctx, likes.TargetTypePost, ids, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list post likes: %w", err)
	}

	items := make([]*PostItem, 0, len(posts))

	for _, post := range posts {
		count, err := h.discussSvc.CountComments(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count comments: %w", err)
		}

		items = append(items, &PostItem{
			Post:          post,
			CommentsCount: count,
			Likes: &LikeWidgetData{
				TargetLikes:     postLikes[post.ID],
				ReturnTo:        returnTo,
				IsAuthenticated: viewerID != nil,
				CSRFField:       csrfField,
			},
		})
	}

	return items, nil
}

func (h *Handler) HandleCreatePostPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderTemplate(w, r, "create-post-page.gohtml", map[string]any{"SiteTitle": "Start a discussion"})
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleCreatePost() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		title := r.FormValue("title")
		content := r.FormValue("content")

		post, err := h.contentsSvc.CreatePost(r.Context(), contents.CreatePostRequest{
			AuthorID: viewerFromRequest(r).UserID,
			Title:    title,
			Content:  content,
		})
		if err != nil {
			var invalidPostErr *contents.InvalidPostError
			if errors.As(err, &invalidPostErr) {
				w.WriteHeader(http.StatusBadRequest)
				h.renderTemplate(w, r, "create-post-page.gohtml", map[string]any{
					"SiteTitle": "Start a discussion",
					"Error":     "A discussion needs a title and some content.",
					"Title":     title,
					"Content":   content,
				})

				return
			}

			h.handleServiceError(w, r, "failed to create post", err)

			return
		}

		http.Redirect(w, r, "/p/"+post.ID, http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleViewPostPage() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		postID := r.PathValue("postId")

		post, err := h.contentsSvc.GetPost(r.Context(), postID)
		if err != nil {
			h.handleServiceError(w, r, "failed to get post", err)

			return
		}

		returnTo := "/p/" + post.ID

		items, err := h.postItems(
			r.Context(),
			[]*contents.Post{post},
			currentUserIDFromRequest(r),
			returnTo,
			csrf.TemplateField(r),
		)
		if err != nil {
			h.handleServiceError(w, r, "failed to load post details", err)

			return
		}

		controller, err := h.loadThread(r, post.ID)
		if err != nil {
			h.handleServiceError(w, r, "failed to load comments", err)

			return
		}

		var threadHTML bytes.Buffer

		err = h.thread.RenderThread(&threadHTML, controller.View(), h.renderContext(r, post.ID))
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to render thread", "postId", post.ID, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		h.renderTemplate(w, r, "view-post-page.gohtml", map[string]any{
			"SiteTitle": post.Title,
			"Post":      items[0],
			"Thread":    template.HTML(threadHTML.String()), //nolint:gosec
		})
	})
}
