// Package web serves the HTML pages, htmx fragments and the small JSON API of
// agora.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/agora/authentication"
	"github.com/nasermirzaei89/agora/authorization"
	"github.com/nasermirzaei89/agora/contents"
	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/likes"
	"github.com/nasermirzaei89/agora/markup"
	"github.com/nasermirzaei89/agora/thread"
)

var (
	//go:embed templates/*
	templatesFS embed.FS

	//go:embed static/*
	staticFS embed.FS
)

const (
	defaultSiteTitle = "Agora"
	hxRequestTrue    = "true"
)

// Services are the domain services the handler calls. Contents, Discuss and
// Likes are expected to be wrapped in their authorization middlewares.
type Services struct {
	Auth     *authentication.Service
	Authz    *authorization.Client
	Contents contents.Service
	Discuss  discuss.Service
	Likes    likes.Service
	// EnsureSchema adds the comment parent column when it is missing.
	EnsureSchema func(ctx context.Context) error
}

type Options struct {
	CookieStore        *sessions.CookieStore
	SessionName        string
	CSRFAuthKey        []byte
	CSRFTrustedOrigins []string
	// Plaintext tells the CSRF check that the site is served over plain HTTP.
	Plaintext    bool
	OrphanPolicy discuss.OrphanPolicy
}

type Handler struct {
	mux          *http.ServeMux
	handler      http.Handler
	tpl          *template.Template
	static       fs.FS
	authSvc      *authentication.Service
	authzClient  *authorization.Client
	contentsSvc  contents.Service
	discussSvc   discuss.Service
	likesSvc     likes.Service
	ensureSchema func(ctx context.Context) error
	markup       *markup.Renderer
	thread       *thread.Renderer
	treeOpts     []discuss.TreeOption
	cookieStore  *sessions.CookieStore
	sessionName  string
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(services Services, opts Options) (*Handler, error) {
	h := &Handler{
		mux:          nil,
		handler:      nil,
		tpl:          nil,
		authSvc:      services.Auth,
		authzClient:  services.Authz,
		contentsSvc:  services.Contents,
		discussSvc:   services.Discuss,
		likesSvc:     services.Likes,
		ensureSchema: services.EnsureSchema,
		markup:       markup.NewRenderer(),
		thread:       nil,
		treeOpts:     []discuss.TreeOption{discuss.WithOrphanPolicy(opts.OrphanPolicy)},
		cookieStore:  opts.CookieStore,
		sessionName:  opts.SessionName,
	}

	{
		tpl, err := template.New("").Funcs(h.funcs()).ParseFS(templatesFS, "templates/*.gohtml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse templates: %w", err)
		}

		h.tpl = tpl
	}

	{
		threadRenderer, err := thread.NewRenderer(h.markup.Render)
		if err != nil {
			return nil, fmt.Errorf("failed to create thread renderer: %w", err)
		}

		h.thread = threadRenderer
	}

	{
		static, err := fs.Sub(staticFS, "static")
		if err != nil {
			return nil, fmt.Errorf("failed to sub static fs: %w", err)
		}

		h.static = static
	}

	{
		h.mux = &http.ServeMux{}
		h.handler = h.mux

		h.registerRoutes()
	}

	{
		h.handler = h.authMiddleware(h.handler)

		{
			csrfMiddleware := csrf.Protect(
				opts.CSRFAuthKey,
				csrf.TrustedOrigins(opts.CSRFTrustedOrigins),
				csrf.Path("/"),
				csrf.Secure(!opts.Plaintext),
			)

			h.handler = csrfMiddleware(h.handler)
		}

		if opts.Plaintext {
			h.handler = plaintextMiddleware(h.handler)
		}

		h.handler = recoverMiddleware(h.handler)
	}

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("/", h.HandleIndex)

	h.mux.Handle("GET /register", h.HandleRegisterPage())
	h.mux.Handle("POST /register", h.HandleRegister())
	h.mux.Handle("GET /login", h.HandleLoginPage())
	h.mux.Handle("POST /login", h.HandleLogin())
	h.mux.Handle("GET /logout", h.HandleLogoutPage())
	h.mux.Handle("POST /logout", h.HandleLogout())

	h.mux.Handle("GET /create-post", h.HandleCreatePostPage())
	h.mux.Handle("POST /create-post", h.HandleCreatePost())
	h.mux.Handle("GET /p/{postId}", h.HandleViewPostPage())

	h.mux.Handle("POST /p/{postId}/comment", h.HandlePostComment())
	h.mux.Handle("GET /p/{postId}/comments/{commentId}/reply", h.HandleReplyForm())
	h.mux.Handle("GET /p/{postId}/comments/{commentId}/body", h.HandleCommentBody())
	h.mux.Handle("GET /p/{postId}/comments/{commentId}/options", h.HandleCommentOptions())
	h.mux.Handle("POST /p/{postId}/comments/{commentId}/delete", h.HandleDeleteComment())

	h.mux.Handle("POST /like/{targetType}/{targetId}", h.HandleLike())

	h.mux.Handle("GET /api/p/{postId}/comments", h.HandleListCommentsAPI())

	h.mux.Handle("POST /admin/schema/comment-parent", h.HandleEnsureCommentParent())
}

func (h *Handler) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": h.markup.Render,
	}
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func(ctx context.Context) {
			if err := recover(); err != nil {
				slog.ErrorContext(
					ctx,
					"recovered from panic",
					"error",
					err,
					"stack",
					string(debug.Stack()),
				)

				http.Error(w, "internal error occurred", http.StatusInternalServerError)
			}
		}(r.Context())

		next.ServeHTTP(w, r)
	})
}

func plaintextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}

		next.ServeHTTP(w, r)
	})
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == hxRequestTrue
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, extraData map[string]any) {
	var currentUser *authentication.User

	if isAuthenticated(r) {
		var err error

		currentUser, err = h.authSvc.GetCurrentUser(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to get current user", "error", err)
			http.Error(w, "Failed to get current user", http.StatusInternalServerError)

			return
		}
	}

	data := map[string]any{
		"CurrentPath":     r.URL.Path,
		"Lang":            "en",
		"Dir":             "ltr",
		"IsAuthenticated": isAuthenticated(r),
		"CurrentUser":     currentUser,
		csrf.TemplateTag:  csrf.TemplateField(r),
	}

	maps.Copy(data, extraData)

	data["SiteTitle"] = defaultSiteTitle

	if extraData["SiteTitle"] != nil {
		data["SiteTitle"] = fmt.Sprintf("%s | %s", extraData["SiteTitle"], defaultSiteTitle)
	}

	err := h.tpl.ExecuteTemplate(w, name, data)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return
	}
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		h.HandleHomePage(w, r)

		return
	}

	h.HandleStatic(w, r)
}

// HandleStatic serves static files.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.FileServer(http.FS(h.static)).ServeHTTP(w, r)
}
