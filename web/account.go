package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/agora/authentication"
	authcontext "github.com/nasermirzaei89/agora/authentication/context"
)

func (h *Handler) HandleRegisterPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderTemplate(w, r, "register-page.gohtml", map[string]any{"SiteTitle": "Register"})
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleRegister() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		username := r.FormValue("username")

		err = h.authSvc.Register(r.Context(), username, r.FormValue("password"))
		if err != nil {
			var (
				userAlreadyExistsErr  *authentication.UserAlreadyExistsError
				invalidCredentialsErr *authentication.InvalidCredentialsError
			)

			switch {
			case errors.As(err, &userAlreadyExistsErr):
				w.WriteHeader(http.StatusConflict)
				h.renderTemplate(w, r, "register-page.gohtml", map[string]any{
					"SiteTitle": "Register",
					"Error":     "That username is taken.",
					"Username":  username,
				})
			case errors.As(err, &invalidCredentialsErr):
				w.WriteHeader(http.StatusBadRequest)
				h.renderTemplate(w, r, "register-page.gohtml", map[string]any{
					"SiteTitle": "Register",
					"Error":     "Usernames are 3 to 32 letters or digits and passwords at least 8 characters.",
					"Username":  username,
				})
			default:
				slog.ErrorContext(r.Context(), "failed to register user", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}

			return
		}

		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLoginPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderTemplate(w, r, "login-page.gohtml", map[string]any{
			"SiteTitle": "Login",
			"ReturnTo":  sanitizeReturnToPath(r.URL.Query().Get("return_to")),
		})
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogin() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		username := r.FormValue("username")
		returnTo := sanitizeReturnToPath(r.FormValue("return_to"))

		session, err := h.authSvc.Login(r.Context(), username, r.FormValue("password"))
		if err != nil {
			if errors.Is(err, authentication.ErrInvalidCredentials) {
				w.WriteHeader(http.StatusUnauthorized)
				h.renderTemplate(w, r, "login-page.gohtml", map[string]any{
					"SiteTitle": "Login",
					"Error":     "Invalid username or password.",
					"Username":  username,
					"ReturnTo":  returnTo,
				})

				return
			}

			slog.ErrorContext(r.Context(), "failed to login user", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		err = h.setSessionValue(w, r, sessionIDKey, session.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to set session ID", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, returnTo, http.StatusSeeOther)
	})

	return h.GuestOnly(hf)
}

func (h *Handler) HandleLogoutPage() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderTemplate(w, r, "logout-page.gohtml", map[string]any{"SiteTitle": "Logout"})
	})

	return h.AuthenticatedOnly(hf)
}

func (h *Handler) HandleLogout() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := authcontext.SessionIDFromContext(r.Context())
		if ok {
			err := h.authSvc.Logout(r.Context(), sessionID)
			if err != nil {
				slog.ErrorContext(r.Context(), "error on logout", "sessionId", sessionID, "error", err)
				http.Error(w, "error on logout", http.StatusInternalServerError)

				return
			}
		}

		err := h.deleteSessionValue(w, r, sessionIDKey)
		if err != nil {
			slog.ErrorContext(r.Context(), "error on deleting session value", "key", sessionIDKey, "error", err)
			http.Error(w, "error on deleting session value", http.StatusInternalServerError)

			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	return h.AuthenticatedOnly(hf)
}
