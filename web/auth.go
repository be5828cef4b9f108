package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nasermirzaei89/agora/authentication"
	authcontext "github.com/nasermirzaei89/agora/authentication/context"
	"github.com/nasermirzaei89/agora/thread"
)

// authMiddleware resolves the session cookie into a subject on the request
// context. Stale cookies are dropped and the request continues anonymously.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionValueNotFoundError *SessionValueNotFoundError

		sessionID, err := h.getSessionValue(r, sessionIDKey)
		if err != nil && !errors.As(err, &sessionValueNotFoundError) {
			slog.ErrorContext(r.Context(), "error on getting session value", "key", sessionIDKey, "error", err)
			http.Error(w, "error on getting session value", http.StatusInternalServerError)

			return
		}

		id, _ := sessionID.(string)
		if id == "" {
			next.ServeHTTP(w, r)

			return
		}

		session, err := h.authSvc.GetSession(r.Context(), id)
		if err != nil {
			var (
				sessionNotFoundError *authentication.SessionNotFoundError
				sessionExpiredError  *authentication.SessionExpiredError
			)

			if errors.As(err, &sessionNotFoundError) || errors.As(err, &sessionExpiredError) {
				h.dropSessionAndContinue(w, r, next)

				return
			}

			slog.ErrorContext(r.Context(), "error on getting session", "sessionId", id, "error", err)
			http.Error(w, "error on getting session", http.StatusInternalServerError)

			return
		}

		r = r.WithContext(authcontext.WithSessionID(r.Context(), session.ID))

		user, err := h.authSvc.GetUser(r.Context(), session.UserID)
		if err != nil {
			var userNotFoundError *authentication.UserNotFoundError
			if errors.As(err, &userNotFoundError) {
				err = h.authSvc.Logout(r.Context(), session.ID)
				if err != nil {
					slog.ErrorContext(r.Context(), "error on logging out session", "sessionId", session.ID, "error", err)
					http.Error(w, "error on logging out session", http.StatusInternalServerError)

					return
				}

				h.dropSessionAndContinue(w, r, next)

				return
			}

			slog.ErrorContext(r.Context(), "error retrieving user", "error", err)
			http.Error(w, "error on retrieving user", http.StatusInternalServerError)

			return
		}

		r = r.WithContext(authcontext.WithSubject(r.Context(), user.ID))

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) dropSessionAndContinue(w http.ResponseWriter, r *http.Request, next http.Handler) {
	err := h.deleteSessionValue(w, r, sessionIDKey)
	if err != nil {
		slog.ErrorContext(r.Context(), "error on deleting session value", "key", sessionIDKey, "error", err)
		http.Error(w, "error on deleting session value", http.StatusInternalServerError)

		return
	}

	next.ServeHTTP(w, r)
}

func isAuthenticated(r *http.Request) bool {
	return !authcontext.IsAnonymous(r.Context())
}

func viewerFromRequest(r *http.Request) thread.Viewer {
	if !isAuthenticated(r) {
		return thread.Viewer{}
	}

	return thread.Viewer{UserID: authcontext.GetSubject(r.Context())}
}

func currentUserIDFromRequest(r *http.Request) *string {
	if !isAuthenticated(r) {
		return nil
	}

	currentUserID := authcontext.GetSubject(r.Context())

	return &currentUserID
}

// redirectToLogin sends guests to the login page. htmx requests get an
// HX-Redirect so the whole page navigates instead of swapping a fragment.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)

		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) AuthenticatedOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r) {
			redirectToLogin(w, r)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) HTMXOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isHTMX(r) {
			http.Error(w, "Direct access is forbidden", http.StatusForbidden)

			return
		}

		next.ServeHTTP(w, r)
	})
}
