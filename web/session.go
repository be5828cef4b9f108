package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionIDKey = "sessionId"

type SessionValueNotFoundError struct {
	Key string
}

func (err SessionValueNotFoundError) Error() string {
	return fmt.Sprintf("session value for key '%s' not found", err.Key)
}

// cookieSession returns the session of the request. A cookie that no longer
// decodes, e.g. after the session key changed, yields a fresh session.
func (h *Handler) cookieSession(r *http.Request) *sessions.Session {
	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		slog.DebugContext(r.Context(), "discarding undecodable session cookie", "error", err)
	}

	return session
}

func (h *Handler) getSessionValue(r *http.Request, key string) (any, error) {
	session := h.cookieSession(r)
	if session == nil {
		return nil, fmt.Errorf("no session store for %q", h.sessionName)
	}

	value, ok := session.Values[key]
	if !ok {
		return nil, &SessionValueNotFoundError{Key: key}
	}

	return value, nil
}

func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request, update func(values map[any]any)) error {
	session := h.cookieSession(r)
	if session == nil {
		return fmt.Errorf("no session store for %q", h.sessionName)
	}

	update(session.Values)

	session.Options.HttpOnly = true
	session.Options.SameSite = http.SameSiteLaxMode

	err := session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}

func (h *Handler) setSessionValue(w http.ResponseWriter, r *http.Request, key string, value any) error {
	return h.updateSession(w, r, func(values map[any]any) {
		values[key] = value
	})
}

func (h *Handler) deleteSessionValue(w http.ResponseWriter, r *http.Request, key string) error {
	return h.updateSession(w, r, func(values map[any]any) {
		delete(values, key)
	})
}
