package web

import (
	"net/http"
)

const (
	AdminDomain        = "github.com/nasermirzaei89/agora/admin"
	ActionEnsureSchema = "ensureSchema"
)

// HandleEnsureCommentParent adds the comment parent column on databases that
// predate threaded replies. It is safe to call repeatedly.
func (h *Handler) HandleEnsureCommentParent() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h.authzClient.CheckAccess(r.Context(), AdminDomain, "schema", ActionEnsureSchema)
		if err != nil {
			h.handleServiceError(w, r, "failed to check authorization", err)

			return
		}

		err = h.ensureSchema(r.Context())
		if err != nil {
			h.handleServiceError(w, r, "failed to ensure comment parent column", err)

			return
		}

		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return h.AuthenticatedOnly(hf)
}
