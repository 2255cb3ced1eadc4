package handlers

import (
	"net/http"

	"feed-gateway/internal/auth"
)

// Me returns the authenticated user's id and upstream account name.
// Profile data is fetched live, never cached.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	profile, err := h.pipeline.FetchProfile(r.Context(), user)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"id":   user.ID,
		"name": profile.Name,
	})
}
