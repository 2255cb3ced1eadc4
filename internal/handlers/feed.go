package handlers

import (
	"net/http"
	"strconv"

	"feed-gateway/internal/auth"
	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/feed"
)

// Feed serves one page of the authenticated user's personalized feed.
// The page query parameter defaults to 1.
func (h *Handlers) Feed(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(w, r, errors.ValidationError("Page number must be an integer"))
			return
		}
		page = parsed
	}

	payload, err := h.pipeline.Fetch(r.Context(), user, feed.PageSelector{Page: page})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondRaw(w, payload)
}
