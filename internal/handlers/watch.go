package handlers

import (
	"net/http"

	"feed-gateway/internal/auth"
	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/feed"
)

// Watch serves metadata for a single video, identified by the v query
// parameter.
func (h *Handlers) Watch(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	videoID := r.URL.Query().Get("v")
	if videoID == "" {
		h.respondError(w, r, errors.ValidationError("Video id is required"))
		return
	}

	payload, err := h.pipeline.Fetch(r.Context(), user, feed.VideoSelector{VideoID: videoID})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondRaw(w, payload)
}
