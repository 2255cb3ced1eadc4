package handlers

import (
	"io"
	"net/http"

	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/common/logging"
	"feed-gateway/internal/common/utils"
)

// SetCookies accepts a Netscape format cookie blob as the raw request
// body, probes the upstream with it, and stores the normalized blob
// under a fresh opaque user id. The submitted bytes are never persisted
// as-is; what the probe saw is what gets stored.
func (h *Handlers) SetCookies(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.respondError(w, r, errors.InternalError("failed to read request body", err))
		return
	}

	blob := string(body)
	if blob == "" {
		h.respondError(w, r, errors.ValidationError("No cookie data provided in request body."))
		return
	}

	accepted, normalized := h.pipeline.ValidateCredential(r.Context(), blob)
	if !accepted {
		h.respondError(w, r, errors.InvalidCredentialError("Invalid or expired cookies"))
		return
	}

	user, err := h.storage.CreateUser(normalized)
	if err != nil {
		h.respondError(w, r, errors.InternalError("failed to store cookies", err))
		return
	}

	h.logger.Info("Stored cookies for new user", logging.Field{Key: "user_id", Value: user.ID})

	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":    "success",
		"user_id":   user.ID,
		"timestamp": utils.UTCTimestamp(),
		"message":   "Cookies validated and stored successfully",
	})
}
