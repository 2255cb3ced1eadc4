package handlers

import (
	"encoding/json"
	"net/http"

	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/common/logging"
)

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

// respondRaw writes pre-encoded JSON, typically straight from cache.
func (h *Handlers) respondRaw(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		h.logger.Error("Failed to write response", err)
	}
}

// respondError writes the error as {"detail": ...} with its mapped
// status. Internal causes stay in the logs, not the response body.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	detail := "Internal server error"
	if appErr, ok := err.(*errors.AppError); ok && status < http.StatusInternalServerError {
		detail = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", err,
			logging.Field{Key: "path", Value: r.URL.Path},
			logging.Field{Key: "method", Value: r.Method},
		)
	} else {
		h.logger.Debug("Request rejected",
			logging.Field{Key: "path", Value: r.URL.Path},
			logging.Field{Key: "status", Value: status},
			logging.Err(err),
		)
	}

	h.respondJSON(w, status, map[string]string{"detail": detail})
}
