package handlers

import (
	"net/http"
)

// Health reports liveness of the storage and cache dependencies.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"storage": "up",
		"cache":   "up",
	}
	healthy := true

	if err := h.storage.Health(); err != nil {
		components["storage"] = "down"
		healthy = false
	}
	if err := h.cache.Health(r.Context()); err != nil {
		components["cache"] = "down"
		healthy = false
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	h.respondJSON(w, status, map[string]interface{}{
		"status":     overall,
		"components": components,
	})
}
