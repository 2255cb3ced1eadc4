// Package auth resolves the opaque Login header to a stored user.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/common/logging"
	"feed-gateway/internal/storage"
)

// IdentifierHeader carries the opaque user id on authenticated requests.
const IdentifierHeader = "Login"

type contextKey struct{}

// Gate authenticates requests against the credential store.
type Gate struct {
	storage storage.Storage
	logger  logging.Logger
}

// NewGate creates a Gate backed by the given store.
func NewGate(store storage.Storage, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Gate{storage: store, logger: logger}
}

// Resolve maps an identifier to its user record. Malformed and unknown
// ids produce the same error so callers cannot probe for valid ids.
func (g *Gate) Resolve(identifier string) (*storage.User, error) {
	if identifier == "" {
		return nil, errors.MissingIdentifierError()
	}

	user, err := g.storage.GetUser(identifier)
	if err != nil {
		return nil, errors.UnknownIdentifierError()
	}

	return user, nil
}

// RequireUser wraps a handler, rejecting requests whose Login header
// does not resolve to a stored user. The resolved user is placed on the
// request context for UserFrom.
func (g *Gate) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := g.Resolve(r.Header.Get(IdentifierHeader))
		if err != nil {
			g.logger.Debug("Rejected unauthenticated request",
				logging.Field{Key: "path", Value: r.URL.Path},
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)

			detail := "authentication failed"
			if appErr, ok := err.(*errors.AppError); ok {
				detail = appErr.Message
			}
			json.NewEncoder(w).Encode(map[string]string{"detail": detail})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, user)))
	}
}

// UserFrom returns the authenticated user placed on the context by
// RequireUser, or nil.
func UserFrom(ctx context.Context) *storage.User {
	user, _ := ctx.Value(contextKey{}).(*storage.User)
	return user
}
