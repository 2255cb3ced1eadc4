// Package handlers wires the HTTP surface to the fetch pipeline.
package handlers

import (
	"net/http"

	"feed-gateway/internal/cache"
	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/common/logging"
	"feed-gateway/internal/config"
	"feed-gateway/internal/feed"
	"feed-gateway/internal/storage"
)

type Handlers struct {
	storage  storage.Storage
	pipeline *feed.Pipeline
	cache    *cache.Store
	config   *config.Config
	logger   logging.Logger
}

func New(store storage.Storage, pipeline *feed.Pipeline, cacheStore *cache.Store, cfg *config.Config, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{
		storage:  store,
		pipeline: pipeline,
		cache:    cacheStore,
		config:   cfg,
		logger:   logger,
	}
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch errors.GetType(err) {
	case errors.ErrTypeMissingIdentifier, errors.ErrTypeUnknownIdentifier:
		return http.StatusUnauthorized
	case errors.ErrTypeValidation, errors.ErrTypeInvalidCredential:
		return http.StatusBadRequest
	case errors.ErrTypeNoData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
