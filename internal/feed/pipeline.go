// Package feed implements the cache-first fetch pipeline.
//
// A fetch runs cache lookup, credential load, upstream fetch, session
// rotation handling, envelope shaping and cache write, in that order.
// Rotation persists the new blob before anything is cached, and sweeps
// every cached entry for the user so no payload fetched with the old
// session survives.
package feed

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"feed-gateway/internal/cache"
	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/common/logging"
	"feed-gateway/internal/common/utils"
	"feed-gateway/internal/storage"
	"feed-gateway/internal/upstream"
)

// Pipeline coordinates the credential store, the cache and the
// upstream client. Concurrent misses on the same key share one
// upstream fetch.
type Pipeline struct {
	storage  storage.Storage
	cache    *cache.Store
	upstream upstream.Client
	logger   logging.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(store storage.Storage, cacheStore *cache.Store, client upstream.Client, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Pipeline{
		storage:  store,
		cache:    cacheStore,
		upstream: client,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch returns the shaped payload for the given user and selector,
// serving from cache when possible. The returned bytes are the exact
// JSON served to the client.
func (p *Pipeline) Fetch(ctx context.Context, user *storage.User, sel Selector) ([]byte, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key(sel.Subject(), user.ID, sel.Key())

	if payload, found, err := p.cache.Get(ctx, key); err != nil {
		p.logger.Warn("Cache read failed, fetching upstream",
			logging.Err(err),
			logging.Field{Key: "key", Value: key},
		)
	} else if found {
		p.logger.Debug("Cache hit", logging.Field{Key: "key", Value: key})
		return payload, nil
	}

	result, err, _ := p.group.Do(key, func() (interface{}, error) {
		return p.fetchAndCache(ctx, user.ID, sel, key)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (p *Pipeline) fetchAndCache(ctx context.Context, userID string, sel Selector, key string) ([]byte, error) {
	// Reload the credential so a rotation by a concurrent request is
	// picked up rather than overwritten.
	user, err := p.storage.GetUser(userID)
	if err != nil {
		return nil, errors.UnknownIdentifierError()
	}
	credential := user.Cookies

	data, rotated, err := sel.Fetch(ctx, p.upstream, credential)
	if err != nil {
		return nil, err
	}

	if rotated != "" && rotated != credential {
		if err := p.rotate(ctx, userID, rotated); err != nil {
			return nil, err
		}
	}

	envelope := Envelope{
		Status:     "success",
		Timestamp:  utils.FormatUTCTimestamp(p.now()),
		Pagination: sel.Pagination(),
		Data:       data,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, errors.InternalError("failed to encode response", err)
	}

	if err := p.cache.Set(ctx, key, payload); err != nil {
		p.logger.Warn("Cache write failed, serving uncached",
			logging.Err(err),
			logging.Field{Key: "key", Value: key},
		)
	}

	return payload, nil
}

// rotate persists the rotated session blob and sweeps the user's
// cached entries. The persist is mandatory; the sweep is best effort
// since swept-but-unexpired entries only cost staleness, not
// correctness of the stored credential.
func (p *Pipeline) rotate(ctx context.Context, userID, rotated string) error {
	if err := p.storage.UpdateUserCookies(userID, rotated); err != nil {
		return errors.InternalError("failed to persist rotated session", err)
	}

	p.logger.Info("Upstream session rotated", logging.Field{Key: "user_id", Value: userID})

	if err := p.cache.InvalidateUser(ctx, userID); err != nil {
		p.logger.Warn("Failed to sweep cache after session rotation",
			logging.Err(err),
			logging.Field{Key: "user_id", Value: userID},
		)
	}
	return nil
}

// ValidateCredential probes the upstream with a one-item fetch. On
// success it returns the normalized blob as the upstream saw it, which
// is what should be persisted.
func (p *Pipeline) ValidateCredential(ctx context.Context, blob string) (bool, string) {
	_, rotated, err := p.upstream.FetchFeed(ctx, blob, upstream.Range{Start: 1, End: 1})
	if err != nil {
		p.logger.Debug("Credential validation failed", logging.Err(err))
		return false, ""
	}
	if rotated == "" {
		rotated = blob
	}
	return true, rotated
}

// FetchProfile returns the signed-in account profile for a user.
// Profiles are never cached; rotation handling still applies.
func (p *Pipeline) FetchProfile(ctx context.Context, user *storage.User) (*upstream.Profile, error) {
	stored, err := p.storage.GetUser(user.ID)
	if err != nil {
		return nil, errors.UnknownIdentifierError()
	}

	profile, rotated, err := p.upstream.FetchProfile(ctx, stored.Cookies)
	if err != nil {
		return nil, err
	}

	if rotated != "" && rotated != stored.Cookies {
		if err := p.rotate(ctx, user.ID, rotated); err != nil {
			return nil, err
		}
	}

	return profile, nil
}
