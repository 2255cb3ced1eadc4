package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-gateway/internal/auth"
	"feed-gateway/internal/cache"
	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/config"
	"feed-gateway/internal/feed"
	"feed-gateway/internal/testutil"
	"feed-gateway/internal/upstream"
)

type fixture struct {
	router   *mux.Router
	storage  *testutil.MockStorage
	upstream *testutil.MockUpstream
	cache    *cache.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := cache.New(cache.Config{Address: mr.Addr(), TTL: 600 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mockStorage := testutil.NewMockStorage()
	mockUpstream := &testutil.MockUpstream{}

	pipeline := feed.NewPipeline(mockStorage, store, mockUpstream, nil)
	gate := auth.NewGate(mockStorage, nil)
	handlers := New(mockStorage, pipeline, store, &config.Config{}, nil)

	router := mux.NewRouter()
	router.HandleFunc("/set-cookies", handlers.SetCookies).Methods(http.MethodPost)
	router.HandleFunc("/feed", gate.RequireUser(handlers.Feed)).Methods(http.MethodGet)
	router.HandleFunc("/watch", gate.RequireUser(handlers.Watch)).Methods(http.MethodGet)
	router.HandleFunc("/me", gate.RequireUser(handlers.Me)).Methods(http.MethodGet)
	router.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	return &fixture{
		router:   router,
		storage:  mockStorage,
		upstream: mockUpstream,
		cache:    store,
	}
}

func (f *fixture) do(t *testing.T, method, target, body, login string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	if login != "" {
		req.Header.Set(auth.IdentifierHeader, login)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSetCookies(t *testing.T) {
	f := newFixture(t)

	f.upstream.FeedFunc = func(ctx context.Context, credential string, r upstream.Range) (*upstream.Feed, string, error) {
		assert.Equal(t, "submitted-blob", credential)
		return &upstream.Feed{Videos: []upstream.Video{{ID: "vid-1", Title: "First"}}}, "normalized-blob", nil
	}

	rec := f.do(t, http.MethodPost, "/set-cookies", "submitted-blob", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, body["user_id"])
	assert.NotEmpty(t, body["timestamp"])

	// The normalized blob is persisted, not the submitted bytes.
	userID := body["user_id"].(string)
	assert.Equal(t, "normalized-blob", f.storage.StoredCookies(userID))
}

func TestSetCookies_EmptyBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/set-cookies", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No cookie data provided in request body.", decodeBody(t, rec)["detail"])
	assert.Equal(t, int32(0), f.upstream.FeedCalls)
}

func TestSetCookies_RejectedCredential(t *testing.T) {
	f := newFixture(t)

	f.upstream.FeedFunc = func(ctx context.Context, credential string, r upstream.Range) (*upstream.Feed, string, error) {
		return nil, "", errors.SetupError("failed to parse stored cookies", assert.AnError)
	}

	rec := f.do(t, http.MethodPost, "/set-cookies", "garbage", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired cookies", decodeBody(t, rec)["detail"])

	count, err := f.storage.GetUserCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFeed(t *testing.T) {
	f := newFixture(t)

	user, err := f.storage.CreateUser("blob")
	require.NoError(t, err)

	f.upstream.FeedFunc = func(ctx context.Context, credential string, r upstream.Range) (*upstream.Feed, string, error) {
		assert.Equal(t, upstream.Range{Start: 1, End: 12}, r)
		return &upstream.Feed{Videos: []upstream.Video{{ID: "vid-1", Title: "First"}}}, credential, nil
	}

	rec := f.do(t, http.MethodGet, "/feed", "", user.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	require.Contains(t, body, "pagination")
	require.Contains(t, body, "data")
}

func TestFeed_ExplicitPage(t *testing.T) {
	f := newFixture(t)

	user, err := f.storage.CreateUser("blob")
	require.NoError(t, err)

	f.upstream.FeedFunc = func(ctx context.Context, credential string, r upstream.Range) (*upstream.Feed, string, error) {
		assert.Equal(t, upstream.Range{Start: 25, End: 36}, r)
		return &upstream.Feed{Videos: []upstream.Video{{ID: "vid-25", Title: "Later"}}}, credential, nil
	}

	rec := f.do(t, http.MethodGet, "/feed?page=3", "", user.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFeed_InvalidPage(t *testing.T) {
	f := newFixture(t)

	user, err := f.storage.CreateUser("blob")
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/feed?page=abc", "", user.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/feed?page=0", "", user.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Page number must be >= 1", decodeBody(t, rec)["detail"])

	assert.Equal(t, int32(0), f.upstream.FeedCalls)
}

func TestFeed_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/feed", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/feed", "", "unknown-user")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFeed_NoData(t *testing.T) {
	f := newFixture(t)

	user, err := f.storage.CreateUser("blob")
	require.NoError(t, err)

	f.upstream.FeedFunc = func(ctx context.Context, credential string, r upstream.Range) (*upstream.Feed, string, error) {
		return nil, "", errors.NoDataError("recommendations")
	}

	rec := f.do(t, http.MethodGet, "/feed", "", user.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "could not fetch recommendations", decodeBody(t, rec)["detail"])
}

func TestFeed_UpstreamFailure(t *testing.T) {
	f := newFixture(t)

	user, err := f.storage.CreateUser("blob")
	require.NoError(t, err)

	f.upstream.FeedFunc = func(ctx context.Context, credential string, r upstream.Range) (*upstream.Feed, string, error) {
		return nil, "", errors.UpstreamError("upstream returned status 500", nil)
	}

	rec := f.do(t, http.MethodGet, "/feed", "", user.ID)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Internal failure details stay out of the response body.
	assert.Equal(t, "Internal server error", decodeBody(t, rec)["detail"])
}

func TestWatch(t *testing.T) {
	f := newFixture(t)

	user, err := f.storage.CreateUser("blob")
	require.NoError(t, err)

	f.upstream.ItemFunc = func(ctx context.Context, credential string, videoID string) (*upstream.Video, string, error) {
		assert.Equal(t, "vid-9", videoID)
		return &upstream.Video{ID: videoID, Title: "A video"}, credential, nil
	}

	rec := f.do(t, http.MethodGet, "/watch?v=vid-9", "", user.ID)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.NotContains(t, body, "pagination")
}

func TestWatch_MissingVideoID(t *testing.T) {
	f := newFixture(t)

	user, err := f.storage.CreateUser("blob")
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/watch", "", user.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Video id is required", decodeBody(t, rec)["detail"])
}

func TestMe(t *testing.T) {
	f := newFixture(t)

	user, err := f.storage.CreateUser("blob")
	require.NoError(t, err)

	f.upstream.ProfileFunc = func(ctx context.Context, credential string) (*upstream.Profile, string, error) {
		return &upstream.Profile{Name: "Jane Doe"}, credential, nil
	}

	rec := f.do(t, http.MethodGet, "/me", "", user.ID)
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, user.ID, body["id"])
	assert.Equal(t, "Jane Doe", body["name"])
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(errors.MissingIdentifierError()))
	assert.Equal(t, http.StatusUnauthorized, statusFor(errors.UnknownIdentifierError()))
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.ValidationError("bad")))
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.InvalidCredentialError("bad")))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.NoDataError("feed")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.SetupError("boom", nil)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.UpstreamError("boom", nil)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
