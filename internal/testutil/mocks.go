// Package testutil holds shared test doubles for the credential store
// and the upstream client.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"feed-gateway/internal/storage"
	"feed-gateway/internal/upstream"
)

// MockStorage is a map-backed storage.Storage with call counters.
type MockStorage struct {
	mu     sync.Mutex
	users  map[string]*storage.User
	nextID int

	GetUserCalls    int32
	UpdateCalls     int32
	CreateUserError error
	GetUserError    error
	UpdateError     error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{users: make(map[string]*storage.User)}
}

func (m *MockStorage) Connect(config storage.StorageConfig) error { return nil }
func (m *MockStorage) Close() error                               { return nil }
func (m *MockStorage) Health() error                              { return nil }

func (m *MockStorage) CreateUser(cookies string) (*storage.User, error) {
	if m.CreateUserError != nil {
		return nil, m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	user := &storage.User{
		ID:      fmt.Sprintf("user-%d", m.nextID),
		Cookies: cookies,
	}
	m.users[user.ID] = user

	copied := *user
	return &copied, nil
}

func (m *MockStorage) GetUser(userID string) (*storage.User, error) {
	atomic.AddInt32(&m.GetUserCalls, 1)
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockStorage) UpdateUserCookies(userID string, cookies string) error {
	atomic.AddInt32(&m.UpdateCalls, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.Cookies = cookies
	return nil
}

func (m *MockStorage) GetUserCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// StoredCookies returns the blob currently persisted for a user.
func (m *MockStorage) StoredCookies(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.users[userID]; ok {
		return user.Cookies
	}
	return ""
}

// MockUpstream is an upstream.Client whose behavior is set per test via
// function fields. Call counts are tracked atomically.
type MockUpstream struct {
	FeedFunc    func(ctx context.Context, credential string, r upstream.Range) (*upstream.Feed, string, error)
	ItemFunc    func(ctx context.Context, credential string, videoID string) (*upstream.Video, string, error)
	ProfileFunc func(ctx context.Context, credential string) (*upstream.Profile, string, error)

	FeedCalls    int32
	ItemCalls    int32
	ProfileCalls int32
}

func (m *MockUpstream) FetchFeed(ctx context.Context, credential string, r upstream.Range) (*upstream.Feed, string, error) {
	atomic.AddInt32(&m.FeedCalls, 1)
	if m.FeedFunc == nil {
		return &upstream.Feed{}, credential, nil
	}
	return m.FeedFunc(ctx, credential, r)
}

func (m *MockUpstream) FetchItem(ctx context.Context, credential string, videoID string) (*upstream.Video, string, error) {
	atomic.AddInt32(&m.ItemCalls, 1)
	if m.ItemFunc == nil {
		return &upstream.Video{ID: videoID}, credential, nil
	}
	return m.ItemFunc(ctx, credential, videoID)
}

func (m *MockUpstream) FetchProfile(ctx context.Context, credential string) (*upstream.Profile, string, error) {
	atomic.AddInt32(&m.ProfileCalls, 1)
	if m.ProfileFunc == nil {
		return &upstream.Profile{Name: "Mock User"}, credential, nil
	}
	return m.ProfileFunc(ctx, credential)
}
