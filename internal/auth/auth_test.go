package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-gateway/internal/common/errors"
	"feed-gateway/internal/storage"
	"feed-gateway/internal/testutil"
)

func TestGate_Resolve(t *testing.T) {
	store := testutil.NewMockStorage()
	user, err := store.CreateUser("blob")
	require.NoError(t, err)

	gate := NewGate(store, nil)

	resolved, err := gate.Resolve(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, "blob", resolved.Cookies)
}

func TestGate_Resolve_MissingIdentifier(t *testing.T) {
	gate := NewGate(testutil.NewMockStorage(), nil)

	_, err := gate.Resolve("")
	assert.True(t, errors.IsType(err, errors.ErrTypeMissingIdentifier))
}

func TestGate_Resolve_UnknownIdentifier(t *testing.T) {
	gate := NewGate(testutil.NewMockStorage(), nil)

	_, err := gate.Resolve("nobody")
	assert.True(t, errors.IsType(err, errors.ErrTypeUnknownIdentifier))
}

func TestRequireUser(t *testing.T) {
	store := testutil.NewMockStorage()
	user, err := store.CreateUser("blob")
	require.NoError(t, err)

	gate := NewGate(store, nil)

	var seen *storage.User
	handler := gate.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set(IdentifierHeader, user.ID)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}

func TestRequireUser_MissingHeader(t *testing.T) {
	gate := NewGate(testutil.NewMockStorage(), nil)

	handler := gate.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "missing login header", body["detail"])
}

func TestRequireUser_UnknownUser(t *testing.T) {
	gate := NewGate(testutil.NewMockStorage(), nil)

	handler := gate.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set(IdentifierHeader, "nobody")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid login header", body["detail"])
}

func TestUserFrom_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	assert.Nil(t, UserFrom(req.Context()))
}
