package storage

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned when a lookup by id matches no user record.
var ErrUserNotFound = errors.New("user not found")

// User is a credential record: one opaque session-cookie blob per user id.
// Records are created on first cookie submission and updated in place when
// the upstream platform rotates the session; they are never deleted here.
type User struct {
	ID        string    `json:"id"`
	Cookies   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage is the credential store contract.
type Storage interface {
	// Connection management
	Connect(config StorageConfig) error
	Close() error
	Health() error

	// CreateUser persists a new user record holding the given cookie blob
	// and returns it with a freshly generated opaque id.
	CreateUser(cookies string) (*User, error)

	// GetUser retrieves a user record by opaque id. Returns ErrUserNotFound
	// (possibly wrapped) when no record matches.
	GetUser(userID string) (*User, error)

	// UpdateUserCookies overwrites the stored cookie blob for a user.
	// The blob is replaced wholesale, never merged.
	UpdateUserCookies(userID string, cookies string) error

	// GetUserCount returns the number of stored user records.
	GetUserCount() (int, error)
}

// StorageConfig describes a backend-specific configuration.
type StorageConfig interface {
	Validate() error
	GetType() string
	GetConnectionString() string
}

// StorageFactory creates a Storage from its configuration.
type StorageFactory interface {
	Create(config StorageConfig) (Storage, error)
	GetType() string
}
