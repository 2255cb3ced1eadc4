package storage

import (
	"fmt"

	"feed-gateway/internal/crypto"
)

// EncryptedStorage wraps a Storage and encrypts the cookie blob at rest.
// Everything except the blob passes through unchanged, so key rotation
// only touches the cookies column.
type EncryptedStorage struct {
	inner     Storage
	encryptor *crypto.Encryptor
}

// NewEncryptedStorage wraps inner with AES-256-GCM encryption of cookie
// blobs using the given key.
func NewEncryptedStorage(inner Storage, encryptionKey string) (*EncryptedStorage, error) {
	encryptor, err := crypto.NewEncryptor(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	return &EncryptedStorage{
		inner:     inner,
		encryptor: encryptor,
	}, nil
}

func (s *EncryptedStorage) Connect(config StorageConfig) error {
	return s.inner.Connect(config)
}

func (s *EncryptedStorage) Close() error {
	return s.inner.Close()
}

func (s *EncryptedStorage) Health() error {
	return s.inner.Health()
}

func (s *EncryptedStorage) CreateUser(cookies string) (*User, error) {
	encrypted, err := s.encryptor.Encrypt(cookies)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt cookies: %w", err)
	}

	user, err := s.inner.CreateUser(encrypted)
	if err != nil {
		return nil, err
	}

	// Hand callers the plaintext they stored.
	user.Cookies = cookies
	return user, nil
}

func (s *EncryptedStorage) GetUser(userID string) (*User, error) {
	user, err := s.inner.GetUser(userID)
	if err != nil {
		return nil, err
	}

	decrypted, err := s.encryptor.Decrypt(user.Cookies)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt cookies for user %s: %w", userID, err)
	}

	user.Cookies = decrypted
	return user, nil
}

func (s *EncryptedStorage) UpdateUserCookies(userID string, cookies string) error {
	encrypted, err := s.encryptor.Encrypt(cookies)
	if err != nil {
		return fmt.Errorf("failed to encrypt cookies: %w", err)
	}

	return s.inner.UpdateUserCookies(userID, encrypted)
}

func (s *EncryptedStorage) GetUserCount() (int, error) {
	return s.inner.GetUserCount()
}
