// Package utils provides small helpers shared across the feed gateway:
// opaque identifier generation and timestamp formatting.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// UserIDLength is the hex length of generated user identifiers.
// 24 hex characters (12 random bytes), matching the width callers expect
// from document-store object ids.
const UserIDLength = 24

// GenerateRandomID generates a cryptographically secure random hex ID.
//
// The resulting string contains length hex characters (0-9, a-f). For odd
// lengths the result is 1 character shorter because each random byte
// yields 2 hex characters.
func GenerateRandomID(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateUserID generates an opaque identifier for a new user record.
func GenerateUserID() (string, error) {
	id, err := GenerateRandomID(UserIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate user id: %w", err)
	}
	return id, nil
}
