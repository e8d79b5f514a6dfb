package storage

import (
	"golang.org/x/crypto/bcrypt"
)

// HashKey creates a bcrypt hash of an agent API key for storage.
func HashKey(key string) (string, error) {
	// Use bcrypt cost 12
	hash, err := bcrypt.GenerateFromPassword([]byte(key), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyKey checks if a key matches a bcrypt hash.
func VerifyKey(key, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}
