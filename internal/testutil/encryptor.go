package testutil

import (
	"pm-go/internal/encryption"
	"pm-go/internal/pm"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() pm.Encryptor {
	return encryption.NewTestEncryptor()
}
