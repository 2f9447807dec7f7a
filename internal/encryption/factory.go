package encryption

import (
	"fmt"

	"pm-go/internal/config"
	"pm-go/internal/pm"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Type "none" yields a nil Encryptor: snapshots are uploaded unencrypted.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (pm.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
