package crypto

import "os"

// Keyring provides secure key storage abstraction
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	ServiceName = "wattsun"
	KeyName     = "db-encryption-key"

	// EnvKey overrides the stored key on every platform
	EnvKey = "WATTSUN_DB_KEY"
)

// NewKeyring returns the best available keyring implementation
func NewKeyring() Keyring {
	return newPlatformKeyring()
}

func keyFromEnv() (string, bool) {
	key := os.Getenv(EnvKey)
	return key, key != ""
}
