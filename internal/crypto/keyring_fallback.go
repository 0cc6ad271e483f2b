//go:build !darwin

package crypto

import (
	"errors"
	"fmt"
)

type fallbackKeyring struct{}

func newPlatformKeyring() Keyring {
	return &fallbackKeyring{}
}

// GetKey retrieves the encryption key from the WATTSUN_DB_KEY environment variable
func (k *fallbackKeyring) GetKey() (string, error) {
	key, ok := keyFromEnv()
	if !ok {
		return "", fmt.Errorf("%s environment variable not set", EnvKey)
	}
	return key, nil
}

// SetKey returns an error suggesting to set the environment variable
func (k *fallbackKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	return fmt.Errorf("keyring not available on this platform: please export %s before running wattsun", EnvKey)
}

// DeleteKey returns an error suggesting to unset the environment variable
func (k *fallbackKeyring) DeleteKey() error {
	return fmt.Errorf("keyring not available on this platform: please unset %s manually", EnvKey)
}

// IsAvailable checks if the WATTSUN_DB_KEY environment variable is set
func (k *fallbackKeyring) IsAvailable() bool {
	_, ok := keyFromEnv()
	return ok
}
