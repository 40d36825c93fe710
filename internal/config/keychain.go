package config

import (
	"errors"
	"strings"
)

// KeychainService is the service name secrets are filed under.
const KeychainService = "crawldash"

var errSecretNotFound = errors.New("secret not found")

// Keychain is a key/value view of the platform secret store: the macOS
// Keychain via the security CLI, or a 0600 secrets.json file elsewhere.
type Keychain struct {
	Service string
}

// NewKeychain returns a Keychain for the crawldash service.
func NewKeychain() *Keychain {
	return &Keychain{Service: KeychainService}
}

func (k *Keychain) Get(key string) (string, bool, error) {
	out, err := keychainGet(k.Service, key)
	if errors.Is(err, errSecretNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(out)), true, nil
}

func (k *Keychain) Set(key, value string) error {
	return keychainSet(k.Service, key, value)
}

// Delete removes key. Deleting a missing key is not an error.
func (k *Keychain) Delete(key string) error {
	err := keychainDelete(k.Service, key)
	if errors.Is(err, errSecretNotFound) {
		return nil
	}
	return err
}
