package config

import (
	"fmt"

	"github.com/google/uuid"
)

// ServerTokenKey is the secret the local dashboard service token is kept
// under.
const ServerTokenKey = "server_token"

// SecretStore is the slice of Keychain that ServerToken needs.
type SecretStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// ServerToken returns the bearer token for the local dashboard service,
// generating and storing one on first use.
func ServerToken(s SecretStore) (string, error) {
	token, ok, err := s.Get(ServerTokenKey)
	if err != nil {
		return "", fmt.Errorf("reading server token: %w", err)
	}
	if ok && token != "" {
		return token, nil
	}
	token = uuid.NewString()
	if err := s.Set(ServerTokenKey, token); err != nil {
		return "", fmt.Errorf("storing server token: %w", err)
	}
	return token, nil
}
