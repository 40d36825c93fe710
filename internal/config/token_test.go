package config

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mapSecrets map[string]string

func (m mapSecrets) Get(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapSecrets) Set(key, value string) error {
	m[key] = value
	return nil
}

type brokenSecrets struct{}

func (brokenSecrets) Get(string) (string, bool, error) { return "", false, errors.New("locked") }
func (brokenSecrets) Set(string, string) error         { return errors.New("locked") }

func TestServerToken_GeneratesOnce(t *testing.T) {
	s := mapSecrets{}
	first, err := ServerToken(s)
	if err != nil {
		t.Fatalf("ServerToken: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("token %q is not a UUID: %v", first, err)
	}
	second, err := ServerToken(s)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("token changed: %q then %q", first, second)
	}
}

func TestServerToken_StoreError(t *testing.T) {
	if _, err := ServerToken(brokenSecrets{}); err == nil {
		t.Fatal("expected error from locked store")
	}
}
