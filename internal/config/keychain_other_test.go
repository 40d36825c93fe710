//go:build !darwin

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKeychainFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	kc := NewKeychain()

	if _, ok, err := kc.Get("token"); err != nil || ok {
		t.Fatalf("Get on empty keychain = %v, %v", ok, err)
	}
	if err := kc.Set("token", "T"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := kc.Get("token"); err != nil || !ok || v != "T" {
		t.Errorf("Get = %q, %v, %v", v, ok, err)
	}

	info, err := os.Stat(filepath.Join(dir, "crawldash", "secrets.json"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("secrets file mode = %o, want 600", perm)
	}

	if err := kc.Delete("token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := kc.Delete("token"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, ok, _ := kc.Get("token"); ok {
		t.Error("token still present after Delete")
	}
}
