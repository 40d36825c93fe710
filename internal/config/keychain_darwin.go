//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os/exec"
)

// security exits with 44 when no matching item exists.
const secItemNotFound = 44

func security(args ...string) ([]byte, error) {
	out, err := exec.Command("security", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == secItemNotFound {
			return nil, errSecretNotFound
		}
		return nil, fmt.Errorf("security %s: %w", args[0], err)
	}
	return out, nil
}

func keychainGet(service, account string) ([]byte, error) {
	return security("find-generic-password", "-s", service, "-a", account, "-w")
}

func keychainSet(service, account, value string) error {
	_, err := security("add-generic-password", "-U", "-s", service, "-a", account, "-w", value)
	return err
}

func keychainDelete(service, account string) error {
	_, err := security("delete-generic-password", "-s", service, "-a", account)
	return err
}
