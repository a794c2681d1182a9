package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"autoapply-engine/internal/config"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the engine's secrets in the OS keychain.
	KeyringService = "autoapply"

	AccessToken = "hh_token"
	LLMKey      = "llm_key"
)

var envFallback = map[string]string{
	AccessToken: "AUTOAPPLY_HH_TOKEN",
	LLMKey:      "AUTOAPPLY_LLM_KEY",
}

// Known reports whether name is a secret the engine stores.
func Known(name string) bool {
	_, ok := envFallback[name]
	return ok
}

// Get reads a secret from the keychain first, then from the environment.
func Get(name string) (string, error) {
	if !Known(name) {
		return "", fmt.Errorf("unknown secret %q", name)
	}
	v, err := keyring.Get(KeyringService, name)
	if err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}
	if env := strings.TrimSpace(os.Getenv(envFallback[name])); env != "" {
		return env, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("keyring get %s: %w", name, err)
	}
	return "", fmt.Errorf("%s not found (set it in keychain or via %s)", name, envFallback[name])
}

func Set(name, value string) error {
	if !Known(name) {
		return fmt.Errorf("unknown secret %q", name)
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, name, value)
}

func Delete(name string) error {
	if !Known(name) {
		return fmt.Errorf("unknown secret %q", name)
	}
	err := keyring.Delete(KeyringService, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Tokens loads every credential; missing ones are left empty so the caller's
// snapshot validation can name them.
func Tokens() config.Tokens {
	tok, _ := Get(AccessToken)
	key, _ := Get(LLMKey)
	return config.Tokens{AccessToken: tok, LLMKey: key}
}
