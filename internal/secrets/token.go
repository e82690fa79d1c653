package secrets

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"outreach-sync/internal/config"

	"github.com/zalando/go-keyring"
)

const (
	// "Service" groups the app's secrets in the OS keychain.
	KeyringService = "outreach-sync"
)

var ErrNoToken = fmt.Errorf("%w: CRM token not found (set HUBSPOT_TOKEN or store it in the keychain)", config.ErrNotConfigured)

// CRMToken resolves the bearer token: config/env first, keychain second.
func CRMToken(cfg config.Config) (string, error) {
	if tok := strings.TrimSpace(cfg.CRM.Token); tok != "" {
		return tok, nil
	}
	account := strings.TrimSpace(cfg.CRM.KeyringAccount)
	if account == "" {
		return "", ErrNoToken
	}
	tok, err := keyring.Get(KeyringService, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", err
	}
	if strings.TrimSpace(tok) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(tok), nil
}

func SetCRMToken(account, token string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, account, token)
}

// ImportToken copies a token given through config/env into the keychain, so
// later starts work without HUBSPOT_TOKEN. It reports whether a write happened.
func ImportToken(cfg config.Config) (bool, error) {
	tok := strings.TrimSpace(cfg.CRM.Token)
	account := strings.TrimSpace(cfg.CRM.KeyringAccount)
	if tok == "" || account == "" {
		return false, nil
	}
	if cur, err := keyring.Get(KeyringService, account); err == nil && cur == tok {
		return false, nil
	}
	if err := SetCRMToken(account, tok); err != nil {
		return false, fmt.Errorf("keychain import: %w", err)
	}
	log.Printf("[secrets] stored CRM token in keychain account=%s", account)
	return true, nil
}
