package secrets

import (
	"testing"

	"outreach-sync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCRMTokenPrefersConfig(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, SetCRMToken("hubspot", "from-keychain"))

	cfg := config.Default()
	cfg.CRM.Token = " from-config "
	cfg.CRM.KeyringAccount = "hubspot"

	tok, err := CRMToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-config", tok)
}

func TestCRMTokenFallsBackToKeychain(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, SetCRMToken("hubspot", "from-keychain"))

	cfg := config.Default()
	cfg.CRM.KeyringAccount = "hubspot"

	tok, err := CRMToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", tok)

	require.NoError(t, keyring.Delete(KeyringService, "hubspot"))
	_, err = CRMToken(cfg)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestCRMTokenMissing(t *testing.T) {
	keyring.MockInit()

	_, err := CRMToken(config.Default())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.ErrorIs(t, err, config.ErrNotConfigured)

	assert.Error(t, SetCRMToken("", "x"))
	assert.Error(t, SetCRMToken("acct", " "))
}

func TestImportTokenStoresEnvToken(t *testing.T) {
	keyring.MockInit()

	cfg := config.Default()
	cfg.CRM.Token = "from-env"
	cfg.CRM.KeyringAccount = "hubspot"

	wrote, err := ImportToken(cfg)
	require.NoError(t, err)
	assert.True(t, wrote)

	stored, err := keyring.Get(KeyringService, "hubspot")
	require.NoError(t, err)
	assert.Equal(t, "from-env", stored)

	wrote, err = ImportToken(cfg)
	require.NoError(t, err)
	assert.False(t, wrote, "same token should not be rewritten")

	cfg.CRM.Token = ""
	tok, err := CRMToken(cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)
}

func TestImportTokenNoop(t *testing.T) {
	keyring.MockInit()

	cfg := config.Default()
	cfg.CRM.Token = "x"
	cfg.CRM.KeyringAccount = ""
	wrote, err := ImportToken(cfg)
	require.NoError(t, err)
	assert.False(t, wrote)

	cfg.CRM.Token = ""
	cfg.CRM.KeyringAccount = "hubspot"
	wrote, err = ImportToken(cfg)
	require.NoError(t, err)
	assert.False(t, wrote)
}
