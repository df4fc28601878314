package config

import (
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testVaultID   = "CA3D5KRYM6CB7OWQ6TWYRR3Z4T7GNZLKERYNZGGA5SOAOPIFY6YQGAXE"
	testFactoryID = "CDLZFC3SYJYDZT7K67VZ75HPJVIEUVNIXF47ZG2FB2RMQQVU2HHGCYSC"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SOURCE_SECRET", keypair.MustRandom().Seed())
	t.Setenv("FACTORY_CONTRACT_ID", testFactoryID)
	t.Setenv("VAULT_CONTRACT_ID", testVaultID)
	t.Setenv("RPC_SERVER_URL", "")
	t.Setenv("NETWORK_PASSPHRASE", "")
	t.Setenv("STATE_PATH", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("MIN_RPC_VERSION", "")
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://soroban-testnet.stellar.org:443", cfg.RPCURL)
	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, testVaultID, cfg.VaultContractID)
	assert.NotNil(t, cfg.SourceKeypair)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SOURCE_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoadRejectsPlaceholderFactory(t *testing.T) {
	setValidEnv(t)
	t.Setenv("FACTORY_CONTRACT_ID", "YOUR_FACTORY_CONTRACT_ID_HERE")

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoadRejectsMalformedVaultID(t *testing.T) {
	setValidEnv(t)
	t.Setenv("VAULT_CONTRACT_ID", "not-a-contract")

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoadAllowsUnsetVaultID(t *testing.T) {
	setValidEnv(t)
	t.Setenv("VAULT_CONTRACT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.VaultContractID)
}
