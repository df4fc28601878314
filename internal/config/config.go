// Package config loads and validates the relay's runtime configuration from
// the environment. Validation happens at startup, before the first request,
// so misconfiguration never turns into a mid-request surprise.
package config

import (
	"os"
	"strings"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/support/errors"
)

// ErrNotConfigured marks operator misconfiguration. HTTP handlers map it to
// a generic 500; the detail stays in the logs.
var ErrNotConfigured = errors.New("relay is not configured")

// Known placeholder values that ship in deployment templates. Treated the
// same as unset.
var placeholders = map[string]struct{}{
	"YOUR_VAULT_CONTRACT_ID_HERE":   {},
	"YOUR_FACTORY_CONTRACT_ID_HERE": {},
	"YOUR_SOURCE_SECRET_HERE":       {},
}

// Config is the validated runtime configuration.
type Config struct {
	// RPCURL is the Soroban RPC endpoint.
	RPCURL string
	// NetworkPassphrase identifies the target network.
	NetworkPassphrase string
	// VaultContractID is the initially active vault, optional: creation can
	// bind one later.
	VaultContractID string
	// FactoryContractID receives create_vault calls.
	FactoryContractID string
	// SourceKeypair is the backend's funded account, used only as the source
	// of read-only yield simulations. It never co-signs user transactions.
	SourceKeypair *keypair.Full
	// ListenAddr is the HTTP bind address.
	ListenAddr string
	// StatePath is the sqlite file for the vault registry; empty keeps the
	// registry in memory only.
	StatePath string
	// MinRPCVersion gates the remote soroban-rpc build at startup.
	MinRPCVersion string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		RPCURL:            envOr("RPC_SERVER_URL", "https://soroban-testnet.stellar.org:443"),
		NetworkPassphrase: envOr("NETWORK_PASSPHRASE", network.TestNetworkPassphrase),
		VaultContractID:   cleaned(os.Getenv("VAULT_CONTRACT_ID")),
		FactoryContractID: cleaned(os.Getenv("FACTORY_CONTRACT_ID")),
		ListenAddr:        envOr("LISTEN_ADDR", ":5000"),
		StatePath:         strings.TrimSpace(os.Getenv("STATE_PATH")),
		MinRPCVersion:     envOr("MIN_RPC_VERSION", "21.0.0"),
	}

	secret := cleaned(os.Getenv("SOURCE_SECRET"))
	if secret == "" {
		return nil, errors.Wrap(ErrNotConfigured, "SOURCE_SECRET is not set")
	}
	kp, err := keypair.ParseFull(secret)
	if err != nil {
		return nil, errors.Wrap(ErrNotConfigured, "SOURCE_SECRET is not a valid secret seed")
	}
	cfg.SourceKeypair = kp

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RPCURL == "" {
		return errors.Wrap(ErrNotConfigured, "RPC_SERVER_URL is empty")
	}
	if c.NetworkPassphrase == "" {
		return errors.Wrap(ErrNotConfigured, "NETWORK_PASSPHRASE is empty")
	}
	if c.FactoryContractID == "" {
		return errors.Wrap(ErrNotConfigured, "FACTORY_CONTRACT_ID is not set")
	}
	if err := validContractID(c.FactoryContractID); err != nil {
		return errors.Wrap(ErrNotConfigured, err.Error())
	}
	// The vault binding is optional at startup but must be well-formed when
	// present.
	if c.VaultContractID != "" {
		if err := validContractID(c.VaultContractID); err != nil {
			return errors.Wrap(ErrNotConfigured, err.Error())
		}
	}
	return nil
}

func validContractID(id string) error {
	if _, err := strkey.Decode(strkey.VersionByteContract, id); err != nil {
		return errors.Errorf("%q is not a contract address", id)
	}
	return nil
}

// cleaned trims the value and blanks out known template placeholders.
func cleaned(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := placeholders[v]; ok {
		return ""
	}
	return v
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
