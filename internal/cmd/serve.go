package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/support/log"

	"github.com/dotandev/vaultrelay/internal/api"
	"github.com/dotandev/vaultrelay/internal/config"
	"github.com/dotandev/vaultrelay/internal/rpc"
	"github.com/dotandev/vaultrelay/internal/service"
	"github.com/dotandev/vaultrelay/internal/telemetry"
	"github.com/dotandev/vaultrelay/internal/vault"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, "vaultrelay")
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.WithError(err).Warn("trace exporter shutdown failed")
		}
	}()

	registry, err := openRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	client := rpc.NewClient(cfg.RPCURL, nil)
	// A stale RPC server is worth a loud warning but not a refusal to start:
	// testnet deployments lag behind releases routinely.
	if err := client.CheckMinVersion(ctx, cfg.MinRPCVersion); err != nil {
		logger.WithError(err).Warn("soroban rpc version check failed")
	}

	relay := service.New(cfg, client, registry, logger)
	server := api.New(cfg.ListenAddr, relay, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server stopped")
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openRegistry builds the vault registry: sqlite-backed when STATE_PATH is
// set, in-memory otherwise. The configured vault seeds the binding only when
// the store does not already carry one.
func openRegistry(cfg *config.Config, logger *log.Entry) (*vault.Registry, error) {
	if cfg.StatePath == "" {
		return vault.NewInMemory(cfg.VaultContractID), nil
	}
	registry, err := vault.Open(cfg.StatePath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening vault registry at %s", cfg.StatePath)
	}
	if _, ok := registry.Active(); !ok && cfg.VaultContractID != "" {
		if err := registry.SetActive(cfg.VaultContractID); err != nil {
			registry.Close()
			return nil, err
		}
		logger.WithField("contract_id", cfg.VaultContractID).Info("seeded active vault from environment")
	}
	return registry, nil
}
