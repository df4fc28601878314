// Package cmd hosts the vaultrelay command tree.
package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stellar/go/support/log"
)

var rootCmd = &cobra.Command{
	Use:   "vaultrelay",
	Short: "Relay between wallet clients and Soroban vault contracts",
	Long: `vaultrelay prepares unsigned Soroban contract invocations for wallet
clients to sign, submits the signed result, and tracks it to a terminal
status. Keys stay on the client; the relay never signs user transactions.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger: human-readable on a terminal, JSON
// when the output is captured by a collector.
func newLogger() *log.Entry {
	logger := log.New()
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logger.UseJSONFormatter()
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := logrus.ParseLevel(raw); err == nil {
			logger.SetLevel(level)
		}
	}
	return logger
}
