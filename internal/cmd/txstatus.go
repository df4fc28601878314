package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dotandev/vaultrelay/internal/rpc"
	"github.com/dotandev/vaultrelay/internal/tx"
)

var txStatusCmd = &cobra.Command{
	Use:   "tx-status <hash>",
	Short: "Poll a submitted transaction until it reaches a terminal status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTxStatus(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(txStatusCmd)
}

// runTxStatus follows the same doubling delay schedule as the submission
// path, against a transaction that was already sent.
func runTxStatus(ctx context.Context, hash string) error {
	url := os.Getenv("RPC_SERVER_URL")
	if url == "" {
		url = "https://soroban-testnet.stellar.org:443"
	}
	client := rpc.NewClient(url, nil)

	bar := progressbar.NewOptions(tx.MaxPollAttempts,
		progressbar.OptionSetDescription("polling"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	for attempt := 0; attempt < tx.MaxPollAttempts; attempt++ {
		got, err := client.GetTransaction(ctx, hash)
		if err != nil {
			return err
		}
		if got.Status != rpc.StatusPending && got.Status != rpc.StatusNotFound {
			_ = bar.Finish()
			printTransaction(hash, got)
			return nil
		}
		_ = bar.Add(1)
		if attempt == tx.MaxPollAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second << attempt):
		}
	}
	_ = bar.Finish()
	return tx.ErrPollingTimeout
}

func printTransaction(hash string, got *rpc.GetTransactionResult) {
	fmt.Printf("Hash:   %s\n", hash)
	fmt.Printf("Status: %s\n", got.Status)
	if got.Ledger != 0 {
		fmt.Printf("Ledger: %d\n", got.Ledger)
	}
	if got.CreatedAt != 0 {
		fmt.Printf("Closed: %s\n", time.Unix(got.CreatedAt, 0).UTC().Format(time.RFC3339))
	}
	if got.ResultXDR != "" {
		fmt.Printf("Result: %s\n", got.ResultXDR)
	}
}
