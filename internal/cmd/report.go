package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/xdr"

	"github.com/dotandev/vaultrelay/internal/rpc"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <envelope-b64>",
	Short: "Simulate an unsigned envelope and report its fee and footprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(ctx context.Context, envelopeB64 string) error {
	url := os.Getenv("RPC_SERVER_URL")
	if url == "" {
		url = "https://soroban-testnet.stellar.org:443"
	}
	client := rpc.NewClient(url, nil)

	sim, err := client.SimulateTransaction(ctx, envelopeB64)
	if err != nil {
		return err
	}
	if sim.Error != "" {
		return errors.Errorf("simulation rejected: %s", sim.Error)
	}

	var data xdr.SorobanTransactionData
	if err := xdr.SafeUnmarshalBase64(sim.TransactionData, &data); err != nil {
		return errors.Wrap(err, "decoding soroban transaction data")
	}
	printFootprintReport(&data, sim.MinResourceFee)
	return nil
}

// printFootprintReport renders the ledger entries a simulated invocation
// touches, split by access mode, with the resulting fee.
func printFootprintReport(data *xdr.SorobanTransactionData, minResourceFee int64) {
	footprint := data.Resources.Footprint

	fmt.Println("Contract Invocation Footprint Report")
	fmt.Println("------------------------------------")
	fmt.Printf("Read-only entries:  %d\n", len(footprint.ReadOnly))
	fmt.Printf("Read-write entries: %d\n", len(footprint.ReadWrite))
	fmt.Printf("Resource fee:       %d stroops\n", data.ResourceFee)
	fmt.Printf("Min resource fee:   %d stroops\n\n", minResourceFee)

	if len(footprint.ReadOnly) > 0 {
		fmt.Println("Read-only:")
		for _, key := range footprint.ReadOnly {
			fmt.Printf("  %s\n", describeLedgerKey(key))
		}
	}
	if len(footprint.ReadWrite) > 0 {
		fmt.Println("Read-write:")
		for _, key := range footprint.ReadWrite {
			fmt.Printf("  %s\n", describeLedgerKey(key))
		}
	}
}

func describeLedgerKey(key xdr.LedgerKey) string {
	switch key.Type {
	case xdr.LedgerEntryTypeAccount:
		return fmt.Sprintf("account %s", key.Account.AccountId.Address())
	case xdr.LedgerEntryTypeContractData:
		contract := key.ContractData.Contract
		if contract.ContractId != nil {
			id, err := strkey.Encode(strkey.VersionByteContract, (*contract.ContractId)[:])
			if err == nil {
				return fmt.Sprintf("contract data %s durability=%s", id, key.ContractData.Durability.String())
			}
		}
		return "contract data"
	case xdr.LedgerEntryTypeContractCode:
		return fmt.Sprintf("contract code %x", key.ContractCode.Hash)
	default:
		return key.Type.String()
	}
}
