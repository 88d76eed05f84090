package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/feral-file/metaplex-indexer/internal/reconciler"
)

var repairMetadataCmd = &cobra.Command{
	Use:   "repair-metadata <credential-path>",
	Short: "Submit corrective updates for registry entries that diverge from curated repairs",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		credential, err := solana.PrivateKeyFromSolanaKeygenFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read credential file: %w", err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		results, err := reconciler.New(newGateway(), st).Reconcile(ctx, credential)
		report(results)
		return err
	},
}

var replaceAuthorityCmd = &cobra.Command{
	Use:   "replace-update-authority <credential-path> <new-authority>",
	Short: "Reassign the update authority of every directive's registry entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		credential, err := solana.PrivateKeyFromSolanaKeygenFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read credential file: %w", err)
		}

		newAuthority, err := solana.PublicKeyFromBase58(args[1])
		if err != nil {
			return fmt.Errorf("invalid new authority %q: %w", args[1], err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		results, err := reconciler.New(newGateway(), st).ReassignAuthority(ctx, credential, newAuthority)
		report(results)
		return err
	},
}

// report prints one line per directive outcome.
func report(results []reconciler.Result) {
	for _, result := range results {
		switch result.Outcome {
		case reconciler.OutcomeRepaired:
			color.Green("repaired      %s %s", result.TokenAddress, result.Signature)
		case reconciler.OutcomeInSync:
			fmt.Printf("in sync       %s\n", result.TokenAddress)
		case reconciler.OutcomeUnauthorized:
			color.Yellow("unauthorized  %s", result.TokenAddress)
		case reconciler.OutcomeSubmitFailed:
			color.Red("submit failed %s: %v", result.TokenAddress, result.Err)
		case reconciler.OutcomeSkipped:
			color.Yellow("skipped       %s: %v", result.TokenAddress, result.Err)
		}
	}
}

func init() {
	rootCmd.AddCommand(repairMetadataCmd)
	rootCmd.AddCommand(replaceAuthorityCmd)
}
