package cmd

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var mineTokensCmd = &cobra.Command{
	Use:   "mine-tokens-by-update-authority <authority>",
	Short: "Discover registry entries controlled by an update authority and record their tokens",
	Args:  cobra.ExactArgs(1),
	Example: `  metaplex-indexer mine-tokens-by-update-authority 8deJ9xeUvXSJwicYptA9mHsU2rN2pDx37KWzkDkEXhU6
  metaplex-indexer --db-path ./drop.db mine-tokens-by-update-authority 8deJ9xeUvXSJwicYptA9mHsU2rN2pDx37KWzkDkEXhU6`,
	RunE: func(_ *cobra.Command, args []string) error {
		authority, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid update authority %q: %w", args[0], err)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		return newIndexer(newGateway(), st).DiscoverTokens(ctx, authority)
	},
}

var mineMetadataCmd = &cobra.Command{
	Use:   "mine-token-metadata",
	Short: "Decode the registry entry of every recorded token and persist its metadata",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		return newIndexer(newGateway(), st).DecodeMetadata(ctx)
	},
}

var mineMinterCmd = &cobra.Command{
	Use:   "mine-token-minter",
	Short: "Print the minter (fee payer) of every recorded token's genesis transaction",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		return newIndexer(newGateway(), st).MineMinters(ctx, os.Stdout)
	},
}

var listLinksCmd = &cobra.Command{
	Use:   "list-links",
	Short: "Print the canonical uri of every indexed token, honoring repair directives",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signalContext()
		defer stop()

		return newIndexer(newGateway(), st).ListLinks(ctx, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mineTokensCmd)
	rootCmd.AddCommand(mineMetadataCmd)
	rootCmd.AddCommand(mineMinterCmd)
	rootCmd.AddCommand(listLinksCmd)
}
