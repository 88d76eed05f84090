package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/feral-file/metaplex-indexer/internal/metaplex"
)

var showLauncherCmd = &cobra.Command{
	Use:   "show-launcher <address>...",
	Short: "Decode and print one or more collection launcher accounts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		gw := newGateway()

		ctx, stop := signalContext()
		defer stop()

		for _, arg := range args {
			address, err := solana.PublicKeyFromBase58(arg)
			if err != nil {
				return fmt.Errorf("invalid launcher address %q: %w", arg, err)
			}

			data, err := gw.GetAccount(ctx, address)
			if err != nil {
				return fmt.Errorf("failed to fetch launcher account %s: %w", address, err)
			}
			launcher, err := metaplex.DecodeLauncher(data)
			if err != nil {
				return fmt.Errorf("failed to decode launcher %s: %w", address, err)
			}

			configData, err := gw.GetAccount(ctx, launcher.Config)
			if err != nil {
				return fmt.Errorf("failed to fetch launcher config %s: %w", launcher.Config, err)
			}
			config, err := metaplex.DecodeLauncherConfig(configData)
			if err != nil {
				return fmt.Errorf("failed to decode launcher config %s: %w", launcher.Config, err)
			}

			printLauncher(address, launcher, config)
		}

		return nil
	},
}

func printLauncher(address solana.PublicKey, launcher *metaplex.Launcher, config *metaplex.LauncherConfig) {
	fmt.Printf("launcher               %s\n", address)
	fmt.Printf("  authority            %s\n", launcher.Authority)
	fmt.Printf("  wallet               %s\n", launcher.Wallet)
	if launcher.TokenMint != nil {
		fmt.Printf("  token_mint           %s\n", launcher.TokenMint)
	}
	fmt.Printf("  items_redeemed       %d\n", launcher.ItemsRedeemed)
	fmt.Printf("  data.uuid            %s\n", launcher.Data.UUID)
	fmt.Printf("  data.price           %d\n", launcher.Data.Price)
	fmt.Printf("  data.items_available %d\n", launcher.Data.ItemsAvailable)
	if launcher.Data.GoLiveDate != nil {
		fmt.Printf("  data.go_live_date    %d\n", *launcher.Data.GoLiveDate)
	}
	fmt.Printf("  config.authority     %s\n", config.Authority)
	fmt.Printf("  config.uuid          %s\n", config.Data.UUID)
	fmt.Printf("  config.symbol        %s\n", metaplex.TrimPadding(config.Data.Symbol))
	fmt.Printf("  config.seller_fee_basis_points %d\n", config.Data.SellerFeeBasisPoints)
	for _, creator := range config.Data.Creators {
		fmt.Printf("  config.creators      %s, %d\n", creator.Address, creator.Share)
	}
	fmt.Printf("  config.max_supply      %d\n", config.Data.MaxSupply)
	fmt.Printf("  config.is_mutable      %t\n", config.Data.IsMutable)
	fmt.Printf("  config.retain_authority %t\n", config.Data.RetainAuthority)
	fmt.Printf("  config.max_number_of_lines %d\n", config.Data.MaxNumberOfLines)
}

func init() {
	rootCmd.AddCommand(showLauncherCmd)
}
