// Package cmd wires the indexer CLI: shared flags, configuration loading, and
// construction of the gateway/store/pipeline components each subcommand needs.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/feral-file/metaplex-indexer/internal/config"
	"github.com/feral-file/metaplex-indexer/internal/gateway"
	"github.com/feral-file/metaplex-indexer/internal/genesis"
	"github.com/feral-file/metaplex-indexer/internal/indexer"
	"github.com/feral-file/metaplex-indexer/internal/logger"
	"github.com/feral-file/metaplex-indexer/internal/store"
)

var (
	cfgFile string
	rpcURL  string
	dbPath  string
	debug   bool

	cfg *config.IndexerConfig

	rootCmd = &cobra.Command{
		Use:   "metaplex-indexer",
		Short: "Index and reconcile token metadata registry entries",
		Long: `metaplex-indexer discovers every registry entry controlled by an update
authority, resolves each entry's genesis transaction, decodes its payload,
and persists a normalized snapshot to a local SQLite database. A companion
workflow compares curated repair directives against live on-chain state and
submits corrective update transactions.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && logger.Default() != nil {
		logger.Error(err)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	logger.Flush(2 * time.Second)
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc-url", "", "ledger rpc endpoint url")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "path to the sqlite database file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// setup loads configuration and initializes logging. Flags override file and
// environment values.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadIndexerConfig(cfgFile, "")
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("rpc-url") {
		loaded.RPC.URL = rpcURL
	}
	if cmd.Flags().Changed("db-path") {
		loaded.Database.Path = dbPath
	}
	if cmd.Flags().Changed("debug") {
		loaded.Debug = debug
	}
	cfg = loaded

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. The pipeline
// is idempotent at row granularity, so interruption is always safe.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newGateway() gateway.Client {
	return gateway.New(cfg.RPC.URL, gateway.Config{
		Timeout:           cfg.RPC.Timeout,
		RequestsPerSecond: cfg.RPC.RequestsPerSecond,
		Burst:             cfg.RPC.Burst,
		MaxRetries:        cfg.RPC.MaxRetries,
	})
}

func openStore() (store.Store, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func newIndexer(gw gateway.Client, st store.Store) *indexer.Indexer {
	return indexer.New(gw, genesis.NewResolver(gw), st, indexer.Config{
		DecodeWorkers: cfg.Worker.PoolSize,
	})
}
