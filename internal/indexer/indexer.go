// Package indexer drives the two-stage pipeline: discovery of registry
// entries controlled by an update authority, then decoding of each entry's
// payload into the relational snapshot. Both stages are idempotent; the store
// is the only checkpoint, so an interrupted run can always be restarted.
package indexer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alitto/pond/v2"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/feral-file/metaplex-indexer/internal/gateway"
	"github.com/feral-file/metaplex-indexer/internal/genesis"
	"github.com/feral-file/metaplex-indexer/internal/logger"
	"github.com/feral-file/metaplex-indexer/internal/metaplex"
	"github.com/feral-file/metaplex-indexer/internal/store"
	"github.com/feral-file/metaplex-indexer/internal/store/schema"
)

var (
	markerNew  = color.New(color.FgGreen)
	markerSkip = color.New(color.FgYellow)
)

// Config holds indexer tuning.
type Config struct {
	// Program is the registry program to search; defaults to metaplex.ProgramID.
	Program solana.PublicKey
	// DecodeWorkers bounds the decode-stage pool. 1 (the default) preserves
	// strictly sequential processing.
	DecodeWorkers int
	// Progress receives one marker per processed row; defaults to stderr.
	Progress io.Writer
}

// Indexer orchestrates discovery and decoding.
type Indexer struct {
	gateway  gateway.Client
	resolver *genesis.Resolver
	store    store.Store
	program  solana.PublicKey
	workers  int
	progress io.Writer
}

// New creates an indexer.
func New(gw gateway.Client, resolver *genesis.Resolver, st store.Store, cfg Config) *Indexer {
	if cfg.Program.IsZero() {
		cfg.Program = metaplex.ProgramID
	}
	if cfg.DecodeWorkers < 1 {
		cfg.DecodeWorkers = 1
	}
	if cfg.Progress == nil {
		cfg.Progress = os.Stderr
	}

	return &Indexer{
		gateway:  gw,
		resolver: resolver,
		store:    st,
		program:  cfg.Program,
		workers:  cfg.DecodeWorkers,
		progress: cfg.Progress,
	}
}

// DiscoverTokens finds every registry entry controlled by authority and
// records one token row per entry whose genesis resolves cleanly. Candidates
// that fail to resolve are skipped, not marked; they are reconsidered on every
// future run until they succeed.
func (i *Indexer) DiscoverTokens(ctx context.Context, authority solana.PublicKey) error {
	if err := i.store.EnsureTokenSchema(ctx); err != nil {
		return err
	}

	candidates, err := i.gateway.SearchAccountsByUpdateAuthority(ctx, i.program, authority)
	if err != nil {
		return fmt.Errorf("failed to discover registry entries: %w", err)
	}
	logger.Info("discovered registry entries",
		zap.Int("count", len(candidates)),
		zap.Stringer("authority", authority))

	for _, entry := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		known, err := i.store.HasTokenForMetadata(ctx, entry.String())
		if err != nil {
			return err
		}
		if known {
			_, _ = markerSkip.Fprint(i.progress, "-")
			continue
		}
		_, _ = markerNew.Fprint(i.progress, "+")

		gen, err := i.resolver.Resolve(ctx, entry)
		if err != nil {
			logger.Warn("skipping registry entry",
				zap.Stringer("entry", entry),
				zap.Error(err))
			continue
		}

		inserted, err := i.store.InsertTokenIfAbsent(ctx, &schema.Token{
			TokenAddress:     gen.TokenAddress.String(),
			MetadataAddress:  entry.String(),
			GenesisSignature: gen.Signature.String(),
			GenesisBlockTime: gen.BlockTime,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// Raced with another writer; the row exists, which is all we need.
			logger.Debug("token already recorded", zap.Stringer("entry", entry))
		}
	}

	return nil
}

// DecodeMetadata decodes the registry entry of every recorded token that has
// no metadata row yet. Rows are processed oldest-first so batch reprocessing
// is deterministic. Fetch and decode failures are skipped and retried on the
// next run.
func (i *Indexer) DecodeMetadata(ctx context.Context) error {
	if err := i.store.EnsureMetadataSchema(ctx); err != nil {
		return err
	}

	tokens, err := i.store.ListTokens(ctx)
	if err != nil {
		return err
	}

	pool := pond.NewPool(i.workers)
	for _, token := range tokens {
		pool.Submit(func() {
			i.decodeOne(ctx, token)
		})
	}
	pool.StopAndWait()

	return ctx.Err()
}

// decodeOne processes a single token row. Dedup is enforced twice: a cheap
// read here, and the unique constraint inside CreateMetadataWithCreators for
// concurrent workers.
func (i *Indexer) decodeOne(ctx context.Context, token *schema.Token) {
	if ctx.Err() != nil {
		return
	}

	indexed, err := i.store.HasMetadata(ctx, token.MetadataAddress)
	if err != nil {
		logger.Error(err, zap.String("metadata_address", token.MetadataAddress))
		return
	}
	if indexed {
		_, _ = markerSkip.Fprint(i.progress, "-")
		return
	}
	_, _ = markerNew.Fprint(i.progress, "+")

	entry, err := solana.PublicKeyFromBase58(token.MetadataAddress)
	if err != nil {
		logger.Warn("skipping token with malformed metadata address",
			zap.String("metadata_address", token.MetadataAddress),
			zap.Error(err))
		return
	}

	data, err := i.gateway.GetAccount(ctx, entry)
	if err != nil {
		logger.Warn("skipping registry entry fetch",
			zap.Stringer("entry", entry),
			zap.Error(err))
		return
	}

	metadata, err := metaplex.DecodeMetadata(data)
	if err != nil {
		logger.Warn("skipping undecodable registry entry",
			zap.Stringer("entry", entry),
			zap.Error(err))
		return
	}

	row := &schema.TokenMetadata{
		TokenAddress:         token.TokenAddress,
		MetadataAddress:      token.MetadataAddress,
		Key:                  metadata.Key.String(),
		UpdateAuthority:      metadata.UpdateAuthority.String(),
		Mint:                 metadata.Mint.String(),
		Name:                 metadata.Name(),
		Symbol:               metadata.Symbol(),
		URI:                  metadata.URI(),
		SellerFeeBasisPoints: metadata.Data.SellerFeeBasisPoints,
		PrimarySaleHappened:  metadata.PrimarySaleHappened,
		IsMutable:            metadata.IsMutable,
		EditionNonce:         metadata.EditionNonce,
	}

	var creators []*schema.Creator
	if metadata.Data.Creators != nil {
		for idx, creator := range *metadata.Data.Creators {
			creators = append(creators, &schema.Creator{
				MetadataAddress: token.MetadataAddress,
				Address:         creator.Address.String(),
				Share:           creator.Share,
				Idx:             idx + 1,
			})
		}
	}

	if err := i.store.CreateMetadataWithCreators(ctx, row, creators); err != nil {
		logger.Error(err, zap.Stringer("entry", entry))
	}
}

// MineMinters prints the fee-payer (minter) of every recorded token's genesis
// transaction, one per line, in deterministic token order.
func (i *Indexer) MineMinters(ctx context.Context, w io.Writer) error {
	tokens, err := i.store.ListTokens(ctx)
	if err != nil {
		return err
	}

	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			return err
		}

		sig, err := solana.SignatureFromBase58(token.GenesisSignature)
		if err != nil {
			logger.Warn("skipping token with malformed genesis signature",
				zap.String("token_address", token.TokenAddress),
				zap.Error(err))
			continue
		}

		tx, err := i.gateway.GetTransaction(ctx, sig)
		if err != nil {
			logger.Warn("skipping genesis transaction fetch",
				zap.Stringer("signature", sig),
				zap.Error(err))
			continue
		}
		if len(tx.Message.AccountKeys) == 0 {
			logger.Warn("genesis transaction has no accounts", zap.Stringer("signature", sig))
			continue
		}

		fmt.Fprintln(w, tx.Message.AccountKeys[0])
	}

	return nil
}

// ListLinks prints the canonical uri of every indexed token, one per line,
// preferring a curated repair directive's replacement uri when one exists.
func (i *Indexer) ListLinks(ctx context.Context, w io.Writer) error {
	if err := i.store.EnsureRepairSchema(ctx); err != nil {
		return err
	}

	metadatas, err := i.store.ListMetadatas(ctx)
	if err != nil {
		return err
	}

	for _, metadata := range metadatas {
		repair, err := i.store.GetRepairForToken(ctx, metadata.TokenAddress)
		if err != nil {
			return err
		}

		if repair != nil {
			fmt.Fprintln(w, repair.NewURI)
		} else {
			fmt.Fprintln(w, metadata.URI)
		}
	}

	return nil
}
