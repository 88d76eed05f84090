// Package genesis resolves the creation event of a registry entry by walking
// its transaction history.
package genesis

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/feral-file/metaplex-indexer/internal/domain"
	"github.com/feral-file/metaplex-indexer/internal/gateway"
)

// maxHistory is the signature count at which history can no longer be assumed
// complete and ordered; entries at this volume are rejected rather than
// mis-indexed.
const maxHistory = 1000

// creationInstructionCount is the number of instructions the fixed creation
// flow expands to. Any other count means the entry was not created by the
// expected flow.
const creationInstructionCount = 5

// tokenAccountIndex is the position of the token account in a genesis
// transaction's account list; index 0 is the fee payer.
const tokenAccountIndex = 1

// Resolver determines the genesis transaction of registry entries.
type Resolver struct {
	gateway gateway.Client
}

// NewResolver creates a genesis resolver over the given gateway.
func NewResolver(gw gateway.Client) *Resolver {
	return &Resolver{gateway: gw}
}

// Resolve finds the transaction that created the registry entry and extracts
// the token identity it is paired with.
func (r *Resolver) Resolve(ctx context.Context, entry solana.PublicKey) (*domain.Genesis, error) {
	sigs, err := r.gateway.ListSignatures(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to list signatures for %s: %w", entry, err)
	}
	if len(sigs) >= maxHistory {
		return nil, fmt.Errorf("%w: %s has %d signatures", domain.ErrAmbiguousHistory, entry, len(sigs))
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoHistory, entry)
	}

	// History is newest-first; the oldest entry is the creation transaction.
	oldest := sigs[len(sigs)-1]

	tx, err := r.gateway.GetTransaction(ctx, oldest.Signature)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch genesis transaction %s: %w", oldest.Signature, err)
	}

	if got := len(tx.Message.Instructions); got != creationInstructionCount {
		return nil, fmt.Errorf("%w: %s has %d instructions", domain.ErrUnexpectedShape, oldest.Signature, got)
	}
	if len(tx.Message.AccountKeys) <= tokenAccountIndex {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingTokenAddress, oldest.Signature)
	}

	return &domain.Genesis{
		TokenAddress:    tx.Message.AccountKeys[tokenAccountIndex],
		Signature:       oldest.Signature,
		BlockTime:       oldest.BlockTime,
		MetadataAddress: entry,
	}, nil
}
