package store

import (
	"context"

	"github.com/feral-file/metaplex-indexer/internal/store/schema"
)

// Store defines the interface for database operations. The store is the sole
// checkpoint of the pipeline: both indexing stages treat an existing row as
// proof the work is already done.
type Store interface {
	// EnsureTokenSchema creates the tokens table if absent
	EnsureTokenSchema(ctx context.Context) error
	// EnsureMetadataSchema creates the metadatas and creators tables if absent
	EnsureMetadataSchema(ctx context.Context) error
	// EnsureRepairSchema creates the repairs table if absent
	EnsureRepairSchema(ctx context.Context) error

	// HasTokenForMetadata reports whether a token row exists for a registry entry
	HasTokenForMetadata(ctx context.Context, metadataAddress string) (bool, error)
	// InsertTokenIfAbsent inserts a token row unless one of its unique keys is
	// already present. Returns false when the row already existed.
	InsertTokenIfAbsent(ctx context.Context, token *schema.Token) (bool, error)
	// ListTokens returns all token rows ordered by (genesis_block_time, token_address)
	ListTokens(ctx context.Context) ([]*schema.Token, error)

	// HasMetadata reports whether a metadata row exists for a registry entry
	HasMetadata(ctx context.Context, metadataAddress string) (bool, error)
	// CreateMetadataWithCreators inserts a metadata row and its creator rows in
	// one transaction. An already-present metadata row is a non-fatal no-op.
	CreateMetadataWithCreators(ctx context.Context, metadata *schema.TokenMetadata, creators []*schema.Creator) error
	// ListMetadatas returns all metadata rows ordered by token_address
	ListMetadatas(ctx context.Context) ([]*schema.TokenMetadata, error)
	// ListCreators returns the creator rows of a registry entry in on-chain order
	ListCreators(ctx context.Context, metadataAddress string) ([]*schema.Creator, error)

	// ListRepairs returns all repair directives ordered by token_address
	ListRepairs(ctx context.Context) ([]*schema.Repair, error)
	// GetRepairForToken returns the repair directive for a token, or nil
	GetRepairForToken(ctx context.Context, tokenAddress string) (*schema.Repair, error)

	// Close releases the underlying database handle
	Close() error
}
