// Package gateway adapts the remote ledger RPC endpoint behind a narrow
// request/response interface. Every call is rate limited, bounded by the
// configured request timeout, and retried with exponential backoff on
// transient failures.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"

	"github.com/feral-file/metaplex-indexer/internal/domain"
)

// updateAuthorityOffset is the byte offset of the update authority field in a
// registry entry account (one discriminant byte precedes it).
const updateAuthorityOffset = 1

// Client is the ledger access surface consumed by the indexing and
// reconciliation pipeline.
//
//go:generate mockgen -source=gateway.go -destination=../mocks/gateway.go -package=mocks -mock_names=Client=MockGatewayClient
type Client interface {
	// GetAccount fetches the raw bytes of an account.
	// Returns domain.ErrAccountNotFound if the account does not exist.
	GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error)

	// SearchAccountsByUpdateAuthority lists the addresses of all accounts owned
	// by program whose embedded update authority matches authority.
	SearchAccountsByUpdateAuthority(ctx context.Context, program, authority solana.PublicKey) ([]solana.PublicKey, error)

	// ListSignatures returns the signature history of an address, newest first,
	// capped by the remote endpoint.
	ListSignatures(ctx context.Context, address solana.PublicKey) ([]domain.SignatureInfo, error)

	// GetTransaction fetches and decodes a confirmed transaction.
	// Returns domain.ErrTransactionNotFound if the signature has no ledger entry
	// and domain.ErrUndecodableTransaction if the raw payload cannot be decoded.
	GetTransaction(ctx context.Context, signature solana.Signature) (*solana.Transaction, error)

	// LatestBlockhash fetches a recent blockhash for transaction construction.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)

	// SubmitTransaction submits a signed transaction and returns its signature.
	SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// solanaRPC is the slice of the RPC client the gateway consumes, kept narrow
// so tests can substitute a fake.
type solanaRPC interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
	GetSignaturesForAddress(ctx context.Context, account solana.PublicKey) ([]*rpc.TransactionSignature, error)
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Config holds gateway tuning.
type Config struct {
	// Timeout bounds every remote call, retries included.
	Timeout time.Duration
	// RequestsPerSecond throttles outgoing calls; the endpoint is a shared
	// rate-limited resource.
	RequestsPerSecond float64
	Burst             int
	// MaxRetries bounds backoff retries per call for transient failures.
	MaxRetries uint64
}

type client struct {
	rpc        solanaRPC
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries uint64
}

// New creates a gateway bound to one RPC endpoint URL.
func New(endpoint string, cfg Config) Client {
	return NewWithRPC(rpc.New(endpoint), cfg)
}

// NewWithRPC creates a gateway over an existing RPC client.
func NewWithRPC(rpcClient solanaRPC, cfg Config) Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	return &client{
		rpc:        rpcClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
	}
}

// do runs one remote call under the rate limiter with bounded retries.
// Permanent failures (wrapped by the operation) are not retried.
func (c *client) do(ctx context.Context, operation func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	attempt := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return operation(ctx)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)

	return backoff.Retry(attempt, policy)
}

// GetAccount fetches the raw bytes of an account.
func (c *client) GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	var data []byte
	err := c.do(ctx, func(ctx context.Context) error {
		result, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
			Encoding: solana.EncodingBase64Zstd,
		})
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return backoff.Permanent(domain.ErrAccountNotFound)
			}
			return fmt.Errorf("failed to get account %s: %w", address, err)
		}
		if result == nil || result.Value == nil {
			return backoff.Permanent(domain.ErrAccountNotFound)
		}

		data = result.Value.Data.GetBinary()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SearchAccountsByUpdateAuthority lists registry entries controlled by authority.
func (c *client) SearchAccountsByUpdateAuthority(ctx context.Context, program, authority solana.PublicKey) ([]solana.PublicKey, error) {
	var addresses []solana.PublicKey
	err := c.do(ctx, func(ctx context.Context) error {
		result, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, &rpc.GetProgramAccountsOpts{
			Encoding: solana.EncodingBase64Zstd,
			Filters: []rpc.RPCFilter{
				{
					Memcmp: &rpc.RPCFilterMemcmp{
						Offset: updateAuthorityOffset,
						Bytes:  solana.Base58(authority.Bytes()),
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to search program accounts: %w", err)
		}

		addresses = addresses[:0]
		for _, keyed := range result {
			addresses = append(addresses, keyed.Pubkey)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// ListSignatures returns the signature history of an address, newest first.
func (c *client) ListSignatures(ctx context.Context, address solana.PublicKey) ([]domain.SignatureInfo, error) {
	var infos []domain.SignatureInfo
	err := c.do(ctx, func(ctx context.Context) error {
		sigs, err := c.rpc.GetSignaturesForAddress(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to list signatures for %s: %w", address, err)
		}

		infos = infos[:0]
		for _, sig := range sigs {
			info := domain.SignatureInfo{
				Signature: sig.Signature,
				Err:       sig.Err,
			}
			if sig.BlockTime != nil {
				info.BlockTime = int64(*sig.BlockTime)
			}
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// GetTransaction fetches and decodes a confirmed transaction.
func (c *client) GetTransaction(ctx context.Context, signature solana.Signature) (*solana.Transaction, error) {
	var tx *solana.Transaction
	err := c.do(ctx, func(ctx context.Context) error {
		result, err := c.rpc.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
			Encoding: solana.EncodingBase64,
		})
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return backoff.Permanent(domain.ErrTransactionNotFound)
			}
			return fmt.Errorf("failed to get transaction %s: %w", signature, err)
		}
		if result == nil || result.Transaction == nil {
			return backoff.Permanent(domain.ErrTransactionNotFound)
		}

		decoded, err := result.Transaction.GetTransaction()
		if err != nil || decoded == nil {
			return backoff.Permanent(fmt.Errorf("%w: %s", domain.ErrUndecodableTransaction, signature))
		}

		tx = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// LatestBlockhash fetches a recent blockhash for transaction construction.
func (c *client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := c.do(ctx, func(ctx context.Context) error {
		result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return fmt.Errorf("failed to get latest blockhash: %w", err)
		}
		if result == nil || result.Value == nil {
			return errors.New("empty blockhash response")
		}

		hash = result.Value.Blockhash
		return nil
	})
	if err != nil {
		return solana.Hash{}, err
	}
	return hash, nil
}

// SubmitTransaction submits a signed transaction. Submission is never
// retried: a corrective write must not be repeated blindly.
func (c *client) SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return solana.Signature{}, err
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to submit transaction: %w", err)
	}
	return sig, nil
}
