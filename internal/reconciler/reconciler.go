// Package reconciler compares curated repair directives against live registry
// state and issues corrective update transactions where they diverge. It
// never writes unless the supplied credential is the live update authority.
package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/feral-file/metaplex-indexer/internal/domain"
	"github.com/feral-file/metaplex-indexer/internal/gateway"
	"github.com/feral-file/metaplex-indexer/internal/logger"
	"github.com/feral-file/metaplex-indexer/internal/metaplex"
	"github.com/feral-file/metaplex-indexer/internal/store"
	"github.com/feral-file/metaplex-indexer/internal/store/schema"
)

// Outcome is the terminal state of one directive within a run.
type Outcome string

const (
	// OutcomeInSync means the live record already matches the directive.
	OutcomeInSync Outcome = "in_sync"
	// OutcomeUnauthorized means the credential is not the live update authority.
	OutcomeUnauthorized Outcome = "unauthorized"
	// OutcomeRepaired means a corrective transaction was submitted.
	OutcomeRepaired Outcome = "repaired"
	// OutcomeSubmitFailed means the corrective transaction could not be
	// submitted; reported, never retried automatically.
	OutcomeSubmitFailed Outcome = "submit_failed"
	// OutcomeSkipped means the live record could not be fetched or decoded.
	OutcomeSkipped Outcome = "skipped"
)

// Result reports what happened to one directive.
type Result struct {
	TokenAddress    string
	MetadataAddress string
	Outcome         Outcome
	Signature       solana.Signature
	Err             error
}

// Reconciler drives drift detection and corrective submission.
type Reconciler struct {
	gateway gateway.Client
	store   store.Store
}

// New creates a reconciler.
func New(gw gateway.Client, st store.Store) *Reconciler {
	return &Reconciler{gateway: gw, store: st}
}

// Reconcile walks every repair directive in token order, detects drift
// between the directive and the live registry entry, and submits a corrective
// update signed by credential. Symbol, fee, and creators are copied unchanged
// from the live record so the update cannot clobber them. Submission failures
// are reported in the aggregate error; the run continues.
func (r *Reconciler) Reconcile(ctx context.Context, credential solana.PrivateKey) ([]Result, error) {
	return r.run(ctx, credential, func(repair *schema.Repair, live *metaplex.Metadata) (*metaplex.Data, *solana.PublicKey, bool) {
		drift := repair.NewName != live.Name() || repair.NewURI != live.URI()
		if !drift {
			return nil, nil, false
		}

		data := &metaplex.Data{
			Name:                 repair.NewName,
			Symbol:               live.Symbol(),
			URI:                  repair.NewURI,
			SellerFeeBasisPoints: live.Data.SellerFeeBasisPoints,
			Creators:             live.Data.Creators,
		}
		return data, nil, true
	})
}

// ReassignAuthority performs the same live-fetch/compare/sign/submit flow but
// only changes the update authority, leaving name and uri untouched.
func (r *Reconciler) ReassignAuthority(ctx context.Context, credential solana.PrivateKey, newAuthority solana.PublicKey) ([]Result, error) {
	return r.run(ctx, credential, func(_ *schema.Repair, live *metaplex.Metadata) (*metaplex.Data, *solana.PublicKey, bool) {
		if live.UpdateAuthority.Equals(newAuthority) {
			return nil, nil, false
		}
		return nil, &newAuthority, true
	})
}

// plan inspects one directive against the live record and returns the update
// to apply, or drift=false when the record is already as desired.
type plan func(repair *schema.Repair, live *metaplex.Metadata) (data *metaplex.Data, newAuthority *solana.PublicKey, drift bool)

func (r *Reconciler) run(ctx context.Context, credential solana.PrivateKey, planFn plan) ([]Result, error) {
	if err := r.store.EnsureRepairSchema(ctx); err != nil {
		return nil, err
	}

	repairs, err := r.store.ListRepairs(ctx)
	if err != nil {
		return nil, err
	}

	signer := credential.PublicKey()

	var results []Result
	var submitErrs []error
	for _, repair := range repairs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := r.reconcileOne(ctx, credential, signer, repair, planFn)
		results = append(results, result)

		if result.Outcome == OutcomeSubmitFailed {
			submitErrs = append(submitErrs,
				fmt.Errorf("corrective transaction for %s: %w", repair.TokenAddress, result.Err))
		}
	}

	return results, errors.Join(submitErrs...)
}

func (r *Reconciler) reconcileOne(ctx context.Context, credential solana.PrivateKey, signer solana.PublicKey, repair *schema.Repair, planFn plan) Result {
	result := Result{
		TokenAddress:    repair.TokenAddress,
		MetadataAddress: repair.MetadataAddress,
	}

	entry, err := solana.PublicKeyFromBase58(repair.MetadataAddress)
	if err != nil {
		result.Outcome = OutcomeSkipped
		result.Err = fmt.Errorf("malformed metadata address: %w", err)
		logger.Warn("skipping directive", zap.String("token", repair.TokenAddress), zap.Error(result.Err))
		return result
	}

	data, err := r.gateway.GetAccount(ctx, entry)
	if err != nil {
		result.Outcome = OutcomeSkipped
		result.Err = err
		logger.Warn("skipping directive fetch", zap.Stringer("entry", entry), zap.Error(err))
		return result
	}

	live, err := metaplex.DecodeMetadata(data)
	if err != nil {
		result.Outcome = OutcomeSkipped
		result.Err = err
		logger.Warn("skipping undecodable live entry", zap.Stringer("entry", entry), zap.Error(err))
		return result
	}

	update, newAuthority, drift := planFn(repair, live)
	if !drift {
		result.Outcome = OutcomeInSync
		return result
	}

	if !live.UpdateAuthority.Equals(signer) {
		result.Outcome = OutcomeUnauthorized
		result.Err = fmt.Errorf("%w: live authority %s, credential %s",
			domain.ErrUnauthorized, live.UpdateAuthority, signer)
		logger.Warn("authority mismatch, not attempting write",
			zap.Stringer("entry", entry),
			zap.Stringer("live_authority", live.UpdateAuthority),
			zap.Stringer("credential", signer))
		return result
	}

	sig, err := r.submitUpdate(ctx, credential, entry, update, newAuthority)
	if err != nil {
		result.Outcome = OutcomeSubmitFailed
		result.Err = err
		logger.Error(err, zap.Stringer("entry", entry))
		return result
	}

	result.Outcome = OutcomeRepaired
	result.Signature = sig
	logger.Info("submitted corrective transaction",
		zap.Stringer("entry", entry),
		zap.Stringer("signature", sig))
	return result
}

func (r *Reconciler) submitUpdate(ctx context.Context, credential solana.PrivateKey, entry solana.PublicKey, data *metaplex.Data, newAuthority *solana.PublicKey) (solana.Signature, error) {
	signer := credential.PublicKey()

	instruction, err := metaplex.NewUpdateMetadataAccountInstruction(entry, signer, data, newAuthority, nil)
	if err != nil {
		return solana.Signature{}, err
	}

	blockhash, err := r.gateway.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		blockhash,
		solana.TransactionPayer(signer),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(signer) {
			return &credential
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return r.gateway.SubmitTransaction(ctx, tx)
}
