package reconciler_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/metaplex-indexer/internal/domain"
	"github.com/feral-file/metaplex-indexer/internal/logger"
	"github.com/feral-file/metaplex-indexer/internal/metaplex"
	"github.com/feral-file/metaplex-indexer/internal/reconciler"
	"github.com/feral-file/metaplex-indexer/internal/store"
	"github.com/feral-file/metaplex-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeGateway records submitted transactions and serves canned accounts.
type fakeGateway struct {
	accounts  map[solana.PublicKey][]byte
	submitted []*solana.Transaction
	submitErr error
}

func (f *fakeGateway) GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	data, ok := f.accounts[address]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return data, nil
}

func (f *fakeGateway) SearchAccountsByUpdateAuthority(ctx context.Context, program, authority solana.PublicKey) ([]solana.PublicKey, error) {
	return nil, nil
}

func (f *fakeGateway) ListSignatures(ctx context.Context, address solana.PublicKey) ([]domain.SignatureInfo, error) {
	return nil, nil
}

func (f *fakeGateway) GetTransaction(ctx context.Context, signature solana.Signature) (*solana.Transaction, error) {
	return nil, domain.ErrTransactionNotFound
}

func (f *fakeGateway) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return solana.Hash{31: 1}, nil
}

func (f *fakeGateway) SubmitTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if f.submitErr != nil {
		return solana.Signature{}, f.submitErr
	}
	f.submitted = append(f.submitted, tx)
	return tx.Signatures[0], nil
}

func openTestStore(t *testing.T) (store.Store, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	s := store.NewSQLiteStore(db)
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})

	require.NoError(t, s.EnsureRepairSchema(context.Background()))
	return s, db
}

func encodeMetadataAccount(t *testing.T, metadata metaplex.Metadata) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	require.NoError(t, bin.NewBorshEncoder(buf).Encode(metadata))
	return buf.Bytes()
}

// liveEntry seeds the fake chain with a registry entry and the store with a
// repair directive targeting it.
func liveEntry(t *testing.T, gw *fakeGateway, db *gorm.DB, authority solana.PublicKey, name, uri, newName, newURI string) solana.PublicKey {
	t.Helper()

	entry := solana.NewWallet().PublicKey()
	creator := solana.NewWallet().PublicKey()

	gw.accounts[entry] = encodeMetadataAccount(t, metaplex.Metadata{
		Key:             metaplex.KeyMetadataV1,
		UpdateAuthority: authority,
		Mint:            solana.NewWallet().PublicKey(),
		Data: metaplex.Data{
			Name:                 name,
			Symbol:               "APE",
			URI:                  uri,
			SellerFeeBasisPoints: 500,
			Creators:             &[]metaplex.Creator{{Address: creator, Verified: true, Share: 100}},
		},
		IsMutable: true,
	})

	require.NoError(t, db.Create(&schema.Repair{
		TokenAddress:    "token-" + entry.String(),
		MetadataAddress: entry.String(),
		OldName:         name,
		NewName:         newName,
		OldURI:          uri,
		NewURI:          newURI,
	}).Error)

	return entry
}

func TestReconcile_RepairsDriftedEntry(t *testing.T) {
	ctx := context.Background()
	credential := solana.NewWallet().PrivateKey

	gw := &fakeGateway{accounts: map[solana.PublicKey][]byte{}}
	st, db := openTestStore(t)

	entry := liveEntry(t, gw, db, credential.PublicKey(),
		"Old Name", "https://example.com/old.json",
		"New Name", "https://example.com/new.json")

	results, err := reconciler.New(gw, st).Reconcile(ctx, credential)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, reconciler.OutcomeRepaired, results[0].Outcome)
	assert.False(t, results[0].Signature.IsZero())

	require.Len(t, gw.submitted, 1)
	tx := gw.submitted[0]

	// Fee payer and signer is the credential.
	assert.Equal(t, credential.PublicKey(), tx.Message.AccountKeys[0])

	require.Len(t, tx.Message.Instructions, 1)
	compiled := tx.Message.Instructions[0]
	program, err := tx.Message.Program(compiled.ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, metaplex.ProgramID, program)

	data, newAuthority, primarySale, err := metaplex.DecodeUpdateMetadataAccountArgs(compiled.Data)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Nil(t, newAuthority)
	assert.Nil(t, primarySale)

	// Directive fields are applied; everything else is copied from the live
	// record so the update cannot clobber it.
	assert.Equal(t, "New Name", data.Name)
	assert.Equal(t, "https://example.com/new.json", data.URI)
	assert.Equal(t, "APE", data.Symbol)
	assert.Equal(t, uint16(500), data.SellerFeeBasisPoints)
	require.NotNil(t, data.Creators)
	assert.Len(t, *data.Creators, 1)

	// The update targets the drifted entry.
	accounts, err := compiled.ResolveInstructionAccounts(&tx.Message)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, entry, accounts[0].PublicKey)
}

func TestReconcile_InSync(t *testing.T) {
	ctx := context.Background()
	credential := solana.NewWallet().PrivateKey

	gw := &fakeGateway{accounts: map[solana.PublicKey][]byte{}}
	st, db := openTestStore(t)

	// Live record already carries the directive's values, padding aside.
	liveEntry(t, gw, db, credential.PublicKey(),
		"Good Name\x00\x00", "https://example.com/good.json\x00",
		"Good Name", "https://example.com/good.json")

	results, err := reconciler.New(gw, st).Reconcile(ctx, credential)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, reconciler.OutcomeInSync, results[0].Outcome)
	assert.Empty(t, gw.submitted)
}

func TestReconcile_UnauthorizedNeverSubmits(t *testing.T) {
	ctx := context.Background()
	credential := solana.NewWallet().PrivateKey
	otherAuthority := solana.NewWallet().PublicKey()

	gw := &fakeGateway{accounts: map[solana.PublicKey][]byte{}}
	st, db := openTestStore(t)

	liveEntry(t, gw, db, otherAuthority,
		"Old Name", "https://example.com/old.json",
		"New Name", "https://example.com/new.json")

	results, err := reconciler.New(gw, st).Reconcile(ctx, credential)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, reconciler.OutcomeUnauthorized, results[0].Outcome)
	assert.ErrorIs(t, results[0].Err, domain.ErrUnauthorized)
	assert.Empty(t, gw.submitted)
}

func TestReconcile_SkipsMissingAccountAndContinues(t *testing.T) {
	ctx := context.Background()
	credential := solana.NewWallet().PrivateKey

	gw := &fakeGateway{accounts: map[solana.PublicKey][]byte{}}
	st, db := openTestStore(t)

	// First directive points at an entry with no live account.
	require.NoError(t, db.Create(&schema.Repair{
		TokenAddress:    "a-token-missing",
		MetadataAddress: solana.NewWallet().PublicKey().String(),
		NewName:         "X",
		NewURI:          "https://example.com/x.json",
	}).Error)

	liveEntry(t, gw, db, credential.PublicKey(),
		"Old Name", "https://example.com/old.json",
		"New Name", "https://example.com/new.json")

	results, err := reconciler.New(gw, st).Reconcile(ctx, credential)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, reconciler.OutcomeSkipped, results[0].Outcome)
	assert.ErrorIs(t, results[0].Err, domain.ErrAccountNotFound)
	assert.Equal(t, reconciler.OutcomeRepaired, results[1].Outcome)
	assert.Len(t, gw.submitted, 1)
}

func TestReconcile_SubmitFailureAggregated(t *testing.T) {
	ctx := context.Background()
	credential := solana.NewWallet().PrivateKey

	gw := &fakeGateway{
		accounts:  map[solana.PublicKey][]byte{},
		submitErr: errors.New("blockhash expired"),
	}
	st, db := openTestStore(t)

	liveEntry(t, gw, db, credential.PublicKey(),
		"Old Name", "https://example.com/old.json",
		"New Name", "https://example.com/new.json")

	results, err := reconciler.New(gw, st).Reconcile(ctx, credential)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blockhash expired")
	require.Len(t, results, 1)
	assert.Equal(t, reconciler.OutcomeSubmitFailed, results[0].Outcome)
}

func TestReassignAuthority(t *testing.T) {
	ctx := context.Background()
	credential := solana.NewWallet().PrivateKey
	newAuthority := solana.NewWallet().PublicKey()

	gw := &fakeGateway{accounts: map[solana.PublicKey][]byte{}}
	st, db := openTestStore(t)

	liveEntry(t, gw, db, credential.PublicKey(),
		"Name", "https://example.com/n.json",
		"Name", "https://example.com/n.json")

	results, err := reconciler.New(gw, st).ReassignAuthority(ctx, credential, newAuthority)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, reconciler.OutcomeRepaired, results[0].Outcome)

	require.Len(t, gw.submitted, 1)
	compiled := gw.submitted[0].Message.Instructions[0]

	data, gotAuthority, primarySale, err := metaplex.DecodeUpdateMetadataAccountArgs(compiled.Data)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Nil(t, primarySale)
	require.NotNil(t, gotAuthority)
	assert.Equal(t, newAuthority, *gotAuthority)

	// A second pass against a record already owned by the target is a no-op.
	gw.submitted = nil
	for entry := range gw.accounts {
		gw.accounts[entry] = encodeMetadataAccount(t, metaplex.Metadata{
			Key:             metaplex.KeyMetadataV1,
			UpdateAuthority: newAuthority,
			Mint:            solana.NewWallet().PublicKey(),
			Data:            metaplex.Data{Name: "Name", URI: "https://example.com/n.json"},
		})
	}

	results, err = reconciler.New(gw, st).ReassignAuthority(ctx, credential, newAuthority)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, reconciler.OutcomeInSync, results[0].Outcome)
	assert.Empty(t, gw.submitted)
}
