package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/metaplex-indexer/internal/store"
	"github.com/feral-file/metaplex-indexer/internal/store/schema"
)

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

	ctx := context.Background()
	require.NoError(t, s.EnsureTokenSchema(ctx))
	require.NoError(t, s.EnsureMetadataSchema(ctx))
	require.NoError(t, s.EnsureRepairSchema(ctx))
	return s, db
}

func TestInsertTokenIfAbsent(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	token := &schema.Token{
		TokenAddress:     "token-1",
		MetadataAddress:  "meta-1",
		GenesisSignature: "sig-1",
		GenesisBlockTime: 1700000000,
	}

	inserted, err := s.InsertTokenIfAbsent(ctx, token)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same primary key again is absorbed, not an error.
	inserted, err = s.InsertTokenIfAbsent(ctx, &schema.Token{
		TokenAddress:     "token-1",
		MetadataAddress:  "meta-other",
		GenesisSignature: "sig-other",
		GenesisBlockTime: 1700000001,
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	// A different token pointing at an already-claimed registry entry hits the
	// unique index and is absorbed as well.
	inserted, err = s.InsertTokenIfAbsent(ctx, &schema.Token{
		TokenAddress:     "token-2",
		MetadataAddress:  "meta-1",
		GenesisSignature: "sig-2",
		GenesisBlockTime: 1700000002,
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	tokens, err := s.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "meta-1", tokens[0].MetadataAddress)
}

func TestHasTokenForMetadata(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	has, err := s.HasTokenForMetadata(ctx, "meta-1")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.InsertTokenIfAbsent(ctx, &schema.Token{
		TokenAddress:     "token-1",
		MetadataAddress:  "meta-1",
		GenesisSignature: "sig-1",
	})
	require.NoError(t, err)

	has, err = s.HasTokenForMetadata(ctx, "meta-1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestListTokens_Ordering(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	rows := []*schema.Token{
		{TokenAddress: "token-c", MetadataAddress: "meta-c", GenesisSignature: "sig-c", GenesisBlockTime: 300},
		{TokenAddress: "token-b", MetadataAddress: "meta-b", GenesisSignature: "sig-b", GenesisBlockTime: 100},
		{TokenAddress: "token-a", MetadataAddress: "meta-a", GenesisSignature: "sig-a", GenesisBlockTime: 100},
	}
	for _, row := range rows {
		_, err := s.InsertTokenIfAbsent(ctx, row)
		require.NoError(t, err)
	}

	tokens, err := s.ListTokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "token-a", tokens[0].TokenAddress)
	assert.Equal(t, "token-b", tokens[1].TokenAddress)
	assert.Equal(t, "token-c", tokens[2].TokenAddress)
}

func TestCreateMetadataWithCreators(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	nonce := uint8(254)
	metadata := &schema.TokenMetadata{
		TokenAddress:         "token-1",
		MetadataAddress:      "meta-1",
		Key:                  "MetadataV1",
		UpdateAuthority:      "authority-1",
		Mint:                 "mint-1",
		Name:                 "Degen Ape #42",
		Symbol:               "APE",
		URI:                  "https://example.com/42.json",
		SellerFeeBasisPoints: 500,
		PrimarySaleHappened:  true,
		IsMutable:            true,
		EditionNonce:         &nonce,
	}
	creators := []*schema.Creator{
		{MetadataAddress: "meta-1", Address: "creator-1", Share: 60, Idx: 1},
		{MetadataAddress: "meta-1", Address: "creator-2", Share: 40, Idx: 2},
	}

	require.NoError(t, s.CreateMetadataWithCreators(ctx, metadata, creators))

	has, err := s.HasMetadata(ctx, "meta-1")
	require.NoError(t, err)
	assert.True(t, has)

	// A second insert for the same entry is a no-op and must not duplicate
	// the creator rows.
	require.NoError(t, s.CreateMetadataWithCreators(ctx, &schema.TokenMetadata{
		TokenAddress:    "token-1",
		MetadataAddress: "meta-1",
		Name:            "overwritten",
	}, creators))

	metadatas, err := s.ListMetadatas(ctx)
	require.NoError(t, err)
	require.Len(t, metadatas, 1)
	assert.Equal(t, "Degen Ape #42", metadatas[0].Name)
	require.NotNil(t, metadatas[0].EditionNonce)
	assert.Equal(t, uint8(254), *metadatas[0].EditionNonce)

	stored, err := s.ListCreators(ctx, "meta-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "creator-1", stored[0].Address)
	assert.Equal(t, uint8(60), stored[0].Share)
	assert.Equal(t, "creator-2", stored[1].Address)
}

func TestGetRepairForToken(t *testing.T) {
	s, db := openTestStore(t)
	ctx := context.Background()

	repair, err := s.GetRepairForToken(ctx, "token-1")
	require.NoError(t, err)
	assert.Nil(t, repair)

	// Repair directives are curated out-of-band; seed one directly.
	require.NoError(t, db.Create(&schema.Repair{
		TokenAddress:    "token-1",
		MetadataAddress: "meta-1",
		OldName:         "Degen Ape #42",
		NewName:         "Degen Ape #42 (fixed)",
		OldURI:          "https://example.com/42.json",
		NewURI:          "https://example.com/fixed/42.json",
	}).Error)

	repair, err = s.GetRepairForToken(ctx, "token-1")
	require.NoError(t, err)
	require.NotNil(t, repair)
	assert.Equal(t, "Degen Ape #42 (fixed)", repair.NewName)

	repairs, err := s.ListRepairs(ctx)
	require.NoError(t, err)
	require.Len(t, repairs, 1)
}
