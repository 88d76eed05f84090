package metaplex_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/metaplex-indexer/internal/metaplex"
)

func TestNewUpdateMetadataAccountInstruction(t *testing.T) {
	metadataAccount := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	creator := solana.NewWallet().PublicKey()

	data := &metaplex.Data{
		Name:                 "Degen Ape #42",
		Symbol:               "APE",
		URI:                  "https://example.com/42.json",
		SellerFeeBasisPoints: 500,
		Creators:             &[]metaplex.Creator{{Address: creator, Verified: true, Share: 100}},
	}

	ix, err := metaplex.NewUpdateMetadataAccountInstruction(metadataAccount, authority, data, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, metaplex.ProgramID, ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, metadataAccount, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.False(t, accounts[0].IsSigner)
	assert.Equal(t, authority, accounts[1].PublicKey)
	assert.False(t, accounts[1].IsWritable)
	assert.True(t, accounts[1].IsSigner)

	payload, err := ix.Data()
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.Equal(t, uint8(1), payload[0])

	decoded, newAuthority, primarySale, err := metaplex.DecodeUpdateMetadataAccountArgs(payload)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, "Degen Ape #42", decoded.Name)
	assert.Equal(t, "APE", decoded.Symbol)
	assert.Equal(t, "https://example.com/42.json", decoded.URI)
	assert.Equal(t, uint16(500), decoded.SellerFeeBasisPoints)
	require.NotNil(t, decoded.Creators)
	require.Len(t, *decoded.Creators, 1)
	assert.Equal(t, creator, (*decoded.Creators)[0].Address)
	assert.Nil(t, newAuthority)
	assert.Nil(t, primarySale)
}

func TestNewUpdateMetadataAccountInstruction_AuthorityOnly(t *testing.T) {
	metadataAccount := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	replacement := solana.NewWallet().PublicKey()

	ix, err := metaplex.NewUpdateMetadataAccountInstruction(metadataAccount, authority, nil, &replacement, nil)
	require.NoError(t, err)

	payload, err := ix.Data()
	require.NoError(t, err)

	data, newAuthority, primarySale, err := metaplex.DecodeUpdateMetadataAccountArgs(payload)
	require.NoError(t, err)
	assert.Nil(t, data)
	require.NotNil(t, newAuthority)
	assert.Equal(t, replacement, *newAuthority)
	assert.Nil(t, primarySale)
}

func TestDecodeUpdateMetadataAccountArgs_WrongDiscriminant(t *testing.T) {
	_, _, _, err := metaplex.DecodeUpdateMetadataAccountArgs([]byte{0})
	assert.Error(t, err)

	_, _, _, err = metaplex.DecodeUpdateMetadataAccountArgs(nil)
	assert.Error(t, err)
}
