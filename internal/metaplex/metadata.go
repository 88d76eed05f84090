// Package metaplex decodes the on-chain token metadata registry's account
// layouts and builds its update instruction. Decoding is pure: malformed bytes
// yield an error, never a panic.
package metaplex

import (
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/feral-file/metaplex-indexer/internal/domain"
)

// ProgramID is the token metadata registry program.
var ProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

// Key is the leading discriminant byte of a registry account.
type Key uint8

const (
	KeyUninitialized Key = iota
	KeyEditionV1
	KeyMasterEditionV1
	KeyReservationListV1
	KeyMetadataV1
	KeyReservationListV2
	KeyMasterEditionV2
	KeyEditionMarker
)

// String returns the record-kind tag as stored in the metadatas table.
func (k Key) String() string {
	switch k {
	case KeyUninitialized:
		return "Uninitialized"
	case KeyEditionV1:
		return "EditionV1"
	case KeyMasterEditionV1:
		return "MasterEditionV1"
	case KeyReservationListV1:
		return "ReservationListV1"
	case KeyMetadataV1:
		return "MetadataV1"
	case KeyReservationListV2:
		return "ReservationListV2"
	case KeyMasterEditionV2:
		return "MasterEditionV2"
	case KeyEditionMarker:
		return "EditionMarker"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Creator is one entry of a metadata record's creator list. Position within
// the list is significant and preserved by the indexer.
type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

// Data is the mutable inner record of a metadata account. The on-chain
// program stores name/symbol/uri at fixed capacity, null-padded; use
// TrimPadding before treating them as canonical values.
type Data struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator `bin:"optional"`
}

// Metadata is the decoded registry entry describing a token.
type Metadata struct {
	Key                 Key
	UpdateAuthority     solana.PublicKey
	Mint                solana.PublicKey
	Data                Data
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8 `bin:"optional"`
}

// Name returns the canonical (padding-stripped) name.
func (m *Metadata) Name() string {
	return TrimPadding(m.Data.Name)
}

// Symbol returns the canonical (padding-stripped) symbol.
func (m *Metadata) Symbol() string {
	return TrimPadding(m.Data.Symbol)
}

// URI returns the canonical (padding-stripped) uri.
func (m *Metadata) URI() string {
	return TrimPadding(m.Data.URI)
}

// DecodeMetadata decodes a metadata account's raw bytes. Registry accounts
// are allocated at a fixed size, so trailing bytes past the record are
// ignored.
func DecodeMetadata(data []byte) (*Metadata, error) {
	var metadata Metadata
	if err := bin.NewBorshDecoder(data).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMalformedAccount, err)
	}
	return &metadata, nil
}

// TrimPadding strips the trailing NUL padding of a fixed-capacity string field.
func TrimPadding(s string) string {
	return strings.TrimRight(s, "\x00")
}
