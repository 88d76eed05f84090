package metaplex

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/feral-file/metaplex-indexer/internal/domain"
)

// anchorDiscriminatorLen is the length of the account discriminator the
// launcher program prepends to its account data.
const anchorDiscriminatorLen = 8

// LauncherData is the inner record of a collection launcher account.
type LauncherData struct {
	UUID           string
	Price          uint64
	ItemsAvailable uint64
	GoLiveDate     *int64 `bin:"optional"`
}

// Launcher is the decoded state of a collection launcher.
type Launcher struct {
	Authority     solana.PublicKey
	Wallet        solana.PublicKey
	TokenMint     *solana.PublicKey `bin:"optional"`
	Config        solana.PublicKey
	Data          LauncherData
	ItemsRedeemed uint64
	Bump          uint8
}

// LauncherConfigData holds the launch-wide settings shared by every minted token.
type LauncherConfigData struct {
	UUID                 string
	Symbol               string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	MaxSupply            uint64
	IsMutable            bool
	RetainAuthority      bool
	MaxNumberOfLines     uint32
}

// LauncherConfig is the decoded configuration account referenced by a Launcher.
type LauncherConfig struct {
	Authority solana.PublicKey
	Data      LauncherConfigData
}

// DecodeLauncher decodes a collection launcher state account.
func DecodeLauncher(data []byte) (*Launcher, error) {
	body, err := stripDiscriminator(data)
	if err != nil {
		return nil, err
	}

	var launcher Launcher
	if err := bin.NewBorshDecoder(body).Decode(&launcher); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMalformedAccount, err)
	}
	return &launcher, nil
}

// DecodeLauncherConfig decodes a collection launcher configuration account.
func DecodeLauncherConfig(data []byte) (*LauncherConfig, error) {
	body, err := stripDiscriminator(data)
	if err != nil {
		return nil, err
	}

	var config LauncherConfig
	if err := bin.NewBorshDecoder(body).Decode(&config); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMalformedAccount, err)
	}
	return &config, nil
}

func stripDiscriminator(data []byte) ([]byte, error) {
	if len(data) < anchorDiscriminatorLen {
		return nil, fmt.Errorf("%w: account shorter than discriminator", domain.ErrMalformedAccount)
	}
	return data[anchorDiscriminatorLen:], nil
}
