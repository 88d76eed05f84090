package metaplex

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// updateMetadataAccountDiscriminant is the instruction enum index of
// UpdateMetadataAccount in the registry program.
const updateMetadataAccountDiscriminant = uint8(1)

// updateMetadataAccountArgs is the borsh payload of the UpdateMetadataAccount
// instruction. Every field is an Option; absent fields leave the on-chain
// value untouched.
type updateMetadataAccountArgs struct {
	Data                *Data             `bin:"optional"`
	UpdateAuthority     *solana.PublicKey `bin:"optional"`
	PrimarySaleHappened *bool             `bin:"optional"`
}

// NewUpdateMetadataAccountInstruction builds the corrective update
// instruction. The update authority must sign the enclosing transaction.
func NewUpdateMetadataAccountInstruction(
	metadata solana.PublicKey,
	updateAuthority solana.PublicKey,
	data *Data,
	newUpdateAuthority *solana.PublicKey,
	primarySaleHappened *bool,
) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	encoder := bin.NewBorshEncoder(buf)

	if err := encoder.WriteUint8(updateMetadataAccountDiscriminant); err != nil {
		return nil, fmt.Errorf("failed to encode discriminant: %w", err)
	}
	if err := encoder.Encode(updateMetadataAccountArgs{
		Data:                data,
		UpdateAuthority:     newUpdateAuthority,
		PrimarySaleHappened: primarySaleHappened,
	}); err != nil {
		return nil, fmt.Errorf("failed to encode update args: %w", err)
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(metadata, true, false),
		solana.NewAccountMeta(updateAuthority, false, true),
	}

	return solana.NewInstruction(ProgramID, accounts, buf.Bytes()), nil
}

// DecodeUpdateMetadataAccountArgs decodes an UpdateMetadataAccount payload.
// It is the inverse of NewUpdateMetadataAccountInstruction and exists for
// inspection of outgoing corrective transactions.
func DecodeUpdateMetadataAccountArgs(data []byte) (*Data, *solana.PublicKey, *bool, error) {
	if len(data) < 1 || data[0] != updateMetadataAccountDiscriminant {
		return nil, nil, nil, fmt.Errorf("not an update metadata instruction")
	}

	var args updateMetadataAccountArgs
	if err := bin.NewBorshDecoder(data[1:]).Decode(&args); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode update args: %w", err)
	}
	return args.Data, args.UpdateAuthority, args.PrimarySaleHappened, nil
}
