package domain

import (
	"github.com/gagliardetto/solana-go"
)

// Genesis describes the creation event of a registry entry: the token it was
// minted alongside, the transaction that created the pair, and when it landed.
type Genesis struct {
	TokenAddress    solana.PublicKey
	Signature       solana.Signature
	BlockTime       int64
	MetadataAddress solana.PublicKey
}

// SignatureInfo is one element of an address's signature history,
// newest-first as returned by the ledger.
type SignatureInfo struct {
	Signature solana.Signature
	BlockTime int64
	Err       interface{}
}
