package schema

// Token represents the tokens table - the append-only ledger of discovered
// token/registry-entry pairs. Rows are created once by the discovery stage and
// never updated or deleted.
type Token struct {
	// TokenAddress is the token identity minted alongside the registry entry
	TokenAddress string `gorm:"column:token_address;primaryKey;type:text"`
	// MetadataAddress is the registry entry describing this token
	MetadataAddress string `gorm:"column:metadata_address;not null;uniqueIndex;type:text"`
	// GenesisSignature is the transaction that created the token/entry pair
	GenesisSignature string `gorm:"column:genesis_signature;not null;uniqueIndex;type:text"`
	// GenesisBlockTime is the unix timestamp of the genesis transaction
	GenesisBlockTime int64 `gorm:"column:genesis_block_time;not null"`
}

// TableName specifies the table name for the Token model
func (Token) TableName() string {
	return "tokens"
}
