package schema

// TokenMetadata represents the metadatas table - the decoded scalar fields of
// a registry entry. String fields are stored with trailing padding already
// stripped. Rows are immutable once written; re-decoding an indexed token is
// skipped, not merged.
type TokenMetadata struct {
	// TokenAddress references the tokens table
	TokenAddress string `gorm:"column:token_address;primaryKey;type:text"`
	// MetadataAddress is the registry entry this row was decoded from
	MetadataAddress string `gorm:"column:metadata_address;not null;uniqueIndex;type:text"`
	// Key is the record-kind tag of the registry account
	Key string `gorm:"column:key;type:text"`
	// UpdateAuthority is the identity permitted to mutate the entry
	UpdateAuthority string `gorm:"column:update_authority;type:text"`
	// Mint is the token mint the entry describes
	Mint                 string `gorm:"column:mint;type:text"`
	Name                 string `gorm:"column:name;type:text"`
	Symbol               string `gorm:"column:symbol;type:text"`
	URI                  string `gorm:"column:uri;type:text"`
	SellerFeeBasisPoints uint16 `gorm:"column:seller_fee_basis_points"`
	PrimarySaleHappened  bool   `gorm:"column:primary_sale_happened"`
	IsMutable            bool   `gorm:"column:is_mutable"`
	// EditionNonce is optional on chain; nil maps to NULL
	EditionNonce *uint8 `gorm:"column:edition_nonce"`

	// Associations
	Creators []Creator `gorm:"foreignKey:MetadataAddress;references:MetadataAddress"`
}

// TableName specifies the table name for the TokenMetadata model
func (TokenMetadata) TableName() string {
	return "metadatas"
}
