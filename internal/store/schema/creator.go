package schema

// Creator represents the creators table - one row per creator entry of a
// registry record, preserving on-chain ordering via Idx.
type Creator struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// MetadataAddress references the metadatas table (one-to-many)
	MetadataAddress string `gorm:"column:metadata_address;not null;index;type:text"`
	// Address is the payee identity
	Address string `gorm:"column:address;not null;type:text"`
	// Share is an integer percentage; shares of one entry sum to 100 upstream
	Share uint8 `gorm:"column:share;not null"`
	// Idx is the 1-based position in the on-chain creator list
	Idx int `gorm:"column:idx;not null"`
}

// TableName specifies the table name for the Creator model
func (Creator) TableName() string {
	return "creators"
}
