package schema

// Repair represents the repairs table - corrective directives curated by an
// out-of-band process. The reconciler only ever reads these rows.
type Repair struct {
	// TokenAddress references the tokens table
	TokenAddress string `gorm:"column:token_address;primaryKey;type:text"`
	// MetadataAddress is the registry entry the directive targets
	MetadataAddress string `gorm:"column:metadata_address;not null;uniqueIndex;type:text"`
	OldName         string `gorm:"column:old_name;type:text"`
	NewName         string `gorm:"column:new_name;type:text"`
	OldURI          string `gorm:"column:old_uri;type:text"`
	NewURI          string `gorm:"column:new_uri;type:text"`
}

// TableName specifies the table name for the Repair model
func (Repair) TableName() string {
	return "repairs"
}
