package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feral-file/metaplex-indexer/internal/store/schema"
)

type sqliteStore struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and returns a
// store over it.
func Open(path string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	return NewSQLiteStore(db), nil
}

// NewSQLiteStore creates a store instance over an existing gorm connection.
func NewSQLiteStore(db *gorm.DB) Store {
	return &sqliteStore{db: db}
}

// EnsureTokenSchema creates the tokens table if absent
func (s *sqliteStore) EnsureTokenSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&schema.Token{}); err != nil {
		return fmt.Errorf("failed to migrate tokens table: %w", err)
	}
	return nil
}

// EnsureMetadataSchema creates the metadatas and creators tables if absent
func (s *sqliteStore) EnsureMetadataSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&schema.TokenMetadata{}, &schema.Creator{}); err != nil {
		return fmt.Errorf("failed to migrate metadata tables: %w", err)
	}
	return nil
}

// EnsureRepairSchema creates the repairs table if absent
func (s *sqliteStore) EnsureRepairSchema(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&schema.Repair{}); err != nil {
		return fmt.Errorf("failed to migrate repairs table: %w", err)
	}
	return nil
}

// HasTokenForMetadata reports whether a token row exists for a registry entry
func (s *sqliteStore) HasTokenForMetadata(ctx context.Context, metadataAddress string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.Token{}).
		Where("metadata_address = ?", metadataAddress).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check token for %s: %w", metadataAddress, err)
	}
	return count > 0, nil
}

// InsertTokenIfAbsent inserts a token row unless one of its unique keys is
// already present. The conflict is absorbed by the unique constraints, so
// concurrent writers cannot double-insert.
func (s *sqliteStore) InsertTokenIfAbsent(ctx context.Context, token *schema.Token) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(token)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert token %s: %w", token.TokenAddress, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListTokens returns all token rows ordered by (genesis_block_time, token_address)
func (s *sqliteStore) ListTokens(ctx context.Context) ([]*schema.Token, error) {
	var tokens []*schema.Token
	err := s.db.WithContext(ctx).
		Order("genesis_block_time, token_address").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// HasMetadata reports whether a metadata row exists for a registry entry
func (s *sqliteStore) HasMetadata(ctx context.Context, metadataAddress string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.TokenMetadata{}).
		Where("metadata_address = ?", metadataAddress).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check metadata for %s: %w", metadataAddress, err)
	}
	return count > 0, nil
}

// CreateMetadataWithCreators inserts a metadata row and its creator rows in
// one transaction. If the metadata row already exists the whole unit is a
// no-op, so creators are never duplicated.
func (s *sqliteStore) CreateMetadataWithCreators(ctx context.Context, metadata *schema.TokenMetadata, creators []*schema.Creator) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(metadata)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Already indexed by a concurrent worker or an earlier run.
			return nil
		}

		for _, creator := range creators {
			if err := tx.Create(creator).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata %s: %w", metadata.MetadataAddress, err)
	}
	return nil
}

// ListMetadatas returns all metadata rows ordered by token_address
func (s *sqliteStore) ListMetadatas(ctx context.Context) ([]*schema.TokenMetadata, error) {
	var metadatas []*schema.TokenMetadata
	err := s.db.WithContext(ctx).
		Order("token_address").
		Find(&metadatas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list metadatas: %w", err)
	}
	return metadatas, nil
}

// ListCreators returns the creator rows of a registry entry in on-chain order
func (s *sqliteStore) ListCreators(ctx context.Context, metadataAddress string) ([]*schema.Creator, error) {
	var creators []*schema.Creator
	err := s.db.WithContext(ctx).
		Where("metadata_address = ?", metadataAddress).
		Order("idx").
		Find(&creators).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list creators for %s: %w", metadataAddress, err)
	}
	return creators, nil
}

// ListRepairs returns all repair directives ordered by token_address
func (s *sqliteStore) ListRepairs(ctx context.Context) ([]*schema.Repair, error) {
	var repairs []*schema.Repair
	err := s.db.WithContext(ctx).
		Order("token_address").
		Find(&repairs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list repairs: %w", err)
	}
	return repairs, nil
}

// GetRepairForToken returns the repair directive for a token, or nil
func (s *sqliteStore) GetRepairForToken(ctx context.Context, tokenAddress string) (*schema.Repair, error) {
	var repair schema.Repair
	err := s.db.WithContext(ctx).Where("token_address = ?", tokenAddress).First(&repair).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get repair for %s: %w", tokenAddress, err)
	}
	return &repair, nil
}

// Close releases the underlying database handle
func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
