package storage

import (
	"context"
	"errors"
	"fmt"

	"storefront-cart/models"

	"gorm.io/gorm"
)

// GormStorage persists records in the stored_records table.
type GormStorage struct {
	DB *gorm.DB
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{DB: db}
}

func (g *GormStorage) Read(ctx context.Context, key string) ([]byte, error) {
	var record models.StoredRecord
	err := g.DB.WithContext(ctx).Where("record_key = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %q: %w", key, err)
	}
	return []byte(record.Value), nil
}

// Write upserts the record; Save falls back to an insert when no row was updated.
func (g *GormStorage) Write(ctx context.Context, key string, value []byte) error {
	record := models.StoredRecord{Key: key, Value: string(value)}
	if err := g.DB.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("failed to write record %q: %w", key, err)
	}
	return nil
}

func (g *GormStorage) Remove(ctx context.Context, key string) error {
	if err := g.DB.WithContext(ctx).Where("record_key = ?", key).Delete(&models.StoredRecord{}).Error; err != nil {
		return fmt.Errorf("failed to remove record %q: %w", key, err)
	}
	return nil
}
