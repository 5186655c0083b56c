package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"takeoff-service/internal/models"
)

// BundleRepository stores metadata about processed models.
type BundleRepository interface {
	Upsert(ctx context.Context, record *models.BundleRecord) error
	Get(ctx context.Context, hash string) (*models.BundleRecord, error)
	List(ctx context.Context) ([]models.BundleRecord, error)
	Delete(ctx context.Context, hash string) error
	DeleteExpired(ctx context.Context, now time.Time) ([]models.BundleRecord, error)
}

// BundleRepositoryImpl provides methods to interact with the BundleRecord model in the database.
type BundleRepositoryImpl struct {
	db *gorm.DB
}

// NewBundleRepository creates a new BundleRepositoryImpl instance with the provided GORM database connection.
func NewBundleRepository(db *gorm.DB) *BundleRepositoryImpl {
	return &BundleRepositoryImpl{db: db}
}

// Migrate creates or updates the bundle table.
func (r *BundleRepositoryImpl) Migrate() error {
	return r.db.AutoMigrate(&models.BundleRecord{})
}

// Upsert inserts a record or refreshes an existing one with the same hash.
func (r *BundleRepositoryImpl) Upsert(ctx context.Context, record *models.BundleRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		UpdateAll: true,
	}).Create(record).Error
}

// Get retrieves a record by hash. Missing records yield gorm.ErrRecordNotFound.
func (r *BundleRepositoryImpl) Get(ctx context.Context, hash string) (*models.BundleRecord, error) {
	var record models.BundleRecord
	err := r.db.WithContext(ctx).First(&record, "hash = ?", hash).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List retrieves all records, newest first.
func (r *BundleRepositoryImpl) List(ctx context.Context) ([]models.BundleRecord, error) {
	var records []models.BundleRecord
	err := r.db.WithContext(ctx).Order("processed_at desc").Find(&records).Error
	return records, err
}

// Delete removes a record by hash.
func (r *BundleRepositoryImpl) Delete(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).Delete(&models.BundleRecord{}, "hash = ?", hash).Error
}

// DeleteExpired removes and returns every record that expired before now.
func (r *BundleRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) ([]models.BundleRecord, error) {
	var expired []models.BundleRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", now.UTC()).Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		hashes := make([]string, len(expired))
		for i, rec := range expired {
			hashes[i] = rec.Hash
		}
		return tx.Where("hash IN ?", hashes).Delete(&models.BundleRecord{}).Error
	})
	return expired, err
}
