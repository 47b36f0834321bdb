package implementation

import (
	"context"
	"errors"
	"fmt"

	"ai-notecopilot/internal/mapper"
	"ai-notecopilot/internal/model"
	"ai-notecopilot/pkg/database"
	"ai-notecopilot/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRecordRepositoryImpl persists document records in Postgres with the
// vectors in pgvector columns.
type DocumentRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentRecordMapper
}

func NewDocumentRecordRepository(db *gorm.DB) store.RecordStore {
	return &DocumentRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentRecordMapper(),
	}
}

// MigrateDocumentRecords prepares the extension and tables.
func MigrateDocumentRecords(db *gorm.DB) error {
	return database.EnablePgVector(db, &model.DocumentRecord{}, &model.DocumentPassage{})
}

func (r *DocumentRecordRepositoryImpl) Put(ctx context.Context, record store.DocumentRecord) error {
	m := r.mapper.ToModel(record)
	passages := m.Passages
	m.Passages = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(m).Error; err != nil {
			return fmt.Errorf("failed to save record %s: %w", record.ContentHash, err)
		}
		if err := tx.Where("content_hash = ?", m.ContentHash).Delete(&model.DocumentPassage{}).Error; err != nil {
			return fmt.Errorf("failed to replace passages of %s: %w", record.ContentHash, err)
		}
		if len(passages) == 0 {
			return nil
		}
		if err := tx.Create(&passages).Error; err != nil {
			return fmt.Errorf("failed to save passages of %s: %w", record.ContentHash, err)
		}
		return nil
	})
}

func (r *DocumentRecordRepositoryImpl) Get(ctx context.Context, hash string) (store.DocumentRecord, error) {
	var m model.DocumentRecord
	err := r.db.WithContext(ctx).
		Preload("Passages", func(db *gorm.DB) *gorm.DB {
			return db.Order("passage_index ASC")
		}).
		Where("content_hash = ?", hash).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.DocumentRecord{}, store.ErrNotFound
		}
		return store.DocumentRecord{}, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *DocumentRecordRepositoryImpl) ScanAll(ctx context.Context) ([]store.RecordAge, error) {
	var rows []store.RecordAge
	err := r.db.WithContext(ctx).
		Model(&model.DocumentRecord{}).
		Select("content_hash, inserted_at").
		Order("inserted_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DocumentRecordRepositoryImpl) Delete(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_hash = ?", hash).Delete(&model.DocumentPassage{}).Error; err != nil {
			return err
		}
		return tx.Where("content_hash = ?", hash).Delete(&model.DocumentRecord{}).Error
	})
}

func (r *DocumentRecordRepositoryImpl) DestroyAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.DocumentPassage{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.DocumentRecord{}).Error
	})
}
