// Package docstore persists per-account profile documents as opaque JSON.
// Callers hand it field maps; merge semantics are top-level last-write-wins.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is a flat field map as stored on disk. It is an alias so
// callers can satisfy their own store interfaces with plain maps.
type Document = map[string]any

type profileRecord struct {
	AccountID string `gorm:"primaryKey;size:64"`
	Document  []byte `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (profileRecord) TableName() string {
	return "farm_profiles"
}

// Store reads and writes profile documents.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save persists the given fields for an account. With merge set, existing
// fields not present in partial are preserved; without it the stored
// document is replaced wholesale.
func (s *Store) Save(ctx context.Context, accountID string, partial Document, merge bool) error {
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc := partial
		if merge {
			existing, found, err := loadTx(tx, accountID)
			if err != nil {
				return err
			}
			if found {
				for k, v := range partial {
					existing[k] = v
				}
				doc = existing
			}
		}

		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding profile document: %w", err)
		}

		record := profileRecord{
			AccountID: accountID,
			Document:  raw,
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).Create(&record).Error
	})
}

// Load fetches the stored document for an account. The boolean reports
// whether a document exists.
func (s *Store) Load(ctx context.Context, accountID string) (Document, bool, error) {
	return loadTx(s.db.WithContext(ctx), accountID)
}

// Delete removes an account's document. Deleting a missing document is
// not an error.
func (s *Store) Delete(ctx context.Context, accountID string) error {
	return s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Delete(&profileRecord{}).Error
}

// Migrate creates the backing table. Used by tests and the sqlite dev
// path; production schemas come from the migration files.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&profileRecord{})
}

func loadTx(tx *gorm.DB, accountID string) (Document, bool, error) {
	var record profileRecord
	err := tx.Where("account_id = ?", accountID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading profile document: %w", err)
	}

	doc := Document{}
	if len(record.Document) > 0 {
		if err := json.Unmarshal(record.Document, &doc); err != nil {
			return nil, false, fmt.Errorf("decoding profile document: %w", err)
		}
	}
	return doc, true, nil
}
