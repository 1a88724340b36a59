package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentModel maps to the documents table.
type documentModel struct {
	Collection string     `gorm:"primaryKey;size:64"`
	Key        string     `gorm:"primaryKey;size:128"`
	Owner      string     `gorm:"size:128;index:idx_documents_owner_saved,priority:2"`
	OwnerKey   string     `gorm:"size:200;index:idx_documents_owner_saved,priority:1"`
	SavedAt    time.Time  `gorm:"not null;index:idx_documents_owner_saved,priority:3,sort:desc"`
	ExpiresAt  *time.Time `gorm:"index"`
	Body       string     `gorm:"type:jsonb;not null"`
}

func (documentModel) TableName() string {
	return "documents"
}

// PostgresStore keeps documents in a single JSONB table managed with gorm.
type PostgresStore struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenPostgres connects, pings and migrates the documents table.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("repository: database url must not be empty")
	}
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("repository: open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("repository: get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("repository: ping postgres: %w", err)
	}
	return NewPostgresStore(ctx, db)
}

// NewPostgresStore wraps an open gorm handle and ensures the schema exists.
func NewPostgresStore(ctx context.Context, db *gorm.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("repository: gorm db must not be nil")
	}
	if err := db.WithContext(ctx).AutoMigrate(&documentModel{}); err != nil {
		return nil, fmt.Errorf("repository: migrate documents: %w", err)
	}
	return &PostgresStore{db: db, now: time.Now}, nil
}

func (s *PostgresStore) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *PostgresStore) Upsert(ctx context.Context, collection string, doc Document) error {
	if err := validate(collection, doc.Key); err != nil {
		return err
	}
	record := documentModel{
		Collection: collection,
		Key:        doc.Key,
		Owner:      doc.Owner,
		OwnerKey:   ownerKey(collection, doc.Owner),
		SavedAt:    doc.SavedAt.UTC(),
		Body:       string(doc.Body),
	}
	if !doc.ExpiresAt.IsZero() {
		exp := doc.ExpiresAt.UTC()
		record.ExpiresAt = &exp
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "key"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("repository: Upsert %s/%s: %w", collection, doc.Key, err)
	}
	return nil
}

func (s *PostgresStore) live(ctx context.Context, collection string) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where("(expires_at IS NULL OR expires_at > ?)", s.now().UTC())
}

func (s *PostgresStore) Get(ctx context.Context, collection, key string) (Document, bool, error) {
	if err := validate(collection, key); err != nil {
		return Document{}, false, err
	}
	var record documentModel
	err := s.live(ctx, collection).Where("key = ?", key).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("repository: Get %s/%s: %w", collection, key, err)
	}
	return documentFromModel(record), true, nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, key string) (bool, error) {
	if err := validate(collection, key); err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		Delete(&documentModel{})
	if res.Error != nil {
		return false, fmt.Errorf("repository: Delete %s/%s: %w", collection, key, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string, f Filter) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	query := s.live(ctx, collection).Order("saved_at DESC").Order("key ASC")
	if f.Owner != "" {
		query = query.Where("owner_key = ?", ownerKey(collection, f.Owner))
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var records []documentModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("repository: List %s: %w", collection, err)
	}
	docs := make([]Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, documentFromModel(r))
	}
	return docs, nil
}

func documentFromModel(r documentModel) Document {
	doc := Document{
		Key:     r.Key,
		Owner:   r.Owner,
		SavedAt: r.SavedAt.UTC(),
		Body:    []byte(r.Body),
	}
	if r.ExpiresAt != nil {
		doc.ExpiresAt = r.ExpiresAt.UTC()
	}
	return doc
}
