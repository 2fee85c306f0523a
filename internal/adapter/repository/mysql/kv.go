package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loanledger/internal/domain/store"
)

// Entry is one row of the key-value table. Ledgers are stored as JSON
// documents, so the value column must hold several megabytes.
type Entry struct {
	Key       string    `gorm:"primaryKey;size:191;column:kv_key"`
	Value     string    `gorm:"type:longtext;column:kv_value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Entry) TableName() string { return "kv_entries" }

// Migrate creates or updates the kv_entries table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{})
}

// KVStore implements store.Store on a gorm database (MySQL or SQLite).
type KVStore struct{ db *gorm.DB }

func NewKVStore(db *gorm.DB) *KVStore { return &KVStore{db: db} }

var (
	_ store.Store       = (*KVStore)(nil)
	_ store.Conditional = (*KVStore)(nil)
)

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("kv_key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &store.PersistenceError{Op: "get", Key: key, Err: err}
	}
	return e.Value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kv_value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return &store.PersistenceError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// SetIfAbsent inserts key only if no row exists; it reports whether it did.
func (s *KVStore) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	e := Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&e)
	if res.Error != nil {
		return false, &store.PersistenceError{Op: "setnx", Key: key, Err: res.Error}
	}
	return res.RowsAffected == 1, nil
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("kv_key = ?", key).Delete(&Entry{}).Error; err != nil {
		return &store.PersistenceError{Op: "remove", Key: key, Err: err}
	}
	return nil
}
