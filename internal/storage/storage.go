// Package storage wraps the gorm store shared by the sync path (writes) and
// the analytics path (reads).
package storage

import (
	"fmt"

	"gorm.io/gorm"

	"survey_pipeline/internal/model"
)

// StorageError marks a raw or normalized store write failure. The syncer
// aborts the affected spreadsheet's cycle and keeps going with the rest.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for read-only consumers.
func (s *Store) DB() *gorm.DB { return s.db }
