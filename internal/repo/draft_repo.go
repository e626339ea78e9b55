// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the key/value rows that hold
// in-progress applications.
//
// Rows are addressed by (namespace, key). A namespace is a wizard session
// id; keys are the fixed draft keys chosen by the store package. Writes are
// upserts so a repeated save of the same value leaves exactly one row.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// GetDraft returns the value stored under (namespace, key) or ErrNotFound.
func GetDraft(ctx context.Context, db *gorm.DB, namespace, key string) (string, error) {
	var e domain.DraftEntry
	err := db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// PutDraft inserts or replaces the value stored under (namespace, key).
func PutDraft(ctx context.Context, db *gorm.DB, namespace, key, value string) error {
	e := &domain.DraftEntry{
		Namespace: namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(e).Error
}

// DeleteDrafts removes the given keys of a namespace. Missing keys are ignored.
func DeleteDrafts(ctx context.Context, db *gorm.DB, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Where("namespace = ? AND key IN ?", namespace, keys).
		Delete(&domain.DraftEntry{}).Error
}

// PurgeDrafts removes every row not updated since before. It returns the
// number of deleted rows.
func PurgeDrafts(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("updated_at < ?", before).
		Delete(&domain.DraftEntry{})
	return res.RowsAffected, res.Error
}
