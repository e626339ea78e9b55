// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file stores submitted applications.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-intake-backend/internal/domain"
)

// CreateSubmission inserts a received application.
func CreateSubmission(ctx context.Context, db *gorm.DB, s *domain.Submission) error {
	return db.WithContext(ctx).Create(s).Error
}

// GetSubmission fetches an application by id, or ErrNotFound.
func GetSubmission(ctx context.Context, db *gorm.DB, id string) (*domain.Submission, error) {
	var s domain.Submission
	err := db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSubmissionsPage returns a page of applications owned by userID for
// sessionID, newest first. An empty filter value matches everything.
func ListSubmissionsPage(ctx context.Context, db *gorm.DB, userID, sessionID string, offset, limit int) ([]domain.Submission, error) {
	q := ownedSubmissions(db.WithContext(ctx), userID, sessionID)
	var out []domain.Submission
	err := q.Order("submitted_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

func ownedSubmissions(db *gorm.DB, userID, sessionID string) *gorm.DB {
	q := db.Model(&domain.Submission{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	return q
}
