// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries over the
// submission archive, used by the HTTP layer for conditional responses.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// SubmissionStats returns the number of archived applications of userID in
// sessionID and the most recent SubmittedAt among them. An empty filter value
// matches everything.
//
// When there are no rows, count is 0 and latest is nil.
func SubmissionStats(ctx context.Context, db *gorm.DB, userID, sessionID string) (count int64, latest *time.Time, err error) {
	q := ownedSubmissions(db.WithContext(ctx), userID, sessionID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() -> TEXT in SQLite.
	var row struct {
		SubmittedAt time.Time
	}
	if err = q.Select("submitted_at").Order("submitted_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.SubmittedAt, nil
}
