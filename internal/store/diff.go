package store

import (
	"fmt"
	"time"

	"github.com/holdfast-dev/holdfast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WriteSessionDiff caches the rendered diff blob for a session.
func (s *Store) WriteSessionDiff(sessionID, data string) error {
	row := models.SessionDiffRow{
		SessionID: sessionID,
		Updated:   time.Now().UnixMilli(),
		Data:      data,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "data"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("store: write session diff %s: %w", sessionID, err)
	}
	return nil
}

// ReadSessionDiff returns the cached diff for a session, or "" when no
// diff has been cached yet.
func (s *Store) ReadSessionDiff(sessionID string) (string, error) {
	var row models.SessionDiffRow
	err := s.db.First(&row, "session_id = ?", sessionID).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: read session diff %s: %w", sessionID, err)
	}
	return row.Data, nil
}
