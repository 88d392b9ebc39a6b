package store

import (
	"encoding/json"
	"fmt"

	"github.com/holdfast-dev/holdfast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Meta flags marking one-time backfills as done.
const (
	flagSessionIndexSeeded = "session_index_seeded"
	flagPartTypesSeeded    = "message_part_types_seeded"
)

// EnsureSessionIndex rebuilds index rows for sessions written before
// the session_index table existed. Guarded by a meta flag: safe to
// call on every startup, a no-op after the first successful run.
func (s *Store) EnsureSessionIndex() error {
	done, err := s.flagSet(flagSessionIndexSeeded)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	var rows []models.SessionRow
	if err := s.db.FindInBatches(&rows, 200, func(tx *gorm.DB, _ int) error {
		for _, row := range rows {
			var sess models.Session
			if err := json.Unmarshal([]byte(row.Data), &sess); err != nil {
				return fmt.Errorf("decode session %s: %w", row.ID, err)
			}
			index, err := indexRow(&sess)
			if err != nil {
				return err
			}
			if err := s.db.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"project_id", "parent_id", "title", "directory", "version",
					"created_at", "updated_at", "archived_at",
					"additions", "deletions", "files",
					"share_url", "worktree_path", "worktree_branch", "data",
				}),
			}).Create(&index).Error; err != nil {
				return fmt.Errorf("upsert index for %s: %w", row.ID, err)
			}
		}
		return nil
	}).Error; err != nil {
		return fmt.Errorf("store: backfill session index: %w", err)
	}

	return s.setFlag(flagSessionIndexSeeded)
}

// EnsureMessagePartTypes populates the extracted type column for parts
// written before it existed, reading each blob's type field. Guarded
// by a meta flag like EnsureSessionIndex.
func (s *Store) EnsureMessagePartTypes() error {
	done, err := s.flagSet(flagPartTypesSeeded)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	var rows []models.MessagePartRow
	if err := s.db.Where("type = ''").FindInBatches(&rows, 500, func(tx *gorm.DB, _ int) error {
		for _, row := range rows {
			var part models.Part
			if err := json.Unmarshal([]byte(row.Data), &part); err != nil {
				return fmt.Errorf("decode part %s: %w", row.ID, err)
			}
			if part.Type == "" {
				continue
			}
			if err := s.db.Model(&models.MessagePartRow{}).
				Where("session_id = ? AND message_id = ? AND id = ?",
					row.SessionID, row.MessageID, row.ID).
				Update("type", part.Type).Error; err != nil {
				return fmt.Errorf("set type for %s: %w", row.ID, err)
			}
		}
		return nil
	}).Error; err != nil {
		return fmt.Errorf("store: backfill part types: %w", err)
	}

	return s.setFlag(flagPartTypesSeeded)
}

// flagSet reports whether a meta flag has been recorded.
func (s *Store) flagSet(name string) (bool, error) {
	var row models.Meta
	err := s.db.First(&row, "name = ?", name).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: read meta %s: %w", name, err)
	}
	return row.Value == "1", nil
}

// setFlag records a meta flag as done.
func (s *Store) setFlag(name string) error {
	row := models.Meta{Name: name, Value: "1"}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("store: set meta %s: %w", name, err)
	}
	return nil
}
