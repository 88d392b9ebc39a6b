package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/holdfast-dev/holdfast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleCursor reports that a pagination cursor no longer resolves
// to a stored session, usually because that session was deleted
// mid-listing. Callers should restart from the beginning rather than
// treat the listing as exhausted.
var ErrStaleCursor = errors.New("store: stale session cursor")

// WriteSession upserts the raw session row and recomputes its index
// row from the same payload, in one transaction. Either both land or
// neither does; the index must never drift from the base table.
func (s *Store) WriteSession(sess *models.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("store: write session: id is required")
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("store: marshal session %s: %w", sess.ID, err)
	}

	row := models.SessionRow{
		ID:        sess.ID,
		ProjectID: sess.ProjectID,
		ParentID:  sess.ParentID,
		Created:   sess.Time.Created,
		Updated:   sess.Time.Updated,
		Data:      string(payload),
	}
	index, err := indexRow(sess)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"project_id", "parent_id", "created_at", "updated_at", "data",
			}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"project_id", "parent_id", "title", "directory", "version",
				"created_at", "updated_at", "archived_at",
				"additions", "deletions", "files",
				"share_url", "worktree_path", "worktree_branch", "data",
			}),
		}).Create(&index).Error; err != nil {
			return fmt.Errorf("upsert session index: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: write session %s: %w", sess.ID, err)
	}
	return nil
}

// indexRow derives the denormalized index row from a session payload.
func indexRow(sess *models.Session) (models.SessionIndexRow, error) {
	extra := "{}"
	if len(sess.Extra) > 0 {
		data, err := json.Marshal(sess.Extra)
		if err != nil {
			return models.SessionIndexRow{}, fmt.Errorf("store: marshal session %s extra: %w", sess.ID, err)
		}
		extra = string(data)
	}

	row := models.SessionIndexRow{
		ID:        sess.ID,
		ProjectID: sess.ProjectID,
		ParentID:  sess.ParentID,
		Title:     sess.Title,
		Directory: sess.Directory,
		Version:   sess.Version,
		Created:   sess.Time.Created,
		Updated:   sess.Time.Updated,
		Archived:  sess.Time.Archived,
		Data:      extra,
	}
	if sess.Summary != nil {
		row.Additions = sess.Summary.Additions
		row.Deletions = sess.Summary.Deletions
		row.Files = sess.Summary.Files
	}
	if sess.Share != nil {
		row.ShareURL = sess.Share.URL
	}
	if sess.Worktree != nil {
		row.WorktreePath = sess.Worktree.Path
		row.WorktreeBranch = sess.Worktree.Branch
	}
	return row, nil
}

// ReadSession loads one session payload by id.
func (s *Store) ReadSession(id string) (*models.Session, error) {
	var row models.SessionRow
	if err := s.db.First(&row, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("store: read session %s: %w", id, err)
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(row.Data), &sess); err != nil {
		return nil, fmt.Errorf("store: decode session %s: %w", id, err)
	}
	return &sess, nil
}

// ListSessions returns every session payload for a project, newest
// first.
func (s *Store) ListSessions(projectID string) ([]models.Session, error) {
	var rows []models.SessionRow
	if err := s.db.Where("project_id = ?", projectID).
		Order("updated_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list sessions for %s: %w", projectID, err)
	}
	sessions := make([]models.Session, 0, len(rows))
	for _, row := range rows {
		var sess models.Session
		if err := json.Unmarshal([]byte(row.Data), &sess); err != nil {
			return nil, fmt.Errorf("store: decode session %s: %w", row.ID, err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// SessionQuery filters and pages a ListSessionIndex call. AfterID is a
// cursor: results continue strictly after that session in
// (updated_at DESC, id DESC) order.
type SessionQuery struct {
	ProjectID       string
	UpdatedAfter    int64
	Title           string
	Directory       string
	IncludeArchived bool
	AfterID         string
	Limit           int
}

// ListSessionIndex lists denormalized session rows matching the query,
// ordered updated_at DESC, id DESC. The cursor is resolved to an
// (updated_at, id) pair and compared as a tuple so ties on updated_at
// neither skip nor duplicate rows across pages. A cursor that no
// longer resolves yields ErrStaleCursor.
func (s *Store) ListSessionIndex(q SessionQuery) ([]models.SessionIndexRow, error) {
	tx := s.db.Model(&models.SessionIndexRow{})
	if q.ProjectID != "" {
		tx = tx.Where("project_id = ?", q.ProjectID)
	}
	if q.UpdatedAfter > 0 {
		tx = tx.Where("updated_at >= ?", q.UpdatedAfter)
	}
	if q.Title != "" {
		tx = tx.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q.Title)+"%")
	}
	if q.Directory != "" {
		tx = tx.Where("directory = ?", q.Directory)
	}
	if !q.IncludeArchived {
		tx = tx.Where("archived_at = 0")
	}
	if q.AfterID != "" {
		var cursor models.SessionIndexRow
		err := s.db.Select("id", "updated_at").First(&cursor, "id = ?", q.AfterID).Error
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: %s", ErrStaleCursor, q.AfterID)
		}
		if err != nil {
			return nil, fmt.Errorf("store: resolve cursor %s: %w", q.AfterID, err)
		}
		tx = tx.Where("updated_at < ? OR (updated_at = ? AND id < ?)",
			cursor.Updated, cursor.Updated, cursor.ID)
	}
	tx = tx.Order("updated_at DESC, id DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []models.SessionIndexRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list session index: %w", err)
	}
	return rows, nil
}

// RemoveSession deletes the session row, its index row, and its cached
// diff. Messages are retained on purpose: conversation history
// outlives the session record.
func (s *Store) RemoveSession(id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.SessionIndexRow{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete index row: %w", err)
		}
		if err := tx.Delete(&models.SessionDiffRow{}, "session_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete diff row: %w", err)
		}
		if err := tx.Delete(&models.SessionRow{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete session row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: remove session %s: %w", id, err)
	}
	return nil
}
