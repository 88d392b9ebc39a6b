package store

import (
	"encoding/json"
	"fmt"

	"github.com/holdfast-dev/holdfast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WriteMessage upserts one message info blob. Streaming updates
// rewrite the row in place; once completed a message is never written
// again.
func (s *Store) WriteMessage(msg *models.Message) error {
	if msg.ID == "" || msg.SessionID == "" {
		return fmt.Errorf("store: write message: id and sessionID are required")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("store: marshal message %s: %w", msg.ID, err)
	}
	row := models.MessageRow{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Created:   msg.Time.Created,
		Data:      string(payload),
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"session_id", "role", "created_at", "data",
		}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("store: write message %s: %w", msg.ID, err)
	}
	return nil
}

// WriteParts upserts a batch of parts in one transaction.
func (s *Store) WriteParts(parts []models.Part) error {
	if len(parts) == 0 {
		return nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range parts {
			p := &parts[i]
			if p.ID == "" || p.MessageID == "" || p.SessionID == "" {
				return fmt.Errorf("part %d: id, messageID and sessionID are required", i)
			}
			payload, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshal part %s: %w", p.ID, err)
			}
			row := models.MessagePartRow{
				SessionID: p.SessionID,
				MessageID: p.MessageID,
				ID:        p.ID,
				Type:      p.Type,
				Data:      string(payload),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "session_id"}, {Name: "message_id"}, {Name: "id"},
				},
				DoUpdates: clause.AssignmentColumns([]string{"type", "data"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("upsert part %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: write parts: %w", err)
	}
	return nil
}

// MessageQuery pages messages of one session. BeforeID is the history
// cursor: only messages with id strictly below it come back, newest
// first. AfterID flips the page into a live tail: only messages with
// id strictly above it, oldest first, so consumers can advance a
// high-water mark in order. IncludeTypes and ExcludeTypes filter
// joined parts by type; they are mutually exclusive and IncludeTypes
// wins when both are set.
type MessageQuery struct {
	SessionID    string
	BeforeID     string
	AfterID      string
	Limit        int
	IncludeTypes []string
	ExcludeTypes []string
}

// ListMessagesPage returns one descending page of message infos.
func (s *Store) ListMessagesPage(q MessageQuery) ([]models.Message, error) {
	rows, err := s.messagePage(q)
	if err != nil {
		return nil, err
	}
	infos := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		var msg models.Message
		if err := json.Unmarshal([]byte(row.Data), &msg); err != nil {
			return nil, fmt.Errorf("store: decode message %s: %w", row.ID, err)
		}
		infos = append(infos, msg)
	}
	return infos, nil
}

// ListMessagesInfoPage returns one descending page of message infos
// annotated with a has-reasoning flag, computed with a correlated
// existence check so part bodies are never loaded.
func (s *Store) ListMessagesInfoPage(q MessageQuery) ([]models.MessageMeta, error) {
	tx := s.db.Model(&models.MessageRow{}).
		Select("messages.*, EXISTS("+
			"SELECT 1 FROM message_parts p WHERE p.session_id = messages.session_id "+
			"AND p.message_id = messages.id AND p.type = ?) AS has_reasoning",
			models.PartTypeReasoning).
		Where("session_id = ?", q.SessionID)
	if q.AfterID != "" {
		tx = tx.Where("id > ?", q.AfterID).Order("id ASC")
	} else {
		if q.BeforeID != "" {
			tx = tx.Where("id < ?", q.BeforeID)
		}
		tx = tx.Order("id DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []struct {
		models.MessageRow
		HasReasoning bool
	}
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list message infos for %s: %w", q.SessionID, err)
	}

	metas := make([]models.MessageMeta, 0, len(rows))
	for _, row := range rows {
		var msg models.Message
		if err := json.Unmarshal([]byte(row.Data), &msg); err != nil {
			return nil, fmt.Errorf("store: decode message %s: %w", row.ID, err)
		}
		metas = append(metas, models.MessageMeta{Info: msg, HasReasoning: row.HasReasoning})
	}
	return metas, nil
}

// ListMessagesWithPartsPage returns one descending page of messages
// joined with their parts. Pages come back newest-first; within each
// message, parts stay in ascending id order.
func (s *Store) ListMessagesWithPartsPage(q MessageQuery) ([]models.MessageWithParts, error) {
	rows, err := s.messagePage(q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	ptx := s.db.Where("session_id = ? AND message_id IN ?", q.SessionID, ids)
	if len(q.IncludeTypes) > 0 {
		ptx = ptx.Where("type IN ?", q.IncludeTypes)
	} else if len(q.ExcludeTypes) > 0 {
		ptx = ptx.Where("type NOT IN ?", q.ExcludeTypes)
	}
	var partRows []models.MessagePartRow
	if err := ptx.Order("id ASC").Find(&partRows).Error; err != nil {
		return nil, fmt.Errorf("store: list parts for %s: %w", q.SessionID, err)
	}

	byMessage := make(map[string][]models.Part, len(rows))
	for _, row := range partRows {
		var part models.Part
		if err := json.Unmarshal([]byte(row.Data), &part); err != nil {
			return nil, fmt.Errorf("store: decode part %s: %w", row.ID, err)
		}
		byMessage[row.MessageID] = append(byMessage[row.MessageID], part)
	}

	out := make([]models.MessageWithParts, 0, len(rows))
	for _, row := range rows {
		var msg models.Message
		if err := json.Unmarshal([]byte(row.Data), &msg); err != nil {
			return nil, fmt.Errorf("store: decode message %s: %w", row.ID, err)
		}
		out = append(out, models.MessageWithParts{Info: msg, Parts: byMessage[row.ID]})
	}
	return out, nil
}

// messagePage fetches one page of raw message rows: descending for
// history paging, ascending when tailing past AfterID.
func (s *Store) messagePage(q MessageQuery) ([]models.MessageRow, error) {
	if q.SessionID == "" {
		return nil, fmt.Errorf("store: list messages: sessionID is required")
	}
	tx := s.db.Where("session_id = ?", q.SessionID)
	if q.AfterID != "" {
		tx = tx.Where("id > ?", q.AfterID).Order("id ASC")
	} else {
		if q.BeforeID != "" {
			tx = tx.Where("id < ?", q.BeforeID)
		}
		tx = tx.Order("id DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var rows []models.MessageRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list messages for %s: %w", q.SessionID, err)
	}
	return rows, nil
}

// ListParts returns every part of one message in ascending id order.
func (s *Store) ListParts(sessionID, messageID string) ([]models.Part, error) {
	var rows []models.MessagePartRow
	if err := s.db.Where("session_id = ? AND message_id = ?", sessionID, messageID).
		Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: list parts for %s: %w", messageID, err)
	}
	parts := make([]models.Part, 0, len(rows))
	for _, row := range rows {
		var part models.Part
		if err := json.Unmarshal([]byte(row.Data), &part); err != nil {
			return nil, fmt.Errorf("store: decode part %s: %w", row.ID, err)
		}
		parts = append(parts, part)
	}
	return parts, nil
}

// CountMessages returns the number of messages stored for a session.
func (s *Store) CountMessages(sessionID string) (int64, error) {
	var n int64
	if err := s.db.Model(&models.MessageRow{}).
		Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count messages for %s: %w", sessionID, err)
	}
	return n, nil
}

// RemoveMessage deletes one message and its parts.
func (s *Store) RemoveMessage(sessionID, id string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.MessagePartRow{},
			"session_id = ? AND message_id = ?", sessionID, id).Error; err != nil {
			return fmt.Errorf("delete parts: %w", err)
		}
		if err := tx.Delete(&models.MessageRow{},
			"session_id = ? AND id = ?", sessionID, id).Error; err != nil {
			return fmt.Errorf("delete message: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: remove message %s: %w", id, err)
	}
	return nil
}

// RemoveMessages deletes a batch of messages and their parts.
func (s *Store) RemoveMessages(sessionID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.MessagePartRow{},
			"session_id = ? AND message_id IN ?", sessionID, ids).Error; err != nil {
			return fmt.Errorf("delete parts: %w", err)
		}
		if err := tx.Delete(&models.MessageRow{},
			"session_id = ? AND id IN ?", sessionID, ids).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: remove messages for %s: %w", sessionID, err)
	}
	return nil
}
