package models

// Message is the message info payload. It is immutable once
// Time.Completed is set; while streaming it is updated in place.
type Message struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionID"`
	Role      string      `json:"role"`
	ParentID  string      `json:"parentID,omitempty"`
	Time      MessageTime `json:"time"`
	Agent     string      `json:"agent,omitempty"`
	Model     string      `json:"model,omitempty"`
}

// MessageTime holds unix-millisecond timestamps for a message.
type MessageTime struct {
	Created   int64 `json:"created"`
	Completed int64 `json:"completed,omitempty"`
}

// MessageWithParts is the full-load sync payload: one message and its
// parts in ascending id order.
type MessageWithParts struct {
	Info  Message `json:"info"`
	Parts []Part  `json:"parts"`
}

// MessageMeta annotates a message info with derived flags for list
// views that do not need part bodies.
type MessageMeta struct {
	Info         Message `json:"info"`
	HasReasoning bool    `json:"hasReasoning"`
}

// MessageRow is the messages table: JSON blob keyed by id, with
// composite indexes on (session_id, id) and (session_id, created_at).
type MessageRow struct {
	ID        string `gorm:"primaryKey;size:64;index:idx_messages_session_id,priority:2"`
	SessionID string `gorm:"size:64;not null;index:idx_messages_session_id,priority:1;index:idx_messages_session_created,priority:1"`
	Role      string `gorm:"size:16;not null"`
	Created   int64  `gorm:"column:created_at;not null;index:idx_messages_session_created,priority:2"`
	Data      string `gorm:"type:text;not null"`
}

// TableName pins the table name.
func (MessageRow) TableName() string { return "messages" }

// MessagePartRow is the message_parts table, keyed by
// (session_id, message_id, id) with the part type extracted for
// filtered reads.
type MessagePartRow struct {
	SessionID string `gorm:"primaryKey;size:64"`
	MessageID string `gorm:"primaryKey;size:64;index:idx_message_parts_type,priority:1"`
	ID        string `gorm:"primaryKey;size:64"`
	Type      string `gorm:"size:32;not null;index:idx_message_parts_type,priority:2"`
	Data      string `gorm:"type:text;not null"`
}

// TableName pins the table name.
func (MessagePartRow) TableName() string { return "message_parts" }
