package models

// Session is the full session payload stored as a JSON blob and served
// to clients. Fields not yet promoted to index columns live in Extra.
type Session struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"projectID"`
	ParentID  string           `json:"parentID,omitempty"`
	Directory string           `json:"directory"`
	Title     string           `json:"title"`
	Version   string           `json:"version,omitempty"`
	Time      SessionTime      `json:"time"`
	Summary   *SessionSummary  `json:"summary,omitempty"`
	Share     *SessionShare    `json:"share,omitempty"`
	Worktree  *SessionWorktree `json:"worktree,omitempty"`
	Extra     map[string]any   `json:"extra,omitempty"`
}

// SessionTime holds unix-millisecond timestamps for a session.
type SessionTime struct {
	Created  int64 `json:"created"`
	Updated  int64 `json:"updated"`
	Archived int64 `json:"archived,omitempty"`
}

// SessionSummary is the cumulative diff stat for a session.
type SessionSummary struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Files     int `json:"files"`
}

// SessionShare is set when a session has been published.
type SessionShare struct {
	URL string `json:"url"`
}

// SessionWorktree points at the managed worktree a sub-session runs in.
type SessionWorktree struct {
	Path   string `json:"path"`
	Branch string `json:"branch"`
}

// SessionRow is the sessions table: the raw JSON payload plus the
// columns needed for existence and listing checks without
// deserializing the blob.
type SessionRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	ProjectID string `gorm:"size:64;not null;index"`
	ParentID  string `gorm:"size:64;index"`
	Created   int64  `gorm:"column:created_at;not null"`
	Updated   int64  `gorm:"column:updated_at;not null;index"`
	Data      string `gorm:"type:text;not null"`
}

// TableName pins the table name.
func (SessionRow) TableName() string { return "sessions" }

// SessionIndexRow is the denormalized session_index table. Every
// column a list query filters or sorts on is promoted here; anything
// else rides in the Data bag. A write to sessions and its index row
// happen in the same transaction, always.
type SessionIndexRow struct {
	ID             string `gorm:"primaryKey;size:64"`
	ProjectID      string `gorm:"size:64;not null;index:idx_session_index_project"`
	ParentID       string `gorm:"size:64"`
	Title          string `gorm:"size:1024;not null"`
	Directory      string `gorm:"size:1024;not null"`
	Version        string `gorm:"size:32"`
	Created        int64  `gorm:"column:created_at;not null"`
	Updated        int64  `gorm:"column:updated_at;not null;index:idx_session_index_updated"`
	Archived       int64  `gorm:"column:archived_at"`
	Additions      int
	Deletions      int
	Files          int
	ShareURL       string `gorm:"size:1024"`
	WorktreePath   string `gorm:"size:1024"`
	WorktreeBranch string `gorm:"size:256"`
	Data           string `gorm:"type:text;not null"`
}

// TableName pins the table name.
func (SessionIndexRow) TableName() string { return "session_index" }

// SessionDiffRow caches the rendered diff for a session.
type SessionDiffRow struct {
	SessionID string `gorm:"primaryKey;size:64"`
	Updated   int64  `gorm:"column:updated_at;not null"`
	Data      string `gorm:"type:text;not null"`
}

// TableName pins the table name.
func (SessionDiffRow) TableName() string { return "session_diff" }
