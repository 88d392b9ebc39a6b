package models

// Meta is a key/value settings table used for one-time migration and
// backfill flags.
type Meta struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:256;not null"`
}

// TableName pins the table name.
func (Meta) TableName() string { return "meta" }
