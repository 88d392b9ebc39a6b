// Package db opens and migrates the embedded storage database.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FileName is the database file under the data directory.
const FileName = "storage-v2.db"

// DSN builds the sqlite DSN for the database at path. Write-ahead
// logging, relaxed synchronous durability and an enlarged page cache
// favor write throughput for a single local writer; the snapshot
// engine provides the independent recovery path for file content.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=-64000&_busy_timeout=5000", path)
}

// Open opens (creating if needed) the database at path and returns a
// GORM handle. The handle is meant to be opened once per process and
// injected into consumers.
func Open(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("db: create data directory: %w", err)
	}
	gdb, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", path, err)
	}
	return gdb, nil
}
