// Package store is the durable home of sessions, messages, and message
// parts. All filtering and sorting runs against denormalized columns;
// the JSON blobs are opaque payloads. Consumers never issue raw SQL
// against these tables from outside this package.
package store

import "gorm.io/gorm"

// Store wraps the process-wide database handle. Construct one with New
// and inject it; the handle is owned by the process for its lifetime.
type Store struct {
	db *gorm.DB
}

// New returns a Store over an opened database handle.
func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// DB exposes the underlying handle for migration plumbing. Query and
// write paths must go through the Store methods.
func (s *Store) DB() *gorm.DB {
	return s.db
}
