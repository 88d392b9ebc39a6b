// Package ident generates the sortable identifiers used for sessions,
// messages, and message parts.
//
// Identifiers are a short type prefix followed by a UUIDv7 rendered as
// 32 hex characters. UUIDv7 is time-ordered and the generator is
// monotonic within a process, so ids compare lexicographically in
// creation order. Every pagination and merge decision in the store and
// timeline depends on that property.
package ident

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Identifier prefixes.
const (
	PrefixSession = "ses"
	PrefixMessage = "msg"
	PrefixPart    = "prt"
)

// idLen is the length of every generated id: prefix + "_" + 32 hex chars.
const idLen = 36

// New returns a fresh id for the given prefix. Ids generated later in
// the same process always compare greater than ids generated earlier.
func New(prefix string) (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("ident: new %s id: %w", prefix, err)
	}
	return prefix + "_" + strings.ReplaceAll(u.String(), "-", ""), nil
}

// Ascending reports whether a sorts strictly before b.
func Ascending(a, b string) bool {
	return a < b
}

// Valid reports whether id carries the given prefix and has the
// expected shape. It does not validate the embedded UUID bits.
func Valid(prefix, id string) bool {
	return len(id) == idLen && strings.HasPrefix(id, prefix+"_")
}

// Prefix returns the type prefix of id, or "" if id has no prefix.
func Prefix(id string) string {
	i := strings.IndexByte(id, '_')
	if i < 0 {
		return ""
	}
	return id[:i]
}
