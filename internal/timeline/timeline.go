// Package timeline reconciles server-paginated history and live
// incremental updates into one ordered, de-duplicated message sequence
// per session. Order is always derived from id comparison (ids are
// monotonically increasing strings), never from wall-clock timestamps.
package timeline

import (
	"sort"
	"sync"
	"time"
)

// Window defaults.
const (
	DefaultWindowBase      = 50
	DefaultWindowIncrement = 50
	DefaultCollapseAfter   = 2 * time.Minute
	DefaultFetchDebounce   = 250 * time.Millisecond
)

// Fetcher loads one page of messages older than beforeID from the
// server, newest first, at most limit entries.
type Fetcher func(sessionID, beforeID string, limit int) ([]Entry, error)

// Counter reports how many messages the server holds for a session.
type Counter func(sessionID string) (int64, error)

// Part is the minimal part shape the merger needs: an id to order by
// and an opaque payload.
type Part struct {
	ID      string
	Payload any
}

// Entry is one message in the sequence: an id to order by, the info
// payload, and its parts in ascending id order.
type Entry struct {
	ID      string
	Payload any
	Parts   []Part
}

// Options tunes a Timeline; zero values take the defaults above.
type Options struct {
	WindowBase      int
	WindowIncrement int
	CollapseAfter   time.Duration
	FetchDebounce   time.Duration
	Fetch           Fetcher
	Count           Counter
}

// Timeline holds the merged view for every open session.
type Timeline struct {
	mu       sync.Mutex
	opts     Options
	sessions map[string]*view
}

// view is one session's merged state.
type view struct {
	entries    []Entry // ascending by ID
	window     int
	atBottom   bool
	expandedAt time.Time
	lastFetch  time.Time
	exhausted  bool
	inflight   *flight // non-nil while a fetch is running
}

// flight is one in-progress fetch; waiters block on done and read err.
type flight struct {
	done chan struct{}
	err  error
}

// New builds a Timeline.
func New(opts Options) *Timeline {
	if opts.WindowBase <= 0 {
		opts.WindowBase = DefaultWindowBase
	}
	if opts.WindowIncrement <= 0 {
		opts.WindowIncrement = DefaultWindowIncrement
	}
	if opts.CollapseAfter <= 0 {
		opts.CollapseAfter = DefaultCollapseAfter
	}
	if opts.FetchDebounce <= 0 {
		opts.FetchDebounce = DefaultFetchDebounce
	}
	return &Timeline{opts: opts, sessions: make(map[string]*view)}
}

func (t *Timeline) session(id string) *view {
	v, ok := t.sessions[id]
	if !ok {
		v = &view{window: t.opts.WindowBase, atBottom: true}
		t.sessions[id] = v
	}
	return v
}

// MergeMessages folds a batch of entries into the session's sequence.
//
// Without prune, each entry is placed by binary search on id: an exact
// match overwrites in place (so a server acknowledgment replaces an
// optimistic local insert), otherwise the entry is inserted at its
// sorted position. With prune, used when loading a fresh contiguous
// window, the existing range spanned by the batch is replaced
// wholesale, preserving any prefix and suffix outside it.
func (t *Timeline) MergeMessages(sessionID string, items []Entry, prune bool) {
	if len(items) == 0 {
		return
	}
	sorted := make([]Entry, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.session(sessionID)

	if prune {
		lo := sort.Search(len(v.entries), func(i int) bool {
			return v.entries[i].ID >= sorted[0].ID
		})
		hi := sort.Search(len(v.entries), func(i int) bool {
			return v.entries[i].ID > sorted[len(sorted)-1].ID
		})
		merged := make([]Entry, 0, lo+len(sorted)+len(v.entries)-hi)
		merged = append(merged, v.entries[:lo]...)
		merged = append(merged, sorted...)
		merged = append(merged, v.entries[hi:]...)
		v.entries = merged
		return
	}

	for _, item := range sorted {
		i := sort.Search(len(v.entries), func(i int) bool {
			return v.entries[i].ID >= item.ID
		})
		if i < len(v.entries) && v.entries[i].ID == item.ID {
			v.entries[i] = item
			continue
		}
		v.entries = append(v.entries, Entry{})
		copy(v.entries[i+1:], v.entries[i:])
		v.entries[i] = item
	}
}

// Insert places one locally-originated entry before server
// acknowledgment. The authoritative copy later overwrites it in place
// through MergeMessages.
func (t *Timeline) Insert(sessionID string, item Entry) {
	t.MergeMessages(sessionID, []Entry{item}, false)
}

// MergeParts replaces a message's part list with the incoming set,
// sorted by id. Parts absent from the incoming set are dropped, so
// servers that compact or replace part lists atomically converge.
func (t *Timeline) MergeParts(sessionID, messageID string, parts []Part) {
	sorted := make([]Part, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.session(sessionID)
	i := sort.Search(len(v.entries), func(i int) bool {
		return v.entries[i].ID >= messageID
	})
	if i >= len(v.entries) || v.entries[i].ID != messageID {
		return
	}
	v.entries[i].Parts = sorted
}

// Len returns the number of materialized entries for a session.
func (t *Timeline) Len(sessionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.session(sessionID).entries)
}

// All returns a copy of the full materialized sequence, ascending.
func (t *Timeline) All(sessionID string) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.session(sessionID)
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}
