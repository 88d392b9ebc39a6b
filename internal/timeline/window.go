package timeline

import "time"

// Visible returns the windowed slice of a session's history: the most
// recent window-size entries. A window that was expanded for scrollback
// collapses to the base size once the user has been back at the bottom
// for the collapse interval.
func (t *Timeline) Visible(sessionID string) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.session(sessionID)

	if v.atBottom && v.window > t.opts.WindowBase &&
		time.Since(v.expandedAt) > t.opts.CollapseAfter {
		v.window = t.opts.WindowBase
	}

	n := len(v.entries)
	if n <= v.window {
		out := make([]Entry, n)
		copy(out, v.entries)
		return out
	}
	out := make([]Entry, v.window)
	copy(out, v.entries[n-v.window:])
	return out
}

// Expand grows the window by one increment, called as the user scrolls
// toward older history.
func (t *Timeline) Expand(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.session(sessionID)
	v.window += t.opts.WindowIncrement
	v.atBottom = false
	v.expandedAt = time.Now()
}

// MarkBottom records that the user is viewing the latest messages
// again, starting the collapse clock.
func (t *Timeline) MarkBottom(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.session(sessionID)
	if !v.atBottom {
		v.atBottom = true
		v.expandedAt = time.Now()
	}
}

// More reports whether the server still holds messages older than the
// locally materialized sequence.
func (t *Timeline) More(sessionID string) bool {
	t.mu.Lock()
	v := t.session(sessionID)
	local := int64(len(v.entries))
	exhausted := v.exhausted
	t.mu.Unlock()

	if exhausted {
		return false
	}
	if t.opts.Count == nil {
		return false
	}
	total, err := t.opts.Count(sessionID)
	if err != nil {
		return false
	}
	return total > local
}

// FetchOlder loads the next older batch for a session. Calls are
// debounced, and at most one fetch per session is in flight: later
// callers block on the same result instead of issuing a second
// request. Already-merged data is never rolled back; a failed fetch
// only loses the pending batch.
func (t *Timeline) FetchOlder(sessionID string, limit int) error {
	if t.opts.Fetch == nil {
		return nil
	}

	t.mu.Lock()
	v := t.session(sessionID)
	if v.inflight != nil {
		// Share the in-flight request's result instead of issuing
		// another.
		f := v.inflight
		t.mu.Unlock()
		<-f.done
		return f.err
	}
	if v.exhausted || time.Since(v.lastFetch) < t.opts.FetchDebounce {
		t.mu.Unlock()
		return nil
	}
	beforeID := ""
	if len(v.entries) > 0 {
		beforeID = v.entries[0].ID
	}
	f := &flight{done: make(chan struct{})}
	v.inflight = f
	t.mu.Unlock()

	items, err := t.opts.Fetch(sessionID, beforeID, limit)
	if err == nil && len(items) > 0 {
		// A freshly fetched contiguous window replaces its range.
		t.MergeMessages(sessionID, items, true)
	}

	t.mu.Lock()
	v.lastFetch = time.Now()
	v.inflight = nil
	if err == nil && len(items) < limit {
		v.exhausted = true
	}
	t.mu.Unlock()

	f.err = err
	close(f.done)
	return err
}
