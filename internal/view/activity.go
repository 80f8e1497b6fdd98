package view

import (
	"sync"
	"time"
)

// activityCap bounds the feed; the oldest entry is evicted on overflow.
const activityCap = 20

// ActivityEntry is one line in the activity feed.
type ActivityEntry struct {
	Time    time.Time
	Message string
}

// ActivityLog is a bounded, newest-first feed of admin events. It lives
// only as long as the process; the durable record is the audit store.
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
	now     func() time.Time
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{now: time.Now}
}

// Append prepends a timestamped entry, evicting from the tail so the
// feed never exceeds its cap.
func (l *ActivityLog) Append(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]ActivityEntry{{Time: l.now(), Message: msg}}, l.entries...)
	if len(l.entries) > activityCap {
		l.entries = l.entries[:activityCap]
	}
}

// Entries returns a copy of the feed, newest first.
func (l *ActivityLog) Entries() []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ActivityEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the current feed length.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
