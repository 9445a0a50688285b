// Package history keeps a bounded in-memory log of recent scans for the
// operator console.
package history

import (
	"sync"

	"stagepass/internal/verify/models"
)

// DefaultLimit is how many recent scans the log retains.
const DefaultLimit = 20

// Log is a fixed-capacity scan log. When full, the oldest entry is dropped.
// Safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	limit   int
	entries []models.VerificationResult
}

// NewLog creates a log retaining the most recent limit scans. A non-positive
// limit falls back to DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{
		limit:   limit,
		entries: make([]models.VerificationResult, 0, limit),
	}
}

// Append records a scan result, evicting the oldest entry when the log is
// full.
func (l *Log) Append(result models.VerificationResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.limit-1]
	}
	l.entries = append(l.entries, result)
}

// Recent returns the retained scans, newest first.
func (l *Log) Recent() []models.VerificationResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.VerificationResult, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

// Len returns the number of retained scans.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops all retained scans.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}
