// Package watcher holds the change-detection core: normalized snapshots per
// monitored URL, a bounded history of detected changes, and the detector
// that transitions between them.
package watcher

import (
	"errors"
	"time"
)

// Outcome classifies one observation of a URL.
type Outcome string

const (
	// OutcomeFirstSeen means no snapshot existed for the URL before this call.
	OutcomeFirstSeen Outcome = "first_seen"
	// OutcomeUnchanged means the fingerprint matched the stored snapshot.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeChanged means the content differs and a ChangeRecord was logged.
	OutcomeChanged Outcome = "changed"
)

var (
	// ErrEmptyContent is returned when an observation carries no content.
	// The stored state is left untouched so a failed fetch never reads as a
	// page deletion.
	ErrEmptyContent = errors.New("watcher: empty content")

	// ErrNotFound is returned when a URL, snapshot or change record does not exist.
	ErrNotFound = errors.New("watcher: not found")

	// ErrAlreadyMonitored is returned when adding a URL that is already tracked.
	ErrAlreadyMonitored = errors.New("watcher: url already monitored")
)

// Snapshot is the latest known normalized content for one URL.
// Exactly one exists per monitored URL; it is overwritten in place when a
// change is confirmed and never historized itself.
type Snapshot struct {
	URL         string `json:"url"`
	Fingerprint int32  `json:"fingerprint"`
	Content     string `json:"content"`
}

// ChangeRecord captures the before/after content at one detected change.
// Immutable once created.
type ChangeRecord struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Timestamp  time.Time `json:"timestamp"`
	OldContent string    `json:"old_content"`
	NewContent string    `json:"new_content"`
}

// State is the full persistable state of the watcher: which URLs are
// monitored (in insertion order), their current snapshots, and the bounded
// change history per URL (oldest first).
type State struct {
	MonitoredURLs []string                  `json:"monitored_urls"`
	Snapshots     map[string]Snapshot       `json:"snapshots"`
	History       map[string][]ChangeRecord `json:"history"`
}

// NewState returns an empty State with initialized maps.
func NewState() State {
	return State{
		Snapshots: make(map[string]Snapshot),
		History:   make(map[string][]ChangeRecord),
	}
}
