package core

import (
	"context"

	"github.com/google/uuid"
)

// Status is the processing state of a queue item. Values are persisted in
// session records, so they must stay stable across releases.
type Status string

const (
	// StatusPending indicates the item is queued and ready to be started
	StatusPending Status = "pending"
	// StatusDownloading indicates a transfer attempt is in flight
	StatusDownloading Status = "downloading"
	// StatusAwaitingQuality indicates the item halted for a quality choice
	StatusAwaitingQuality Status = "awaiting_quality_selection"
	// StatusSending indicates the downloaded file is being uploaded to the chat
	StatusSending Status = "sending"
	// StatusCompleted indicates the item was delivered
	StatusCompleted Status = "completed"
	// StatusCancelled indicates the user cancelled the item
	StatusCancelled Status = "cancelled"
	// StatusParseFailed indicates the metadata probe failed; retryable via re-parse
	StatusParseFailed Status = "parse_failed"
	// StatusFailedLastAttempt indicates the last transfer attempt failed; retryable
	StatusFailedLastAttempt Status = "failed_last_attempt"
	// StatusFailed indicates a permanent failure (size limit)
	StatusFailed Status = "failed"
	// StatusFailedSending indicates the upload failed; retryable
	StatusFailedSending Status = "failed_sending"
	// StatusFailedInternal indicates an unexpected orchestration error; permanent
	StatusFailedInternal Status = "failed_internal"
)

// statusTransitions is the single authoritative definition of the state
// machine. Anything not listed here is rejected.
var statusTransitions = map[Status][]Status{
	StatusPending:           {StatusDownloading, StatusParseFailed, StatusCancelled, StatusFailedInternal},
	StatusDownloading:       {StatusAwaitingQuality, StatusSending, StatusParseFailed, StatusFailedLastAttempt, StatusFailed, StatusCancelled, StatusFailedInternal},
	StatusAwaitingQuality:   {StatusDownloading, StatusPending, StatusCancelled, StatusFailedInternal},
	StatusSending:           {StatusCompleted, StatusFailedSending, StatusCancelled, StatusFailedInternal},
	StatusParseFailed:       {StatusPending, StatusCancelled, StatusFailedInternal},
	StatusFailedLastAttempt: {StatusDownloading, StatusCancelled, StatusFailedInternal},
	StatusFailedSending:     {StatusDownloading, StatusCancelled, StatusFailedInternal},
}

// Terminal reports whether the status is a final outcome. Terminal items are
// pruned from the queue by reconciliation.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed, StatusFailedInternal:
		return true
	default:
		return false
	}
}

// Retryable reports whether the user can act on the item again from the list.
func (s Status) Retryable() bool {
	return s == StatusParseFailed || s == StatusFailedLastAttempt || s == StatusFailedSending
}

// Startable reports whether a download can be started from this status.
func (s Status) Startable() bool {
	return s == StatusPending || s == StatusFailedLastAttempt || s == StatusFailedSending
}

// CanTransitionTo reports whether the state machine defines s -> to.
// Same-status transitions are always allowed.
func (s Status) CanTransitionTo(to Status) bool {
	if s == to {
		return true
	}
	for _, next := range statusTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Item is one submitted link and its processing state.
type Item struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Status Status `json:"status"`
	// Format is the selector used for the last or upcoming transfer attempt.
	// Empty until the first attempt; the default selector is applied then.
	Format string `json:"format,omitempty"`
	// Width and Height are the probed video dimensions, passed along with
	// the upload so clients render the player correctly.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	// StatusMessageID references the chat message reflecting this item's
	// progress. Empty until a transfer attempt starts.
	StatusMessageID string `json:"status_message_id,omitempty"`
}

// NewItem creates a pending item for a freshly submitted URL.
func NewItem(url, placeholderTitle string) *Item {
	return &Item{
		ID:     uuid.NewString(),
		URL:    url,
		Title:  placeholderTitle,
		Status: StatusPending,
	}
}

// SetStatus applies a status transition, rejecting undefined ones.
func (it *Item) SetStatus(to Status) error {
	if !it.Status.CanTransitionTo(to) {
		return ErrBadTransition
	}
	it.Status = to
	return nil
}

// ProbeResult holds the metadata a non-transferring probe produced.
type ProbeResult struct {
	Title     string
	Size      int64
	SizeKnown bool
	Width     int
	Height    int
}

// MediaFetcher probes metadata and transfers media to local storage.
type MediaFetcher interface {
	// Probe fetches title and estimated size without transferring data.
	Probe(ctx context.Context, url, format string) (*ProbeResult, error)
	// Fetch transfers the media into destDir and returns the local path.
	Fetch(ctx context.Context, url, format, destDir string) (string, error)
}

// Thumbnailer produces a still-frame thumbnail for a local video file.
// Failures are non-fatal to the pipeline.
type Thumbnailer interface {
	ExtractThumbnail(ctx context.Context, videoPath string) (string, error)
}

// SessionStore persists per-user sessions. Load returns (nil, nil) when no
// record exists for the user.
type SessionStore interface {
	Load(userID string) (*Session, error)
	Save(userID string, session *Session) error
	// UserIDs lists users with a persisted session, for startup rehydration.
	UserIDs() ([]string, error)
}

// FloodGate rate-limits inbound messages per user.
type FloodGate interface {
	CheckMessage(chatID, userID string) bool
}

// Metrics receives pipeline observations. All methods must be cheap and
// non-blocking.
type Metrics interface {
	RecordEnqueue()
	RecordProbe(status string)
	RecordTransfer(status string, seconds float64)
	RecordDelivery(kind, status string)
	RecordMirror(status string)
	RecordFailure(kind string)
	SetActiveSessions(count int)
	SetQueuedItems(count int)
}
