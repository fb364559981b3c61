package core

import (
	"errors"
)

// Failure taxonomy for the pipeline. Callers classify collaborator failures
// into exactly one of these sentinels so the state machine can pick the
// matching item status, retryable or permanent.
var (
	// ErrProbeTimeout indicates the metadata probe exceeded its deadline.
	ErrProbeTimeout = errors.New("metadata probe timed out")
	// ErrProbeFailed indicates the metadata probe failed for any other reason.
	ErrProbeFailed = errors.New("metadata probe failed")
	// ErrTransferTimeout indicates the media transfer exceeded its deadline.
	ErrTransferTimeout = errors.New("media transfer timed out")
	// ErrTransferFailed indicates the media transfer failed for any other reason.
	ErrTransferFailed = errors.New("media transfer failed")
)

// Queue model errors.
var (
	// ErrActiveBusy indicates the session's active slot is already occupied.
	ErrActiveBusy = errors.New("another item is already active")
	// ErrItemNotFound indicates no queue item matches the requested ID.
	ErrItemNotFound = errors.New("item not found in queue")
	// ErrItemSuperseded indicates a newer action replaced the item this
	// pipeline run was started for.
	ErrItemSuperseded = errors.New("item superseded by a newer action")
	// ErrBadTransition indicates a state change the machine does not define.
	ErrBadTransition = errors.New("undefined status transition")
)
