package core

// Decision is the outcome of sizing a media item against the upload limits.
type Decision int

const (
	// ProceedAsVideo allows a direct video upload.
	ProceedAsVideo Decision = iota
	// ProceedAnyway continues even though the estimate exceeds the direct
	// video limit, because the user already picked a reduced format.
	ProceedAnyway
	// ProceedUnknown continues without a size estimate.
	ProceedUnknown
	// NeedsSelection asks the user to pick a reduced quality first.
	NeedsSelection
	// RejectTooLarge refuses the item outright.
	RejectTooLarge
)

func (d Decision) String() string {
	switch d {
	case ProceedAsVideo:
		return "proceed_as_video"
	case ProceedAnyway:
		return "proceed_anyway"
	case ProceedUnknown:
		return "proceed_unknown"
	case NeedsSelection:
		return "needs_selection"
	case RejectTooLarge:
		return "reject_too_large"
	default:
		return "unknown"
	}
}

// SizeResolver decides how to handle an item given its size in bytes. The
// same ruling applies to the pre-transfer estimate and to the real file size
// measured after the transfer.
type SizeResolver struct {
	// DirectVideoLimit is the largest size allowed through without a
	// quality prompt.
	DirectVideoLimit int64
	// HardUploadLimit is the absolute cap. Anything above it is rejected
	// no matter which format the user selects.
	HardUploadLimit int64
}

// Resolve rules on a size. sizeKnown is false when no estimate was
// available; defaultFormat is true while the item still carries the
// unmodified format selector.
func (r SizeResolver) Resolve(size int64, sizeKnown, defaultFormat bool) Decision {
	if !sizeKnown {
		return ProceedUnknown
	}
	if size > r.HardUploadLimit {
		return RejectTooLarge
	}
	if size <= r.DirectVideoLimit {
		return ProceedAsVideo
	}
	if defaultFormat {
		return NeedsSelection
	}
	return ProceedAnyway
}
