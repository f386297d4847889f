package capture

import "errors"

// Sentinel errors for the capture pipeline.
var (
	// ErrPersist wraps storage failures while saving or renaming a capture.
	ErrPersist = errors.New("persist capture")
)
