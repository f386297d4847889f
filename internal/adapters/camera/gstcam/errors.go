package gstcam

import "errors"

// Sentinel kinds for camera errors.
var (
	ErrPipeline = errors.New("camera pipeline error")
)
