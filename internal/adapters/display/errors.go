package display

import "errors"

// Sentinel kinds for display errors.
var (
	ErrEncode       = errors.New("frame encode failed")
	ErrNoFrame      = errors.New("no frame rendered yet")
	ErrNotStreaming = errors.New("response writer cannot stream")
)
