package classifier

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrClassify     = errors.New("classification failed")
	ErrModelLoading = errors.New("model is loading")
)
