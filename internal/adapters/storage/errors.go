package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrSaveFailed   = errors.New("save capture failed")
	ErrRenameFailed = errors.New("rename capture failed")
	ErrInvalidPath  = errors.New("invalid capture path")
)
