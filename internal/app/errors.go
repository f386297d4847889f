package service

import "errors"

// Sentinel errors for the kiosk service.
var (
	ErrNotRunning  = errors.New("kiosk service not running")
	ErrStart       = errors.New("kiosk service start failed")
	ErrUnsupported = errors.New("unsupported backend")
)
