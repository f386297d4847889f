package kiosk

import "errors"

// Sentinel errors for the kiosk state machine.
var (
	ErrUnknownMode = errors.New("unknown mode")
)
