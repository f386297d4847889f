package trigger

import "errors"

// Sentinel kinds for trigger errors.
var (
	ErrHostInit    = errors.New("gpio host init failed")
	ErrPinNotFound = errors.New("gpio pin not found")
	ErrPinSetup    = errors.New("gpio pin setup failed")
)
