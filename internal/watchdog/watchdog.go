// Package watchdog provides the reset guard armed around each boot phase.
//
// An armed watchdog that is not disarmed before its timeout elapses resets
// the device. On the host the "device" is either the board (through
// /dev/watchdog) or the agent process (Soft). Expired is closed when that
// happens so callers parked on it can unwind.
package watchdog

import (
	"errors"
	"time"
)

var (
	// ErrExpired reports that an armed watchdog ran out.
	ErrExpired = errors.New("watchdog expired")
	// ErrClosed is returned by Arm after Close.
	ErrClosed = errors.New("watchdog closed")
)

// Watchdog is implemented by Soft and Supervised.
type Watchdog interface {
	Arm(timeout time.Duration) error
	Disarm() error
	Expired() <-chan struct{}
	Close() error
}
