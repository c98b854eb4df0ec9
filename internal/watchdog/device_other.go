//go:build !linux || tinygo

package watchdog

import (
	"errors"
	"log/slog"
	"time"
)

func OpenDevice(path string, shortest time.Duration, logger *slog.Logger) (*Supervised, error) {
	return nil, errors.New("watchdog device " + path + " is only supported on linux")
}
