//go:build linux && !tinygo

package watchdog

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// OpenDevice opens a Linux watchdog character device and supervises it.
// shortest is the shortest window the device will be armed for; the hardware
// timeout is derived from it so a missed deadline resets the board promptly.
func OpenDevice(path string, shortest time.Duration, logger *slog.Logger) (*Supervised, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog %s: %w", path, err)
	}
	fd := int(f.Fd())

	want := hardwareTimeout(shortest)
	if err := unix.IoctlSetPointerInt(fd, unix.WDIOC_SETTIMEOUT, want); err != nil {
		logger.Warn("watchdog: set timeout not supported, using driver default", "device", path, "error", err)
	}
	secs, err := unix.IoctlGetInt(fd, unix.WDIOC_GETTIMEOUT)
	if err != nil || secs <= 0 {
		secs = want
	}
	hw := time.Duration(secs) * time.Second

	if hw > shortest {
		logger.Warn("watchdog: driver timeout exceeds shortest phase window, resets will be late",
			"device", path,
			"hw_timeout", hw,
			"shortest_window", shortest,
		)
	}
	logger.Info("watchdog: device opened", "device", path, "hw_timeout", hw)

	kick := func() error {
		_, err := f.Write([]byte{0})
		return err
	}
	release := func() error {
		// Magic close: 'V' tells the driver the close is intentional.
		if _, err := f.Write([]byte("V")); err != nil {
			_ = f.Close()
			return fmt.Errorf("watchdog magic close: %w", err)
		}
		return f.Close()
	}
	return NewSupervised(kick, release, kickInterval(hw), logger), nil
}
