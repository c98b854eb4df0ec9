//go:build tinygo

package watchdog

import (
	"log/slog"
	"machine"
	"time"
)

// machineWindow is short enough for every TinyGo watchdog peripheral.
const machineWindow = 4 * time.Second

// StartMachine configures the chip watchdog and supervises it. The chip
// watchdog cannot be stopped once started: Close stops feeding, which
// resets the chip one window later.
func StartMachine(logger *slog.Logger) (*Supervised, error) {
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{
		TimeoutMillis: uint32(machineWindow / time.Millisecond),
	}); err != nil {
		return nil, err
	}
	if err := machine.Watchdog.Start(); err != nil {
		return nil, err
	}
	kick := func() error {
		machine.Watchdog.Update()
		return nil
	}
	return NewSupervised(kick, nil, machineWindow/4, logger), nil
}
