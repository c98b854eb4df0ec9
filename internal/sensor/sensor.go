// Package sensor holds the temperature/humidity drivers used in the sensor
// bring-up and measurement phases.
package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"cloudpico-reporter/internal/config"
)

var (
	// ErrNotReady is returned by reads before Begin has succeeded.
	ErrNotReady = errors.New("sensor not ready")
	// ErrCRC is returned when a measurement frame fails its checksum.
	ErrCRC = errors.New("sensor crc mismatch")
)

// Sensor reports readiness and returns °C and %RH.
type Sensor interface {
	Begin() (bool, error)
	ReadTemperature() (float64, error)
	ReadHumidity() (float64, error)
	Halt() error
}

// Open returns the driver named by cfg.SensorDriver. No hardware is touched
// until Begin, so bus errors surface inside the guarded bring-up phase.
func Open(cfg config.Config, logger *slog.Logger) (Sensor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bus := &lazyBus{name: cfg.I2CBus}

	switch cfg.SensorDriver {
	case "htu21d":
		return newHTU21D(bus.get, bus.Close, cfg.SensorAddress, logger), nil
	case "bme280":
		return newBME280(bus.get, bus.Close, cfg.SensorAddress, logger), nil
	case "dummy":
		return NewDummy(22.5, 48.0), nil
	default:
		return nil, fmt.Errorf("unknown sensor driver %q", cfg.SensorDriver)
	}
}

// lazyBus opens the I²C bus on first use.
type lazyBus struct {
	name string

	mu  sync.Mutex
	bus i2c.BusCloser
}

func (b *lazyBus) get() (i2c.Bus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus != nil {
		return b.bus, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host.Init: %w", err)
	}
	bus, err := i2creg.Open(b.name) // "" is the default bus, usually /dev/i2c-1
	if err != nil {
		return nil, fmt.Errorf("i2creg.Open: %w", err)
	}
	b.bus = bus
	return bus, nil
}

func (b *lazyBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	return err
}
