package sensor

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// BME280 wraps the periph bmxx80 driver.
type BME280 struct {
	open    func() (i2c.Bus, error)
	release func() error
	addr    uint16
	logger  *slog.Logger

	dev *bmxx80.Dev
}

func newBME280(open func() (i2c.Bus, error), release func() error, addr uint16, logger *slog.Logger) *BME280 {
	return &BME280{open: open, release: release, addr: addr, logger: logger}
}

// Begin probes the chip; bmxx80 reads the chip ID and calibration on init.
func (b *BME280) Begin() (bool, error) {
	if b.dev != nil {
		return true, nil
	}
	bus, err := b.open()
	if err != nil {
		return false, err
	}
	dev, err := bmxx80.NewI2C(bus, b.addr, &bmxx80.DefaultOpts)
	if err != nil {
		return false, fmt.Errorf("bmxx80.NewI2C: %w", err)
	}
	b.dev = dev
	b.logger.Debug("bme280: device ready", "device", dev.String())
	return true, nil
}

func (b *BME280) ReadTemperature() (float64, error) {
	env, err := b.sense()
	if err != nil {
		return 0, err
	}
	return env.Temperature.Celsius(), nil
}

func (b *BME280) ReadHumidity() (float64, error) {
	env, err := b.sense()
	if err != nil {
		return 0, err
	}
	// env.Humidity is fixed point at a precision of 0.00001%rH.
	return float64(env.Humidity) / float64(physic.PercentRH), nil
}

func (b *BME280) Halt() error {
	var err error
	if b.dev != nil {
		err = b.dev.Halt()
		b.dev = nil
	}
	if b.release != nil {
		if rerr := b.release(); err == nil {
			err = rerr
		}
	}
	return err
}

func (b *BME280) sense() (physic.Env, error) {
	var env physic.Env
	if b.dev == nil {
		return env, ErrNotReady
	}
	if err := b.dev.Sense(&env); err != nil {
		return env, fmt.Errorf("bme280 sense: %w", err)
	}
	return env, nil
}
