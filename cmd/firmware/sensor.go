//go:build tinygo

package main

import (
	"machine"

	"tinygo.org/x/drivers/bme280"
)

// bmeSensor reads a BME280 on I2C1.
type bmeSensor struct {
	device     bme280.Device
	configured bool
}

func newSensor() *bmeSensor {
	return &bmeSensor{}
}

func (s *bmeSensor) Begin() (bool, error) {
	if !s.configured {
		i2c := machine.I2C1
		if err := i2c.Configure(machine.I2CConfig{
			SDA:       machine.GP26,
			SCL:       machine.GP27,
			Frequency: 400 * machine.KHz,
		}); err != nil {
			return false, err
		}
		s.device = bme280.New(i2c)
		s.configured = true
	}
	if !s.device.Connected() {
		return false, nil
	}
	s.device.Configure()
	return true, nil
}

// ReadTemperature returns °C; the driver reports milli-degrees.
func (s *bmeSensor) ReadTemperature() (float64, error) {
	t, err := s.device.ReadTemperature()
	if err != nil {
		return 0, err
	}
	return float64(t) / 1000.0, nil
}

// ReadHumidity returns %RH; the driver reports hundredths of a percent.
func (s *bmeSensor) ReadHumidity() (float64, error) {
	h, err := s.device.ReadHumidity()
	if err != nil {
		return 0, err
	}
	return float64(h) / 100.0, nil
}
