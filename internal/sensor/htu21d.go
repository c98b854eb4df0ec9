package sensor

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"

	"cloudpico-reporter/internal/utils"
)

const (
	htuCmdTriggerTemp = 0xF3 // no-hold master
	htuCmdTriggerHum  = 0xF5 // no-hold master
	htuCmdReadUserReg = 0xE7
	htuCmdSoftReset   = 0xFE

	// htuUserRegDefault is the user register value after soft reset.
	htuUserRegDefault = 0x02

	htuResetDelay      = 15 * time.Millisecond
	htuConversionDelay = 50 * time.Millisecond
)

// HTU21D is a TE HTU21D(F) humidity/temperature sensor on I²C.
type HTU21D struct {
	open    func() (i2c.Bus, error)
	release func() error
	addr    uint16
	logger  *slog.Logger

	dev   *i2c.Dev
	ready bool

	resetDelay      time.Duration
	conversionDelay time.Duration
}

// NewHTU21D returns a driver on an already open bus.
func NewHTU21D(bus i2c.Bus, addr uint16, logger *slog.Logger) *HTU21D {
	return newHTU21D(func() (i2c.Bus, error) { return bus, nil }, nil, addr, logger)
}

func newHTU21D(open func() (i2c.Bus, error), release func() error, addr uint16, logger *slog.Logger) *HTU21D {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTU21D{
		open:            open,
		release:         release,
		addr:            addr,
		logger:          logger,
		resetDelay:      htuResetDelay,
		conversionDelay: htuConversionDelay,
	}
}

// Begin soft-resets the sensor and checks the user register holds its
// power-on default.
func (h *HTU21D) Begin() (bool, error) {
	if h.dev == nil {
		bus, err := h.open()
		if err != nil {
			return false, err
		}
		h.dev = &i2c.Dev{Bus: bus, Addr: h.addr}
	}

	if err := h.dev.Tx([]byte{htuCmdSoftReset}, nil); err != nil {
		return false, fmt.Errorf("htu21d soft reset: %w", err)
	}
	time.Sleep(h.resetDelay)

	var reg [1]byte
	if err := h.dev.Tx([]byte{htuCmdReadUserReg}, reg[:]); err != nil {
		return false, fmt.Errorf("htu21d read user register: %w", err)
	}
	h.ready = reg[0] == htuUserRegDefault
	if !h.ready {
		h.logger.Debug("htu21d: unexpected user register", "value", utils.BytesToHex(reg[:]))
	}
	return h.ready, nil
}

// ReadTemperature returns degrees Celsius.
func (h *HTU21D) ReadTemperature() (float64, error) {
	raw, err := h.measure(htuCmdTriggerTemp)
	if err != nil {
		return 0, fmt.Errorf("htu21d temperature: %w", err)
	}
	return -46.85 + 175.72*float64(raw)/65536, nil
}

// ReadHumidity returns relative humidity in percent.
func (h *HTU21D) ReadHumidity() (float64, error) {
	raw, err := h.measure(htuCmdTriggerHum)
	if err != nil {
		return 0, fmt.Errorf("htu21d humidity: %w", err)
	}
	return -6 + 125*float64(raw)/65536, nil
}

func (h *HTU21D) Halt() error {
	h.ready = false
	if h.release != nil {
		return h.release()
	}
	return nil
}

func (h *HTU21D) measure(cmd byte) (uint16, error) {
	if !h.ready {
		return 0, ErrNotReady
	}
	if err := h.dev.Tx([]byte{cmd}, nil); err != nil {
		return 0, err
	}
	time.Sleep(h.conversionDelay)

	var frame [3]byte
	if err := h.dev.Tx(nil, frame[:]); err != nil {
		return 0, err
	}
	h.logger.Debug("htu21d: frame", "cmd", utils.BytesToHex([]byte{cmd}), "data", utils.BytesToHex(frame[:]))

	if crc8(frame[:2]) != frame[2] {
		return 0, ErrCRC
	}
	// The two low bits are status bits.
	raw := (uint16(frame[0])<<8 | uint16(frame[1])) &^ 0x03
	return raw, nil
}

// crc8 is the HTU21D checksum: polynomial x^8+x^5+x^4+1, initial value 0.
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
