// Package boot runs the watchdog-guarded boot sequence: sensor bring-up,
// network association, then one measurement posted to the endpoint.
//
// Each phase arms the watchdog before it starts. The first two disarm it on
// success. The report phase leaves it armed, so the device resets one
// report window later and the whole sequence runs again with a fresh
// reading. A phase that cannot finish returns a *PhaseError; the watchdog
// is still armed and the caller is expected to Park until it fires.
package boot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"cloudpico-reporter/internal/report"
	"cloudpico-reporter/internal/types"
	"cloudpico-reporter/internal/watchdog"
)

type Phase int

const (
	PhaseSensor Phase = iota + 1
	PhaseNetwork
	PhaseReport
)

func (p Phase) String() string {
	switch p {
	case PhaseSensor:
		return "sensor"
	case PhaseNetwork:
		return "network"
	case PhaseReport:
		return "report"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// PhaseError reports the phase a boot cycle stopped in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

type Sensor interface {
	Begin() (bool, error)
	ReadTemperature() (float64, error)
	ReadHumidity() (float64, error)
}

type Network interface {
	Associate(ctx context.Context, ssid string) error
	Status() (types.LinkStatus, error)
	LocalAddr() (netip.Addr, error)
}

type Reporter interface {
	Host() string
	Send(ctx context.Context, reading report.Reading) (int, error)
}

// Mirror receives a copy of the reading after the report is sent.
type Mirror interface {
	Mirror(ctx context.Context, reading report.Reading) error
}

type Timeouts struct {
	Sensor  time.Duration
	Network time.Duration
	Report  time.Duration
	// Settle is the pause between association and the report phase.
	Settle time.Duration
	// Mirror bounds the optional telemetry copy inside the report phase.
	Mirror time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Sensor:  5 * time.Second,
		Network: 5 * time.Second,
		Report:  25 * time.Minute,
		Settle:  time.Second,
		Mirror:  15 * time.Second,
	}
}

// Cycle is the state of one boot cycle. It is built at boot and dropped at
// reset; nothing in it outlives the cycle.
type Cycle struct {
	Sensor   Sensor
	Network  Network
	Watchdog watchdog.Watchdog
	Reporter Reporter
	Mirror   Mirror // optional

	SSID         string
	Timeouts     Timeouts
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Result describes a completed cycle.
type Result struct {
	Reading   report.Reading
	LocalAddr netip.Addr
	// Status is the final HTTP status, 0 if the exchange failed.
	Status  int
	SendErr error
}

func (c *Cycle) validate() error {
	var errs []error
	if c.Sensor == nil {
		errs = append(errs, errors.New("sensor is required"))
	}
	if c.Network == nil {
		errs = append(errs, errors.New("network is required"))
	}
	if c.Watchdog == nil {
		errs = append(errs, errors.New("watchdog is required"))
	}
	if c.Reporter == nil {
		errs = append(errs, errors.New("reporter is required"))
	}
	if c.Timeouts.Sensor <= 0 || c.Timeouts.Network <= 0 || c.Timeouts.Report <= 0 {
		errs = append(errs, fmt.Errorf("phase timeouts must be positive: %+v", c.Timeouts))
	}
	return errors.Join(errs...)
}

// Run executes the three phases in order. It returns after the report is
// sent, with the report watchdog still armed.
func Run(ctx context.Context, c *Cycle) (Result, error) {
	if err := c.validate(); err != nil {
		return Result{}, fmt.Errorf("invalid boot cycle: %w", err)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if err := sensorPhase(ctx, c); err != nil {
		return Result{}, &PhaseError{Phase: PhaseSensor, Err: err}
	}

	addr, err := networkPhase(ctx, c)
	if err != nil {
		return Result{}, &PhaseError{Phase: PhaseNetwork, Err: err}
	}

	if err := sleep(ctx, c.Timeouts.Settle); err != nil {
		return Result{}, &PhaseError{Phase: PhaseNetwork, Err: err}
	}

	res, err := reportPhase(ctx, c)
	if err != nil {
		return Result{}, &PhaseError{Phase: PhaseReport, Err: err}
	}
	res.LocalAddr = addr
	return res, nil
}

// Park idles until the watchdog fires or ctx ends.
func Park(ctx context.Context, wd watchdog.Watchdog) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wd.Expired():
		return watchdog.ErrExpired
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
