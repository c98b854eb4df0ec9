package boot

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"cloudpico-reporter/internal/poll"
	"cloudpico-reporter/internal/report"
	"cloudpico-reporter/internal/types"
)

func arm(c *Cycle, timeout time.Duration) error {
	if err := c.Watchdog.Arm(timeout); err != nil {
		return fmt.Errorf("arm watchdog: %w", err)
	}
	return nil
}

func sensorPhase(ctx context.Context, c *Cycle) error {
	c.Logger.Info("armed watchdog, connecting to sensor", "timeout", c.Timeouts.Sensor)
	if err := arm(c, c.Timeouts.Sensor); err != nil {
		return err
	}

	phaseCtx, cancel := context.WithTimeout(ctx, c.Timeouts.Sensor)
	defer cancel()

	attempts, err := poll.UntilCount(phaseCtx, c.PollInterval, func() (bool, error) {
		ok, err := c.Sensor.Begin()
		if err != nil {
			c.Logger.Debug("sensor not ready", "error", err)
		}
		return ok, err
	})
	if err != nil {
		return err
	}

	c.Logger.Info("sensor connected, disarming watchdog", "attempts", attempts)
	return c.Watchdog.Disarm()
}

func networkPhase(ctx context.Context, c *Cycle) (netip.Addr, error) {
	c.Logger.Info("armed watchdog, connecting to network", "timeout", c.Timeouts.Network, "ssid", c.SSID)
	if err := arm(c, c.Timeouts.Network); err != nil {
		return netip.Addr{}, err
	}

	phaseCtx, cancel := context.WithTimeout(ctx, c.Timeouts.Network)
	defer cancel()

	if err := c.Network.Associate(phaseCtx, c.SSID); err != nil {
		return netip.Addr{}, fmt.Errorf("associate %q: %w", c.SSID, err)
	}

	last := types.LinkUnknown
	attempts, err := poll.UntilCount(phaseCtx, c.PollInterval, func() (bool, error) {
		status, err := c.Network.Status()
		if err != nil {
			c.Logger.Debug("network status error", "error", err)
			return false, err
		}
		if status != last {
			c.Logger.Debug("network status", "status", status.String())
			last = status
		}
		return status == types.LinkConnected, nil
	})
	if err != nil {
		return netip.Addr{}, err
	}

	c.Logger.Info("network connected, disarming watchdog", "attempts", attempts)
	if err := c.Watchdog.Disarm(); err != nil {
		return netip.Addr{}, err
	}

	addr, err := c.Network.LocalAddr()
	if err != nil {
		c.Logger.Warn("local address unavailable", "error", err)
		return netip.Addr{}, nil
	}
	c.Logger.Info("network address acquired", "ip_address", addr.String())
	return addr, nil
}

// reportPhase never disarms the watchdog.
func reportPhase(ctx context.Context, c *Cycle) (Result, error) {
	c.Logger.Info("armed watchdog, posting data", "timeout", c.Timeouts.Report)
	if err := arm(c, c.Timeouts.Report); err != nil {
		return Result{}, err
	}

	phaseCtx, cancel := context.WithTimeout(ctx, c.Timeouts.Report)
	defer cancel()

	c.Logger.Info("polling sensor")
	temperature, err := c.Sensor.ReadTemperature()
	if err != nil {
		return Result{}, fmt.Errorf("read temperature: %w", err)
	}
	humidity, err := c.Sensor.ReadHumidity()
	if err != nil {
		return Result{}, fmt.Errorf("read humidity: %w", err)
	}
	reading := report.Reading{
		Temperature: temperature,
		Humidity:    humidity,
		TakenAt:     time.Now(),
	}

	c.Logger.Info("connecting and posting data",
		"host", c.Reporter.Host(),
		"temperature", report.FormatValue(temperature),
		"humidity", report.FormatValue(humidity),
	)
	status, sendErr := c.Reporter.Send(phaseCtx, reading)
	if sendErr != nil {
		c.Logger.Warn("report not delivered", "error", sendErr)
	}

	if c.Mirror != nil {
		mirror(phaseCtx, c, reading)
	}

	c.Logger.Info("transfer complete, awaiting watchdog reset", "status", status)
	return Result{
		Reading: reading,
		Status:  status,
		SendErr: sendErr,
	}, nil
}

func mirror(ctx context.Context, c *Cycle, reading report.Reading) {
	if c.Timeouts.Mirror > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeouts.Mirror)
		defer cancel()
	}
	if err := c.Mirror.Mirror(ctx, reading); err != nil {
		c.Logger.Warn("telemetry mirror failed", "error", err)
	}
}
