// Package app wires the configured sensor, network backend, watchdog and
// reporter into one boot cycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloudpico-reporter/internal/boot"
	"cloudpico-reporter/internal/config"
	"cloudpico-reporter/internal/mqtt"
	"cloudpico-reporter/internal/network"
	"cloudpico-reporter/internal/report"
	"cloudpico-reporter/internal/sensor"
	"cloudpico-reporter/internal/transport"
	"cloudpico-reporter/internal/watchdog"
)

type components struct {
	sensor   sensor.Sensor
	network  network.Associator
	watchdog watchdog.Watchdog
	reporter *report.Reporter
	mirror   boot.Mirror
}

func (c *components) close(logger *slog.Logger) {
	if c.network != nil {
		if err := c.network.Close(); err != nil {
			logger.Warn("network close failed", "error", err)
		}
	}
	if c.sensor != nil {
		if err := c.sensor.Halt(); err != nil {
			logger.Warn("sensor halt failed", "error", err)
		}
	}
	if c.watchdog != nil {
		if err := c.watchdog.Close(); err != nil {
			logger.Warn("watchdog close failed", "error", err)
		}
	}
}

// Run executes one boot cycle and blocks until the watchdog fires or ctx is
// done. It returns watchdog.ErrExpired on reset so the caller can restart.
func Run(ctx context.Context, cfg config.Config) error {
	logger := slog.Default()
	logger.Info("initializing reporter",
		"sensor", cfg.SensorDriver,
		"net_backend", cfg.NetBackend,
		"net_interface", cfg.NetInterface,
		"watchdog", cfg.Watchdog,
		"report_host", cfg.ReportHost,
		"mqtt_broker", cfg.MQTTBroker,
	)

	comps, err := open(cfg, logger)
	if comps != nil {
		defer comps.close(logger)
	}
	if err != nil {
		return err
	}
	return runCycle(ctx, cfg, comps, logger)
}

func open(cfg config.Config, logger *slog.Logger) (*components, error) {
	comps := &components{}

	wd, err := openWatchdog(cfg, logger)
	if err != nil {
		return comps, err
	}
	comps.watchdog = wd

	s, err := sensor.Open(cfg, logger)
	if err != nil {
		return comps, fmt.Errorf("open sensor: %w", err)
	}
	comps.sensor = s

	n, err := network.Open(cfg, logger)
	if err != nil {
		return comps, fmt.Errorf("open network: %w", err)
	}
	comps.network = n

	client, err := transport.NewHTTPClient(cfg, logger)
	if err != nil {
		return comps, err
	}
	comps.reporter = report.New(client, cfg.ReportHost, cfg.ReportPort, cfg.ReportPath, logger)

	if cfg.MQTTEnabled() {
		mc, err := mqtt.NewClient(cfg, logger)
		if err != nil {
			logger.Warn("telemetry mirror disabled", "error", err)
		} else {
			comps.mirror = mc
		}
	}
	return comps, nil
}

func openWatchdog(cfg config.Config, logger *slog.Logger) (watchdog.Watchdog, error) {
	switch cfg.Watchdog {
	case "device":
		wd, err := watchdog.OpenDevice(cfg.WatchdogDevice, min(cfg.SensorTimeout, cfg.NetworkTimeout), logger)
		if err != nil {
			return nil, fmt.Errorf("open watchdog: %w", err)
		}
		return wd, nil
	default:
		return watchdog.NewSoft(logger, nil), nil
	}
}

func runCycle(ctx context.Context, cfg config.Config, comps *components, logger *slog.Logger) error {
	cycle := &boot.Cycle{
		Sensor:   comps.sensor,
		Network:  comps.network,
		Watchdog: comps.watchdog,
		Reporter: comps.reporter,
		Mirror:   comps.mirror,
		SSID:     cfg.WiFiSSID,
		Timeouts: boot.Timeouts{
			Sensor:  cfg.SensorTimeout,
			Network: cfg.NetworkTimeout,
			Report:  cfg.ReportTimeout,
			Settle:  cfg.SettleDelay,
			Mirror:  boot.DefaultTimeouts().Mirror,
		},
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	}

	res, err := boot.Run(ctx, cycle)
	switch {
	case err == nil:
		logger.Info("boot cycle complete",
			"ip_address", res.LocalAddr.String(),
			"temperature", report.FormatValue(res.Reading.Temperature),
			"humidity", report.FormatValue(res.Reading.Humidity),
			"status", res.Status,
		)
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		var pe *boot.PhaseError
		if !errors.As(err, &pe) {
			return err
		}
		logger.Error("boot cycle stalled, awaiting watchdog reset", "phase", pe.Phase.String(), "error", pe.Err)
	}

	return boot.Park(ctx, comps.watchdog)
}
