//go:build tinygo

// Firmware build of the reporter for WiFi microcontroller boards.
package main

import (
	"context"
	"log/slog"
	"machine"
	"net/http"
	"time"

	"cloudpico-reporter/internal/boot"
	"cloudpico-reporter/internal/report"
	"cloudpico-reporter/internal/watchdog"
)

// Set with -ldflags "-X main.ssid=... -X main.pass=...".
var (
	ssid = "SSIDREMOVED"
	pass = ""
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{})

	// Give the host time to enumerate the USB serial device.
	time.Sleep(1500 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("boot: cloudpico reporter")

	wd, err := watchdog.StartMachine(logger)
	if err != nil {
		logger.Error("watchdog start failed", "error", err)
		halt()
	}

	cycle := &boot.Cycle{
		Sensor:       newSensor(),
		Network:      newLink(pass),
		Watchdog:     wd,
		Reporter:     report.New(&http.Client{}, report.DefaultHost, report.DefaultPort, report.DefaultPath, logger),
		SSID:         ssid,
		Timeouts:     boot.DefaultTimeouts(),
		PollInterval: 10 * time.Millisecond,
		Logger:       logger,
	}

	if _, err := boot.Run(context.Background(), cycle); err != nil {
		logger.Error("boot cycle stalled, awaiting watchdog reset", "error", err)
	}
	_ = boot.Park(context.Background(), wd)

	// The feeder has stopped; the chip resets within one hardware window.
	halt()
}

func halt() {
	for {
		time.Sleep(time.Second)
	}
}
