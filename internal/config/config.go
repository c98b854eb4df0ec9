package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level

	SensorDriver  string
	I2CBus        string
	SensorAddress uint16

	NetBackend   string
	NetInterface string
	WiFiSSID     string
	WiFiPassword string

	ReportHost string
	ReportPort int
	ReportPath string

	// TLSInsecureSkipVerify disables certificate validation on the report
	// endpoint. Off unless TLS_INSECURE_SKIP_VERIFY=true.
	TLSInsecureSkipVerify bool
	TLSCAFile             string

	Watchdog       string
	WatchdogDevice string
	ResetMode      string

	SensorTimeout  time.Duration
	NetworkTimeout time.Duration
	ReportTimeout  time.Duration
	SettleDelay    time.Duration
	PollInterval   time.Duration

	MQTTBroker      string
	MQTTPort        int
	MQTTClientID    string
	DeviceStationID string
}

// MQTTEnabled reports whether the telemetry mirror is configured.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	sensorDriver := strings.ToLower(envOr("SENSOR_DRIVER", "htu21d"))
	var defaultAddress string
	switch sensorDriver {
	case "htu21d":
		defaultAddress = "0x40"
	case "bme280":
		defaultAddress = "0x76"
	case "dummy":
		defaultAddress = "0x00"
	default:
		return Config{}, fmt.Errorf("invalid SENSOR_DRIVER %q (allowed: htu21d, bme280, dummy)", sensorDriver)
	}

	sensorAddressStr := envOr("SENSOR_ADDRESS", defaultAddress)
	sensorAddress, err := strconv.ParseUint(sensorAddressStr, 0, 16)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_ADDRESS %q: %w", sensorAddressStr, err)
	}

	netBackend := strings.ToLower(envOr("NET_BACKEND", "networkmanager"))
	switch netBackend {
	case "networkmanager", "interface":
	default:
		return Config{}, fmt.Errorf("invalid NET_BACKEND %q (allowed: networkmanager, interface)", netBackend)
	}

	reportPortStr := envOr("REPORT_PORT", "443")
	reportPort, err := strconv.Atoi(reportPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid REPORT_PORT %q: %w", reportPortStr, err)
	}
	if reportPort <= 0 || reportPort > 65535 {
		return Config{}, fmt.Errorf("REPORT_PORT must be in 1..65535, got %d", reportPort)
	}

	reportPath := envOr("REPORT_PATH", "/macros/s/IDREMOVED/exec")
	if !strings.HasPrefix(reportPath, "/") {
		return Config{}, fmt.Errorf("REPORT_PATH must start with '/', got %q", reportPath)
	}

	insecureStr := envOr("TLS_INSECURE_SKIP_VERIFY", "false")
	insecure, err := strconv.ParseBool(insecureStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TLS_INSECURE_SKIP_VERIFY %q: %w", insecureStr, err)
	}

	watchdog := strings.ToLower(envOr("WATCHDOG", "soft"))
	switch watchdog {
	case "soft", "device":
	default:
		return Config{}, fmt.Errorf("invalid WATCHDOG %q (allowed: soft, device)", watchdog)
	}

	resetMode := strings.ToLower(envOr("RESET_MODE", "exit"))
	switch resetMode {
	case "exit", "restart":
	default:
		return Config{}, fmt.Errorf("invalid RESET_MODE %q (allowed: exit, restart)", resetMode)
	}
	// An expired device watchdog keeps /dev/watchdog open until the board
	// resets, so the process cannot reopen it for another cycle.
	if watchdog == "device" && resetMode == "restart" {
		return Config{}, fmt.Errorf("RESET_MODE=restart requires WATCHDOG=soft (the device watchdog resets the board)")
	}

	sensorTimeout, err := positiveDuration("SENSOR_TIMEOUT", "5s")
	if err != nil {
		return Config{}, err
	}
	networkTimeout, err := positiveDuration("NETWORK_TIMEOUT", "5s")
	if err != nil {
		return Config{}, err
	}
	reportTimeout, err := positiveDuration("REPORT_TIMEOUT", "25m")
	if err != nil {
		return Config{}, err
	}

	settleDelayStr := envOr("SETTLE_DELAY", "1s")
	settleDelay, err := time.ParseDuration(settleDelayStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SETTLE_DELAY %q: %w", settleDelayStr, err)
	}
	if settleDelay < 0 {
		return Config{}, fmt.Errorf("SETTLE_DELAY must not be negative, got %v", settleDelay)
	}

	pollIntervalStr := envOr("POLL_INTERVAL", "10ms")
	pollInterval, err := time.ParseDuration(pollIntervalStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid POLL_INTERVAL %q: %w", pollIntervalStr, err)
	}
	if pollInterval < 0 {
		return Config{}, fmt.Errorf("POLL_INTERVAL must not be negative, got %v", pollInterval)
	}

	mqttPortStr := envOr("MQTT_PORT", "1883")
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		SensorDriver:          sensorDriver,
		I2CBus:                strings.TrimSpace(os.Getenv("I2C_BUS")),
		SensorAddress:         uint16(sensorAddress),
		NetBackend:            netBackend,
		NetInterface:          envOr("NET_INTERFACE", "wlan0"),
		WiFiSSID:              envOr("WIFI_SSID", "SSIDREMOVED"),
		WiFiPassword:          os.Getenv("WIFI_PASSWORD"),
		ReportHost:            envOr("REPORT_HOST", "script.google.com"),
		ReportPort:            reportPort,
		ReportPath:            reportPath,
		TLSInsecureSkipVerify: insecure,
		TLSCAFile:             strings.TrimSpace(os.Getenv("TLS_CA_FILE")),
		Watchdog:              watchdog,
		WatchdogDevice:        envOr("WATCHDOG_DEVICE", "/dev/watchdog"),
		ResetMode:             resetMode,
		SensorTimeout:         sensorTimeout,
		NetworkTimeout:        networkTimeout,
		ReportTimeout:         reportTimeout,
		SettleDelay:           settleDelay,
		PollInterval:          pollInterval,
		MQTTBroker:            strings.TrimSpace(os.Getenv("MQTT_BROKER")),
		MQTTPort:              mqttPort,
		MQTTClientID:          envOr("MQTT_CLIENT_ID", "cloudpico-reporter"),
		DeviceStationID:       envOr("DEVICE_STATION_ID", "home"),
	}, nil
}

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func positiveDuration(key, fallback string) (time.Duration, error) {
	s := envOr(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
