// Package network brings up the link the report is sent over.
package network

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	"cloudpico-reporter/internal/config"
	"cloudpico-reporter/internal/types"
)

// Status is the association state of the link.
type Status = types.LinkStatus

const (
	StatusUnknown    = types.LinkUnknown
	StatusIdle       = types.LinkIdle
	StatusConnecting = types.LinkConnecting
	StatusConnected  = types.LinkConnected
	StatusFailed     = types.LinkFailed
)

// Associator joins a network by name and reports the link status.
type Associator interface {
	Associate(ctx context.Context, ssid string) error
	Status() (Status, error)
	LocalAddr() (netip.Addr, error)
	Close() error
}

// Open returns the backend named by cfg.NetBackend.
func Open(cfg config.Config, logger *slog.Logger) (Associator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.NetBackend {
	case "networkmanager":
		return NewNetworkManager(cfg.NetInterface, cfg.WiFiPassword, logger)
	case "interface":
		return NewInterface(cfg.NetInterface, logger), nil
	default:
		return nil, fmt.Errorf("unknown network backend %q", cfg.NetBackend)
	}
}
