package network

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/godbus/dbus/v5"
)

const (
	nmDest        = "org.freedesktop.NetworkManager"
	nmPath        = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmIface       = "org.freedesktop.NetworkManager"
	nmDeviceIface = "org.freedesktop.NetworkManager.Device"
)

// NetworkManager device states (NMDeviceState).
const (
	nmStateUnmanaged    = 10
	nmStateUnavailable  = 20
	nmStateDisconnected = 30
	nmStatePrepare      = 40
	nmStateSecondaries  = 90
	nmStateActivated    = 100
	nmStateDeactivating = 110
	nmStateFailed       = 120
)

// NetworkManager associates a WiFi device through NetworkManager on the
// system D-Bus. The connection profile is volatile: it is not written to
// disk and disappears when deactivated.
type NetworkManager struct {
	conn     *dbus.Conn
	iface    string
	password string
	logger   *slog.Logger

	device dbus.ObjectPath
	active dbus.ObjectPath
}

func NewNetworkManager(iface, password string, logger *slog.Logger) (*NetworkManager, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &NetworkManager{
		conn:     conn,
		iface:    iface,
		password: password,
		logger:   logger,
	}, nil
}

// Associate starts activation and returns without waiting for it.
func (n *NetworkManager) Associate(ctx context.Context, ssid string) error {
	nm := n.conn.Object(nmDest, nmPath)

	var device dbus.ObjectPath
	if err := nm.CallWithContext(ctx, nmIface+".GetDeviceByIpIface", 0, n.iface).Store(&device); err != nil {
		return fmt.Errorf("networkmanager: device %s: %w", n.iface, err)
	}

	options := map[string]dbus.Variant{
		"persist": dbus.MakeVariant("volatile"),
	}
	var (
		profile dbus.ObjectPath
		active  dbus.ObjectPath
		result  map[string]dbus.Variant
	)
	call := nm.CallWithContext(ctx, nmIface+".AddAndActivateConnection2", 0,
		connectionSettings(ssid, n.password), device, dbus.ObjectPath("/"), options)
	if err := call.Store(&profile, &active, &result); err != nil {
		return fmt.Errorf("networkmanager: activate %q: %w", ssid, err)
	}

	n.device = device
	n.active = active
	n.logger.Info("network: activation started",
		"interface", n.iface,
		"ssid", ssid,
		"secured", n.password != "",
		"active_connection", string(active),
	)
	return nil
}

func (n *NetworkManager) Status() (Status, error) {
	if n.device == "" {
		return StatusIdle, nil
	}
	v, err := n.conn.Object(nmDest, n.device).GetProperty(nmDeviceIface + ".State")
	if err != nil {
		return StatusUnknown, fmt.Errorf("networkmanager: device state: %w", err)
	}
	state, ok := v.Value().(uint32)
	if !ok {
		return StatusUnknown, fmt.Errorf("networkmanager: device state has type %T", v.Value())
	}
	return mapDeviceState(state), nil
}

func (n *NetworkManager) LocalAddr() (netip.Addr, error) {
	return interfaceAddr(lookupInterface, n.iface)
}

func (n *NetworkManager) Close() error {
	return n.conn.Close()
}

func mapDeviceState(state uint32) Status {
	switch {
	case state == nmStateActivated:
		return StatusConnected
	case state == nmStateFailed:
		return StatusFailed
	case state >= nmStatePrepare && state <= nmStateSecondaries:
		return StatusConnecting
	case state == nmStateUnmanaged, state == nmStateUnavailable,
		state == nmStateDisconnected, state == nmStateDeactivating:
		return StatusIdle
	default:
		return StatusUnknown
	}
}

// connectionSettings builds an a{sa{sv}} profile. An empty password gives
// an open network.
func connectionSettings(ssid, password string) map[string]map[string]dbus.Variant {
	settings := map[string]map[string]dbus.Variant{
		"connection": {
			"id":   dbus.MakeVariant(ssid),
			"type": dbus.MakeVariant("802-11-wireless"),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(ssid)),
			"mode": dbus.MakeVariant("infrastructure"),
		},
		"ipv4": {
			"method": dbus.MakeVariant("auto"),
		},
		"ipv6": {
			"method": dbus.MakeVariant("auto"),
		},
	}
	if password != "" {
		settings["802-11-wireless-security"] = map[string]dbus.Variant{
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(password),
		}
	}
	return settings
}
