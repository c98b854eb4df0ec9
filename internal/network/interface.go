package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
)

var errNoIPv4 = errors.New("no ipv4 address")

// Interface watches a link that is associated by something else (a wired
// port, or WiFi joined by the OS). Associate only records the request.
type Interface struct {
	name   string
	logger *slog.Logger
	lookup func(name string) (net.Flags, []net.Addr, error)
}

func NewInterface(name string, logger *slog.Logger) *Interface {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interface{name: name, logger: logger, lookup: lookupInterface}
}

func (i *Interface) Associate(_ context.Context, ssid string) error {
	i.logger.Info("network: link managed externally, waiting for address",
		"interface", i.name,
		"ssid", ssid,
	)
	return nil
}

func (i *Interface) Status() (Status, error) {
	flags, addrs, err := i.lookup(i.name)
	if err != nil {
		return StatusUnknown, err
	}
	if flags&net.FlagUp == 0 {
		return StatusIdle, nil
	}
	if _, err := firstIPv4(addrs); err != nil {
		return StatusConnecting, nil
	}
	return StatusConnected, nil
}

func (i *Interface) LocalAddr() (netip.Addr, error) {
	return interfaceAddr(i.lookup, i.name)
}

func (i *Interface) Close() error { return nil }

func lookupInterface(name string) (net.Flags, []net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0, nil, fmt.Errorf("interface %s: %w", name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return 0, nil, fmt.Errorf("interface %s addrs: %w", name, err)
	}
	return iface.Flags, addrs, nil
}

func interfaceAddr(lookup func(string) (net.Flags, []net.Addr, error), name string) (netip.Addr, error) {
	_, addrs, err := lookup(name)
	if err != nil {
		return netip.Addr{}, err
	}
	addr, err := firstIPv4(addrs)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("interface %s: %w", name, err)
	}
	return addr, nil
}

func firstIPv4(addrs []net.Addr) (netip.Addr, error) {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			if addr, ok := netip.AddrFromSlice(ip4); ok {
				return addr, nil
			}
		}
	}
	return netip.Addr{}, errNoIPv4
}
