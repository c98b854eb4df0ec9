package network

import (
	"context"
	"errors"
	"net"
	"testing"
)

func fakeLookup(flags net.Flags, addrs []net.Addr, err error) func(string) (net.Flags, []net.Addr, error) {
	return func(string) (net.Flags, []net.Addr, error) { return flags, addrs, err }
}

func ipNet(s string) *net.IPNet {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func TestInterface_Status(t *testing.T) {
	tests := []struct {
		name    string
		flags   net.Flags
		addrs   []net.Addr
		err     error
		want    Status
		wantErr bool
	}{
		{name: "down", flags: 0, want: StatusIdle},
		{name: "up without address", flags: net.FlagUp, want: StatusConnecting},
		{name: "up with ipv6 only", flags: net.FlagUp, addrs: []net.Addr{ipNet("fe80::1/64")}, want: StatusConnecting},
		{name: "up with ipv4", flags: net.FlagUp, addrs: []net.Addr{ipNet("fe80::1/64"), ipNet("192.168.1.50/24")}, want: StatusConnected},
		{name: "lookup error", err: errors.New("no such interface"), want: StatusUnknown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := NewInterface("wlan0", nil)
			i.lookup = fakeLookup(tt.flags, tt.addrs, tt.err)

			got, err := i.Status()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Status() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterface_LocalAddr(t *testing.T) {
	i := NewInterface("wlan0", nil)
	i.lookup = fakeLookup(net.FlagUp, []net.Addr{ipNet("192.168.1.50/24")}, nil)

	if err := i.Associate(context.Background(), "SSIDREMOVED"); err != nil {
		t.Fatalf("Associate() error = %v", err)
	}
	addr, err := i.LocalAddr()
	if err != nil {
		t.Fatalf("LocalAddr() error = %v", err)
	}
	if addr.String() != "192.168.1.50" {
		t.Errorf("LocalAddr() = %v, want 192.168.1.50", addr)
	}
}

func TestInterface_LocalAddrMissing(t *testing.T) {
	i := NewInterface("wlan0", nil)
	i.lookup = fakeLookup(net.FlagUp, nil, nil)

	if _, err := i.LocalAddr(); !errors.Is(err, errNoIPv4) {
		t.Errorf("LocalAddr() error = %v, want errNoIPv4", err)
	}
}

func TestStatus_String(t *testing.T) {
	for s, want := range map[Status]string{
		StatusUnknown:    "unknown",
		StatusIdle:       "idle",
		StatusConnecting: "connecting",
		StatusConnected:  "connected",
		StatusFailed:     "failed",
		Status(42):       "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
