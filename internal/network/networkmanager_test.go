package network

import (
	"testing"
)

func TestMapDeviceState(t *testing.T) {
	tests := []struct {
		state uint32
		want  Status
	}{
		{state: 0, want: StatusUnknown},
		{state: 10, want: StatusIdle},
		{state: 20, want: StatusIdle},
		{state: 30, want: StatusIdle},
		{state: 40, want: StatusConnecting},
		{state: 50, want: StatusConnecting},
		{state: 60, want: StatusConnecting},
		{state: 70, want: StatusConnecting},
		{state: 90, want: StatusConnecting},
		{state: 100, want: StatusConnected},
		{state: 110, want: StatusIdle},
		{state: 120, want: StatusFailed},
		{state: 999, want: StatusUnknown},
	}
	for _, tt := range tests {
		if got := mapDeviceState(tt.state); got != tt.want {
			t.Errorf("mapDeviceState(%d) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestConnectionSettings_Open(t *testing.T) {
	s := connectionSettings("SSIDREMOVED", "")

	if _, ok := s["802-11-wireless-security"]; ok {
		t.Error("open network has a security section")
	}
	ssid, ok := s["802-11-wireless"]["ssid"].Value().([]byte)
	if !ok || string(ssid) != "SSIDREMOVED" {
		t.Errorf("ssid = %v, want SSIDREMOVED as bytes", s["802-11-wireless"]["ssid"].Value())
	}
	if got := s["connection"]["type"].Value(); got != "802-11-wireless" {
		t.Errorf("connection.type = %v", got)
	}
}

func TestConnectionSettings_WPA(t *testing.T) {
	s := connectionSettings("home", "hunter22")

	sec, ok := s["802-11-wireless-security"]
	if !ok {
		t.Fatal("secured network is missing its security section")
	}
	if got := sec["key-mgmt"].Value(); got != "wpa-psk" {
		t.Errorf("key-mgmt = %v, want wpa-psk", got)
	}
	if got := sec["psk"].Value(); got != "hunter22" {
		t.Errorf("psk = %v, want hunter22", got)
	}
}
