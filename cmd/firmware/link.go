//go:build tinygo

package main

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"tinygo.org/x/drivers/netdev"
	"tinygo.org/x/drivers/netlink"
	"tinygo.org/x/drivers/netlink/probe"

	"cloudpico-reporter/internal/types"
)

// link associates the on-board radio found by probe.
type link struct {
	pass string

	linker netlink.Netlinker
	dever  netdev.Netdever

	mu     sync.Mutex
	status types.LinkStatus
	err    error
}

func newLink(pass string) *link {
	return &link{pass: pass, status: types.LinkIdle}
}

// Associate starts the connect in the background. NetConnect blocks until
// the radio has joined or gives up, so Status is polled for the outcome.
func (l *link) Associate(ctx context.Context, ssid string) error {
	l.linker, l.dever = probe.Probe()
	l.linker.NetNotify(l.notify)

	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	params := &netlink.ConnectParams{
		Ssid:           ssid,
		Passphrase:     l.pass,
		ConnectTimeout: timeout,
	}
	if l.pass != "" {
		params.AuthType = netlink.AuthTypeWPA2
	}

	l.set(types.LinkConnecting, nil)
	go func() {
		if err := l.linker.NetConnect(params); err != nil {
			l.set(types.LinkFailed, err)
			return
		}
		l.set(types.LinkConnected, nil)
	}()
	return nil
}

func (l *link) notify(e netlink.Event) {
	switch e {
	case netlink.EventNetUp:
		l.set(types.LinkConnected, nil)
	case netlink.EventNetDown:
		l.set(types.LinkConnecting, nil)
	}
}

func (l *link) set(s types.LinkStatus, err error) {
	l.mu.Lock()
	l.status = s
	l.err = err
	l.mu.Unlock()
}

func (l *link) Status() (types.LinkStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status, l.err
}

func (l *link) LocalAddr() (netip.Addr, error) {
	return l.dever.Addr()
}
