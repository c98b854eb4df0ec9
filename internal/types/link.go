package types

// LinkStatus is the association state of the network link. Only
// LinkConnected means the link is usable.
type LinkStatus int

const (
	LinkUnknown LinkStatus = iota
	LinkIdle
	LinkConnecting
	LinkConnected
	LinkFailed
)

func (s LinkStatus) String() string {
	switch s {
	case LinkIdle:
		return "idle"
	case LinkConnecting:
		return "connecting"
	case LinkConnected:
		return "connected"
	case LinkFailed:
		return "failed"
	default:
		return "unknown"
	}
}
