package watchdog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Supervised layers a software deadline over a hardware watchdog whose own
// window is short. A feeder goroutine kicks the hardware every interval
// until the deadline passes; after that it stops and the hardware resets
// the board within one hardware window. While disarmed it keeps feeding.
type Supervised struct {
	kick    func() error
	release func() error
	every   time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	deadline time.Time
	closed   bool

	expired    chan struct{}
	expireOnce sync.Once
	stop       chan struct{}
	done       chan struct{}
}

// NewSupervised starts feeding immediately. release is called by Close to
// hand the hardware back (e.g. the magic close of /dev/watchdog); it is not
// called once the deadline has passed.
func NewSupervised(kick, release func() error, every time.Duration, logger *slog.Logger) *Supervised {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervised{
		kick:    kick,
		release: release,
		every:   every,
		logger:  logger,
		expired: make(chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.feed()
	return s
}

func (s *Supervised) Arm(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("watchdog timeout must be positive, got %v", timeout)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.deadline = time.Now().Add(timeout)
	s.logger.Debug("watchdog armed", "timeout", timeout, "deadline", s.deadline)
	return nil
}

func (s *Supervised) Disarm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.deadline.IsZero() {
		s.logger.Debug("watchdog disarmed")
	}
	s.deadline = time.Time{}
	return nil
}

// Deadline returns the pending deadline, if armed.
func (s *Supervised) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline, !s.deadline.IsZero()
}

func (s *Supervised) Expired() <-chan struct{} {
	return s.expired
}

// Close stops the feeder. If the deadline has not passed the hardware is
// released; otherwise the pending reset is left to happen.
func (s *Supervised) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done

	select {
	case <-s.expired:
		return nil
	default:
	}
	if s.release != nil {
		return s.release()
	}
	return nil
}

func (s *Supervised) feed() {
	defer close(s.done)

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		deadline := s.deadline
		s.mu.Unlock()

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			s.logger.Error("watchdog expired, no longer feeding hardware")
			s.expireOnce.Do(func() { close(s.expired) })
			return
		}
		if err := s.kick(); err != nil {
			s.logger.Warn("watchdog kick failed", "error", err)
		}

		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// kickInterval feeds three times per hardware window.
func kickInterval(hw time.Duration) time.Duration {
	every := hw / 3
	if every < 100*time.Millisecond {
		every = 100 * time.Millisecond
	}
	return every
}

// hardwareTimeout picks the /dev/watchdog timeout, in whole seconds, for a
// sequence whose shortest armed window is shortest. The board resets at most
// one hardware window after a software deadline, so the window is kept to a
// fifth of shortest, and never below the one-second driver granularity.
func hardwareTimeout(shortest time.Duration) int {
	secs := int(shortest / 5 / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
