package watchdog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Soft is an in-process watchdog backed by time.AfterFunc. It tracks the
// pending deadline so it can be inspected.
type Soft struct {
	logger   *slog.Logger
	onExpire func()

	mu       sync.Mutex
	timer    *time.Timer
	deadline time.Time
	armed    bool
	gen      uint64
	closed   bool

	expired    chan struct{}
	expireOnce sync.Once
}

// NewSoft returns a disarmed Soft watchdog. onExpire, if not nil, runs on
// the timer goroutine after Expired is closed.
func NewSoft(logger *slog.Logger, onExpire func()) *Soft {
	if logger == nil {
		logger = slog.Default()
	}
	return &Soft{
		logger:   logger,
		onExpire: onExpire,
		expired:  make(chan struct{}),
	}
}

// Arm starts the countdown, replacing any pending one.
func (s *Soft) Arm(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("watchdog timeout must be positive, got %v", timeout)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.armed = true
	s.deadline = time.Now().Add(timeout)
	s.timer = time.AfterFunc(timeout, func() { s.fire(gen) })

	s.logger.Debug("watchdog armed", "timeout", timeout, "deadline", s.deadline)
	return nil
}

// Disarm cancels the pending countdown. Disarming an idle watchdog is a no-op.
func (s *Soft) Disarm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	return nil
}

func (s *Soft) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.armed {
		s.logger.Debug("watchdog disarmed")
	}
	s.armed = false
	s.deadline = time.Time{}
	s.gen++
}

// Deadline returns the pending deadline, if armed.
func (s *Soft) Deadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline, s.armed
}

// Expired is closed once the watchdog fires.
func (s *Soft) Expired() <-chan struct{} {
	return s.expired
}

// Close disarms the watchdog and rejects further Arm calls.
func (s *Soft) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	s.closed = true
	return nil
}

func (s *Soft) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.armed {
		s.mu.Unlock()
		return
	}
	s.armed = false
	s.timer = nil
	s.mu.Unlock()

	s.logger.Error("watchdog expired")
	s.expireOnce.Do(func() { close(s.expired) })
	if s.onExpire != nil {
		s.onExpire()
	}
}
