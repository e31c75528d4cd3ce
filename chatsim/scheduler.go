package chatsim

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Default inter-arrival bounds for synthetic message injection.
const (
	DefaultMinDelay = 2 * time.Second
	DefaultMaxDelay = 4 * time.Second
)

// Scheduler drives periodic synthetic appends into a Buffer. It is a two
// state machine: idle (no timer pending) and armed (one single-shot timer
// pending with a delay drawn uniformly from [min, max]). Each firing performs
// exactly one append, advances the cursor, and re-arms with a fresh delay.
type Scheduler struct {
	buf    *Buffer
	min    time.Duration
	max    time.Duration
	notify func(Message)

	mu     sync.Mutex
	armed  bool
	timer  *time.Timer
	cursor int
}

// NewScheduler rejects non-positive or inverted delay bounds up front; those
// are caller contract violations, not runtime errors. notify, if non-nil, is
// invoked after every synthetic append (it must not call back into the
// scheduler).
func NewScheduler(buf *Buffer, min, max time.Duration, notify func(Message)) (*Scheduler, error) {
	if buf == nil {
		return nil, fmt.Errorf("scheduler requires a buffer")
	}
	if min <= 0 {
		return nil, fmt.Errorf("min delay must be positive, got %s", min)
	}
	if max < min {
		return nil, fmt.Errorf("max delay %s is below min delay %s", max, min)
	}
	return &Scheduler{buf: buf, min: min, max: max, notify: notify}, nil
}

// Activate arms the scheduler. Activating an already-armed scheduler is a
// no-op. A previously cancelled scheduler may be activated again; the cursor
// carries over so template selection stays deterministic across restarts.
func (s *Scheduler) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed {
		return
	}
	s.armed = true
	s.arm()
}

// arm must be called with mu held and armed set.
func (s *Scheduler) arm() {
	d := s.min
	if s.max > s.min {
		d += rand.N(s.max - s.min + 1)
	}
	s.timer = time.AfterFunc(d, s.fire)
}

// fire runs on the timer goroutine. The armed check under the mutex is what
// makes Cancel absolute: a timer that was already in flight when Cancel ran
// finds armed=false here and appends nothing.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if !s.armed {
		s.mu.Unlock()
		return
	}
	msg := s.buf.AppendSynthetic(s.cursor)
	s.cursor++
	s.arm()
	notify := s.notify
	s.mu.Unlock()
	if notify != nil {
		notify(msg)
	}
}

// Cancel disarms the scheduler. Once Cancel returns, no further synthetic
// append will reach the buffer: if a firing holds the mutex, Cancel waits for
// it to finish; any timer still pending afterwards is stopped, and a late
// callback that already escaped Stop is rejected by the armed check.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Armed reports whether a firing is currently scheduled.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Cursor returns the next synthetic template cursor value.
func (s *Scheduler) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
