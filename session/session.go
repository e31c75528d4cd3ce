// Package session ties one rolling chat buffer and its scheduler to a client
// session, fans appends out to live-feed subscribers, and reaps idle sessions.
//
// A session is created when the frontend mounts the player page and torn down
// when the page unmounts (or when the janitor decides the client is gone).
// Each session owns its buffer exclusively; nothing is shared across sessions.
package session

import (
	"sync"
	"time"

	"github.com/hushline-media/streamroom/chatsim"
	"github.com/hushline-media/streamroom/telemetry"
)

// Session owns exactly one buffer, one scheduler, and one hub.
type Session struct {
	ID        string
	CreatedAt time.Time

	buf   *chatsim.Buffer
	sched *chatsim.Scheduler
	hub   *Hub

	// record, when set, persists appended messages (transcript sink).
	record func(chatsim.Message)

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

// Snapshot returns the current chat contents in insertion order.
func (s *Session) Snapshot() []chatsim.Message {
	s.touch()
	return s.buf.Snapshot()
}

// AppendPriority appends a tip-confirmation message and fans it out to live
// subscribers. It never goes through the scheduler and is never blocked by
// injection timing.
func (s *Session) AppendPriority(text string) chatsim.Message {
	s.touch()
	m := s.buf.AppendPriority(text)
	telemetry.IncCounter(telemetry.PriorityMessages)
	s.hub.Publish(m)
	if s.record != nil {
		s.record(m)
	}
	return m
}

// Subscribe attaches a live-feed subscriber to this session's hub.
func (s *Session) Subscribe() (<-chan chatsim.Message, func()) {
	s.touch()
	return s.hub.Subscribe()
}

// Subscribers returns the current live-feed subscriber count.
func (s *Session) Subscribers() int { return s.hub.SubscriberCount() }

// Armed reports whether the synthetic injection scheduler is running.
func (s *Session) Armed() bool { return s.sched.Armed() }

// Cursor returns the scheduler's next template cursor.
func (s *Session) Cursor() int { return s.sched.Cursor() }

// BufferLen returns the number of currently buffered messages.
func (s *Session) BufferLen() int { return s.buf.Len() }

// touch marks the session as recently used for the idle janitor.
func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the most recent client interaction time.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close cancels the scheduler and closes the hub. After close returns no
// further message reaches the buffer or any subscriber. Idempotent.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.sched.Cancel()
	s.hub.Close()
}
