package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hushline-media/streamroom/chatsim"
	dbpkg "github.com/hushline-media/streamroom/db"
	"github.com/hushline-media/streamroom/telemetry"
)

// ErrSessionLimit is returned by Create when the session cap is reached.
var ErrSessionLimit = errors.New("session limit reached")

// Config holds the per-session chat parameters. Zero values are rejected by
// Create via the chatsim constructors; config.Load supplies defaults.
type Config struct {
	BufferSize int
	Templates  []string
	Authors    []string
	MinDelay   time.Duration
	MaxDelay   time.Duration

	// TTL is how long a session may go without client interaction before the
	// janitor reaps it. JanitorInterval is how often the janitor runs.
	TTL             time.Duration
	JanitorInterval time.Duration

	// MaxSessions caps concurrent sessions to bound memory (0 = 1000).
	MaxSessions int
}

const defaultMaxSessions = 1000

// Manager creates, looks up, and reaps sessions. When a database is provided
// every appended message is also written to the chat_transcript table,
// fire-and-forget.
type Manager struct {
	cfg Config
	db  *sql.DB

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager. db may be nil; the service then runs purely
// in memory, matching the demo app's no-durable-backend nature.
func NewManager(cfg Config, db *sql.DB) *Manager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	return &Manager{cfg: cfg, db: db, sessions: make(map[string]*Session)}
}

// Create builds a session with its own buffer and scheduler and starts
// synthetic injection immediately.
func (m *Manager) Create() (*Session, error) {
	buf, err := chatsim.NewBuffer(m.cfg.BufferSize, m.cfg.Templates, m.cfg.Authors)
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}

	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		buf:       buf,
		hub:       NewHub(),
		lastSeen:  time.Now(),
	}
	s.record = func(msg chatsim.Message) { m.persist(s.ID, msg) }

	sched, err := chatsim.NewScheduler(buf, m.cfg.MinDelay, m.cfg.MaxDelay, func(msg chatsim.Message) {
		telemetry.IncCounter(telemetry.SyntheticMessages)
		s.hub.Publish(msg)
		m.persist(s.ID, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s.sched = sched

	m.mu.Lock()
	if len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, ErrSessionLimit
	}
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	telemetry.IncCounter(telemetry.SessionsCreated)
	telemetry.SetActiveSessions(n)
	sched.Activate()
	slog.Info("session created", slog.String("session_id", s.ID), slog.Int("active", n))
	return s, nil
}

// Get returns the session with the given id, if it exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down a session: the scheduler is cancelled before the session
// is forgotten, so no synthetic append can land after Close returns.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.close()
	telemetry.SetActiveSessions(n)
	slog.Info("session closed", slog.String("session_id", id), slog.Int("active", n))
	return true
}

// CloseAll tears down every session (shutdown path).
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	for _, s := range all {
		s.close()
	}
	telemetry.SetActiveSessions(0)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Info is a read-only view of a session for status/admin endpoints.
type Info struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	LastSeen    time.Time `json:"last_seen"`
	BufferLen   int       `json:"buffer_len"`
	Subscribers int       `json:"subscribers"`
	Armed       bool      `json:"armed"`
	Cursor      int       `json:"cursor"`
}

// List returns a view of all live sessions.
func (m *Manager) List() []Info {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.Unlock()

	out := make([]Info, 0, len(all))
	for _, s := range all {
		out = append(out, Info{
			ID:          s.ID,
			CreatedAt:   s.CreatedAt,
			LastSeen:    s.LastSeen(),
			BufferLen:   s.BufferLen(),
			Subscribers: s.Subscribers(),
			Armed:       s.Armed(),
			Cursor:      s.Cursor(),
		})
	}
	return out
}

// StartJanitor reaps sessions idle longer than TTL. It blocks until ctx is
// cancelled; run it in a goroutine.
func (m *Manager) StartJanitor(ctx context.Context) {
	if m.cfg.TTL <= 0 {
		slog.Info("session janitor disabled (no TTL configured)")
		return
	}
	interval := m.cfg.JanitorInterval
	if interval <= 0 {
		interval = time.Minute
	}
	slog.Info("session janitor starting", slog.Duration("ttl", m.cfg.TTL), slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			m.reapIdle()
		}
	}
}

func (m *Manager) reapIdle() {
	cutoff := time.Now().Add(-m.cfg.TTL)
	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
		telemetry.IncCounter(telemetry.SessionsExpired)
		slog.Info("session expired", slog.String("session_id", s.ID), slog.Time("last_seen", s.LastSeen()))
	}
	if len(stale) > 0 {
		telemetry.SetActiveSessions(n)
	}
}

// persist writes a message to the transcript table when a DB is configured.
// Failures are logged, never surfaced: the in-memory buffer is authoritative.
func (m *Manager) persist(sessionID string, msg chatsim.Message) {
	if m.db == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dbpkg.InsertChatMessage(ctx, m.db, sessionID, msg.ID, msg.Author, msg.Text, msg.Priority, msg.CreatedAt); err != nil {
			slog.Warn("failed to persist chat message", slog.String("session_id", sessionID), slog.Any("err", err))
		}
	}()
}
