package chatsim

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSize is the buffer capacity used when none is configured.
const DefaultMaxSize = 20

// SentinelAuthor is the reserved author name for priority (tip) messages.
// It is not part of the synthetic author pool.
const SentinelAuthor = "streamroom"

// DefaultTipAck is the text used for a priority append with no custom text.
const DefaultTipAck = "Tip received, thank you! ⚡"

// Message is one displayed chat line.
type Message struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Priority  bool      `json:"priority"`
}

// Buffer is a bounded, insertion-ordered rolling message buffer. It is safe
// for concurrent use; priority appends may interleave with synthetic appends
// at any time. The synthetic cursor is owned by the caller (see Scheduler),
// not by the buffer.
type Buffer struct {
	mu        sync.Mutex
	msgs      []Message
	maxSize   int
	templates []string
	authors   []string
}

// NewBuffer validates the pools up front: an empty template or author pool and
// a non-positive capacity are caller contract violations and fail construction
// rather than degrade later.
func NewBuffer(maxSize int, templates, authors []string) (*Buffer, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", maxSize)
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("template pool must not be empty")
	}
	if len(authors) == 0 {
		return nil, fmt.Errorf("author pool must not be empty")
	}
	return &Buffer{
		maxSize:   maxSize,
		templates: append([]string(nil), templates...),
		authors:   append([]string(nil), authors...),
	}, nil
}

// AppendSynthetic appends a synthetic chat line. The template is selected by
// cursor modulo the template pool size, so a given cursor value always yields
// the same text regardless of what else happened in between. The author is
// drawn uniformly at random from the pool.
func (b *Buffer) AppendSynthetic(cursor int) Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := cursor % len(b.templates)
	if idx < 0 {
		idx += len(b.templates)
	}
	return b.append(Message{
		ID:        uuid.New().String(),
		Author:    b.authors[rand.IntN(len(b.authors))],
		Text:      b.templates[idx],
		CreatedAt: time.Now(),
	})
}

// AppendPriority appends a tip-confirmation line under the sentinel author.
// An empty text selects the default acknowledgement. Priority affects
// presentation only: eviction stays strictly FIFO.
func (b *Buffer) AppendPriority(text string) Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if text == "" {
		text = DefaultTipAck
	}
	return b.append(Message{
		ID:        uuid.New().String(),
		Author:    SentinelAuthor,
		Text:      text,
		CreatedAt: time.Now(),
		Priority:  true,
	})
}

// append must be called with mu held.
func (b *Buffer) append(m Message) Message {
	b.msgs = append(b.msgs, m)
	if len(b.msgs) > b.maxSize {
		// Truncate from the front, dropping the oldest entries. Copy into a
		// fresh slice so evicted messages don't pin the old backing array.
		kept := make([]Message, b.maxSize)
		copy(kept, b.msgs[len(b.msgs)-b.maxSize:])
		b.msgs = kept
	}
	return m
}

// Snapshot returns the current contents in insertion order. The returned
// slice is a copy; mutating it never affects the buffer.
func (b *Buffer) Snapshot() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.msgs))
	copy(out, b.msgs)
	return out
}

// Len returns the current number of buffered messages.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

// TemplateCount returns the size of the synthetic template pool.
func (b *Buffer) TemplateCount() int { return len(b.templates) }
