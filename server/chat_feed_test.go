package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hushline-media/streamroom/chatsim"
)

// flushableRecorder wraps httptest.ResponseRecorder to implement http.Flusher
type flushableRecorder struct {
	*httptest.ResponseRecorder
	mu      sync.Mutex
	flushed int
}

func newFlushableRecorder() *flushableRecorder {
	return &flushableRecorder{ResponseRecorder: httptest.NewRecorder()}
}

func (f *flushableRecorder) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed++
}

func (f *flushableRecorder) FlushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushed
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestChatSSEStreamsAppends(t *testing.T) {
	mux, m := newTestMux(t)
	id := createSession(t, mux)
	s, ok := m.Get(id)
	if !ok {
		t.Fatal("session missing")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/chat/sse", nil).WithContext(ctx)
	w := newFlushableRecorder()

	done := make(chan struct{})
	go func() {
		mux.ServeHTTP(w, req)
		close(done)
	}()

	waitFor(t, "SSE subscription", func() bool { return s.Subscribers() == 1 })

	appended := s.AppendPriority("Tip received!")

	// Header flush plus at least one message flush.
	waitFor(t, "message flush", func() bool { return w.FlushCount() >= 2 })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SSE handler did not exit on context cancel")
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}

	body := w.Body.String()
	var jsonData string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			jsonData = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if jsonData == "" {
		t.Fatalf("no SSE data found in body %q", body)
	}
	var msg chatsim.Message
	if err := json.Unmarshal([]byte(jsonData), &msg); err != nil {
		t.Fatalf("parse SSE event: %v, data=%s", err, jsonData)
	}
	if msg.ID != appended.ID || msg.Text != "Tip received!" {
		t.Errorf("streamed message = %+v, want the appended priority message", msg)
	}
}

func TestChatSSEExitsOnSessionClose(t *testing.T) {
	mux, m := newTestMux(t)
	id := createSession(t, mux)
	s, _ := m.Get(id)

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/chat/sse", nil)
	w := newFlushableRecorder()

	done := make(chan struct{})
	go func() {
		mux.ServeHTTP(w, req)
		close(done)
	}()

	waitFor(t, "SSE subscription", func() bool { return s.Subscribers() == 1 })
	m.Close(id)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SSE handler did not exit when session closed")
	}
}

func TestChatWSStreamsAppends(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "0")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h, m := newTestHandlers(t)
	srv := httptest.NewServer(NewMux(ctx, h))
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	_ = resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + created.ID + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer func() { _ = conn.Close() }()

	s, ok := m.Get(created.ID)
	if !ok {
		t.Fatal("session missing")
	}
	waitFor(t, "WS subscription", func() bool { return s.Subscribers() == 1 })

	appended := s.AppendPriority("over the wire")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg chatsim.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	if msg.ID != appended.ID || msg.Text != "over the wire" {
		t.Errorf("ws message = %+v, want the appended priority message", msg)
	}

	// Closing the session sends a going-away close frame.
	m.Close(created.ID)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected close after session teardown")
	} else if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Logf("close error = %v (non-fatal: close race)", err)
	}
}
