package core

import (
	"io"
	"log/slog"
	"sync"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSession records delivered events in memory.
type stubSession struct {
	id        string
	mu        sync.Mutex
	delivered []*Event
}

func newStubSession(id string) *stubSession {
	return &stubSession{id: id}
}

func (s *stubSession) ID() string {
	return s.id
}

func (s *stubSession) Deliver(e *Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, e)
}

func (s *stubSession) Delivered() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Event(nil), s.delivered...)
}
