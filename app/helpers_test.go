package relay

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tanwk/relay/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp wires the relay core without binding a server.
func newTestApp(t *testing.T) *App {
	t.Helper()
	app := &App{logger: testLogger()}
	app.chatLog = core.NewFileChatLog(filepath.Join(t.TempDir(), "messages.txt"))
	app.rooms = core.NewRoomRegistry()
	app.broadcaster = core.NewBroadcaster(app.chatLog, app.rooms, app.logger)
	return app
}

type stubSession struct {
	id        string
	mu        sync.Mutex
	delivered []*core.Event
}

func (s *stubSession) ID() string {
	return s.id
}

func (s *stubSession) Deliver(e *core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, e)
}

func (s *stubSession) Delivered() []*core.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*core.Event(nil), s.delivered...)
}
