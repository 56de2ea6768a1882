package core

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// ConnManager owns the lifecycle of websocket connections: it upgrades HTTP
// requests, runs the read/write pumps and surfaces inbound events on a
// single receive stream. Room membership is not tracked here; the
// disconnect callback is where the registry gets cleaned up.
type ConnManager struct {
	conns   map[string]*Conn
	mu      sync.RWMutex
	connWg  *sync.WaitGroup
	context context.Context
	logger  *slog.Logger

	onConnect    func(Session)
	onDisconnect func(Session)

	receivedEvent chan *Event

	upgrader        websocket.Upgrader
	ReadStreamSize  int
	WriteStreamSize int
}

var defaultUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type ManagerOption func(*ConnManager)

func WithCheckOrigin(f func(r *http.Request) bool) ManagerOption {
	return func(m *ConnManager) {
		m.upgrader.CheckOrigin = f
	}
}

func NewConnManager(context context.Context, wg *sync.WaitGroup, logger *slog.Logger, opts ...ManagerOption) *ConnManager {
	m := &ConnManager{
		connWg:          wg,
		conns:           make(map[string]*Conn),
		logger:          logger,
		context:         context,
		upgrader:        defaultUpgrader,
		ReadStreamSize:  100,
		WriteStreamSize: 100,
		onConnect:       func(Session) {},
		onDisconnect:    func(Session) {},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.receivedEvent = make(chan *Event, m.ReadStreamSize)

	return m
}

// Receive returns the stream of inbound events from all connections.
func (m *ConnManager) Receive() <-chan *Event {
	return m.receivedEvent
}

func (m *ConnManager) OnConnect(f func(Session)) {
	m.onConnect = f
}

// OnDisconnect registers the callback invoked after a connection is removed
// from the manager. Registry cleanup hangs off this hook so a disconnected
// session is never a broadcast target.
func (m *ConnManager) OnDisconnect(f func(Session)) {
	m.onDisconnect = f
}

// Connect upgrades the request to a websocket connection and starts its
// read and write pumps.
func (m *ConnManager) Connect(w http.ResponseWriter, r *http.Request) error {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	wsConn := &Conn{
		conn:        conn,
		id:          id,
		context:     m.context,
		writeStream: make(chan *Event, m.WriteStreamSize),
		readStream:  m.receivedEvent,
		ticker:      time.NewTicker(pingPeriod),
		logger:      m.logger.With(slog.String("connection", id)),
		notifyDisconnect: func() {
			m.disconnect(id)
		},
	}

	m.mu.Lock()
	m.conns[id] = wsConn
	m.mu.Unlock()

	m.connWg.Add(1)
	go func() {
		defer m.connWg.Done()
		wsConn.readLoop()
	}()
	m.connWg.Add(1)
	go func() {
		defer m.connWg.Done()
		wsConn.writeLoop()
	}()

	m.onConnect(wsConn)

	return nil
}

func (m *ConnManager) disconnect(id string) {
	m.mu.Lock()
	conn, ok := m.conns[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.conns, id)
	m.mu.Unlock()

	conn.close()
	m.onDisconnect(conn)
}

// ConnCount reports the number of live connections.
func (m *ConnManager) ConnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}
