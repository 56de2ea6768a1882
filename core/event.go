package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

const (
	// LoginEvent joins the issuing session to a room.
	LoginEvent = "login"
	// ChatMessageEvent carries a chat message, inbound and outbound.
	ChatMessageEvent = "chat message"
)

// Event is one frame of the websocket protocol.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	// Session is the connection the event arrived on. Set by the
	// connection layer, never carried on the wire.
	Session Session `json:"-"`
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Type: %s, Payload.Size: %d}", e.Type, len(e.Payload))
}

func EncodeEvent(w io.Writer, e *Event) error {
	if err := json.NewEncoder(w).Encode(e); err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return nil
}

func DecodeEvent(r io.Reader, e *Event) error {
	if err := json.NewDecoder(r).Decode(e); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return nil
}

// NewEvent marshals payload into an event frame of the given type.
func NewEvent(t string, payload any) (*Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return &Event{Type: t, Payload: b}, nil
}

// EventTransport is the source of inbound events.
type EventTransport interface {
	Receive() <-chan *Event
}

type EventHandler func(context.Context, *Event) error

// EventRouter dispatches inbound events to the handler registered for their
// type. Handlers run one at a time on the router goroutine, so events from
// all connections are processed in a single consistent order. Handler
// errors are logged, never fatal.
type EventRouter struct {
	listeners map[string]EventHandler
	ctx       context.Context
	transport EventTransport
	logger    *slog.Logger
	done      chan struct{}
}

func NewEventRouter(ctx context.Context, logger *slog.Logger, transport EventTransport) *EventRouter {
	return &EventRouter{
		listeners: make(map[string]EventHandler),
		ctx:       ctx,
		transport: transport,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// On registers the handler for an event type. It must be called before
// Listen.
func (em *EventRouter) On(eventType string, handler EventHandler) {
	em.listeners[eventType] = handler
}

// Listen starts the dispatch goroutine.
func (em *EventRouter) Listen() {
	go func() {
		defer close(em.done)
		for {
			select {
			case <-em.ctx.Done():
				return
			case e := <-em.transport.Receive():
				em.logger.Debug(fmt.Sprintf("received: %v", e))
				handler, ok := em.listeners[e.Type]
				if !ok {
					em.logger.Debug(fmt.Sprintf("no handler for event type: %s", e.Type))
					continue
				}
				if err := handler(em.ctx, e); err != nil {
					em.logger.Error(fmt.Sprintf("%s handler: %s", e.Type, err))
				}
			}
		}
	}()
}

// Close waits for the dispatch goroutine to exit, or for ctx to expire.
func (em *EventRouter) Close(ctx context.Context) {
	select {
	case <-em.done:
	case <-ctx.Done():
		em.logger.Info("event router close timed out")
	}
}
