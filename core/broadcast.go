package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Broadcaster validates inbound messages, persists them to the chat log and
// fans them out to every session in the destination room. Delivery is
// best-effort: there is no acknowledgment channel back to the sender, a
// failed log append never aborts delivery, and one unreachable recipient
// never blocks the rest.
type Broadcaster struct {
	log    ChatLog
	rooms  *RoomRegistry
	logger *slog.Logger
	now    func() time.Time
	// mu serializes Route so log order and delivery order never diverge
	// for messages to the same room.
	mu sync.Mutex
}

func NewBroadcaster(log ChatLog, rooms *RoomRegistry, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		log:    log,
		rooms:  rooms,
		logger: logger,
		now:    time.Now,
	}
}

// Route processes one inbound message: validate, stamp, append, fan out.
// Messages without a sender or a room are dropped; the protocol has no
// negative-acknowledgment channel, so the drop is only visible to
// operators.
func (b *Broadcaster) Route(ctx context.Context, msg *Message) {
	if !msg.Valid() {
		b.logger.Warn("dropping message without sender or room",
			slog.String("sender", msg.Sender), slog.String("room", msg.RoomID))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	msg.SentAt = b.now()

	// durability is best-effort relative to delivery
	if err := b.log.Append(ctx, msg); err != nil {
		b.logger.Error(fmt.Sprintf("append message log: %v", err),
			slog.String("room", msg.RoomID))
	}

	e, err := NewEvent(ChatMessageEvent, msg.Outbound())
	if err != nil {
		b.logger.Error(fmt.Sprintf("encode outbound message: %v", err))
		return
	}

	members := b.rooms.Members(msg.RoomID)
	b.logger.Debug("broadcasting to room",
		slog.String("room", msg.RoomID), slog.Int("members", len(members)))
	for _, s := range members {
		s.Deliver(e)
	}
}
