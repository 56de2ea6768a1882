package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tanwk/relay/core"
)

type LoginEventPayload struct {
	RoomID string `json:"roomId"`
}

// LoginEventHandler joins the issuing session to the requested room. The
// payload is either {"roomId": "..."} or, for older clients, a bare JSON
// string carrying the room identifier.
func (app *App) LoginEventHandler(ctx context.Context, e *core.Event) error {
	var payload LoginEventPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		var roomID string
		if err := json.Unmarshal(e.Payload, &roomID); err != nil {
			return fmt.Errorf("unmarshal login payload: %w", err)
		}
		payload.RoomID = roomID
	}
	if payload.RoomID == "" {
		return fmt.Errorf("login without room id")
	}

	app.rooms.Join(payload.RoomID, e.Session)
	app.logger.Info("session joined room",
		slog.String("session", e.Session.ID()),
		slog.String("room", payload.RoomID))
	return nil
}

// MessageEventHandler hands an inbound chat message to the broadcaster.
// Validation, persistence and fan-out all happen there; a malformed or
// invalid message is dropped without a reply since the protocol has no
// error channel back to the sender.
func (app *App) MessageEventHandler(ctx context.Context, e *core.Event) error {
	var msg core.Message
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return fmt.Errorf("unmarshal message payload: %w", err)
	}

	app.broadcaster.Route(ctx, &msg)
	return nil
}
