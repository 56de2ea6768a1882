package relay

import (
	"log/slog"

	"github.com/tanwk/relay/core"
)

func (app *App) onConnect(s core.Session) {
	app.logger.Info("client connected", slog.String("session", s.ID()))
}

// onDisconnect removes the session from every room it joined before the
// session object becomes unreachable, so no broadcast ever targets it
// again.
func (app *App) onDisconnect(s core.Session) {
	app.rooms.LeaveAll(s)
	app.logger.Info("client disconnected", slog.String("session", s.ID()))
}
