package relay

import (
	"encoding/json"
	"net/http"

	"github.com/tanwk/relay/core"
	"github.com/tanwk/relay/pkg/router"
)

type HistoryHandler struct {
	log core.ChatLog
}

func NewHistoryHandler(log core.ChatLog) *HistoryHandler {
	return &HistoryHandler{log: log}
}

type HistoryResponse struct {
	Messages []core.LogRecord `json:"messages"`
}

// GetMessagesHandler returns the full ordered replay of the message log.
// The replay may race with concurrent appends; the snapshot it returns is
// best-effort, not transactional.
func (h *HistoryHandler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) error {
	records, err := h.log.Replay(r.Context())
	if err != nil {
		return router.NewJsonError(http.StatusInternalServerError, "failed to read messages")
	}
	if records == nil {
		records = []core.LogRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HistoryResponse{Messages: records})
	return nil
}
