package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanwk/relay/core"
	"github.com/tanwk/relay/pkg/router"
)

func historyServer(t *testing.T, logPath string) *httptest.Server {
	t.Helper()
	r := router.New(router.WithLogger(testLogger()))
	r.Get("/api/messages", NewHistoryHandler(core.NewFileChatLog(logPath)).GetMessagesHandler)
	server := httptest.NewServer(r.Router)
	t.Cleanup(server.Close)
	return server
}

func TestGetMessagesReturnsReplay(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "messages.txt")
	require.NoError(t, os.WriteFile(logPath, []byte(
		"2024-01-01 10:00 AM - A: hello\n2024-01-01 10:01 AM - B: hey\n"), 0644))

	server := historyServer(t, logPath)

	res, err := http.Get(server.URL + "/api/messages")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var body HistoryResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Messages, 2)
	assert.Equal(t, core.LogRecord{Sender: "A", Content: "hello"}, body.Messages[0])
	assert.Equal(t, core.LogRecord{Sender: "B", Content: "hey"}, body.Messages[1])
}

func TestGetMessagesEmptyLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "messages.txt")
	require.NoError(t, os.WriteFile(logPath, nil, 0644))

	server := historyServer(t, logPath)

	res, err := http.Get(server.URL + "/api/messages")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var body HistoryResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Empty(t, body.Messages)
	assert.NotNil(t, body.Messages)
}

func TestGetMessagesReadFailure(t *testing.T) {
	// log file was never created
	server := historyServer(t, filepath.Join(t.TempDir(), "missing.txt"))

	res, err := http.Get(server.URL + "/api/messages")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusInternalServerError, res.StatusCode)

	var body router.JsonError
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "failed to read messages", body.Err)
}
