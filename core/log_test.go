package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempLog(t *testing.T) *FileChatLog {
	t.Helper()
	return NewFileChatLog(filepath.Join(t.TempDir(), "messages.txt"))
}

func TestAppendWritesFormattedLine(t *testing.T) {
	log := tempLog(t)

	sentAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	msg := &Message{
		Sender:      "A",
		Content:     "hello",
		ContentType: TextContent,
		RoomID:      "r1",
		SentAt:      sentAt,
	}
	require.NoError(t, log.Append(context.Background(), msg))

	data, err := os.ReadFile(log.path)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 10:00 AM - A: hello\n", string(data))
}

func TestAppendImageWritesPlaceholder(t *testing.T) {
	log := tempLog(t)

	msg := &Message{
		Sender:      "A",
		Content:     "aGVsbG8=",
		ContentType: ImageContent,
		RoomID:      "r1",
		SentAt:      time.Now(),
	}
	require.NoError(t, log.Append(context.Background(), msg))

	data, err := os.ReadFile(log.path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "A: [image]\n"))
	assert.NotContains(t, string(data), "aGVsbG8=")
}

func TestReplayReturnsEntriesInAppendOrder(t *testing.T) {
	log := tempLog(t)

	for i := 0; i < 10; i++ {
		msg := &Message{
			Sender:  "A",
			Content: fmt.Sprintf("msg-%d", i),
			RoomID:  "r1",
			SentAt:  time.Now(),
		}
		require.NoError(t, log.Append(context.Background(), msg))
	}

	records, err := log.Replay(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 10)
	for i, rec := range records {
		assert.Equal(t, "A", rec.Sender)
		assert.Equal(t, fmt.Sprintf("msg-%d", i), rec.Content)
	}
}

func TestReplayParsesLogLine(t *testing.T) {
	log := tempLog(t)
	require.NoError(t, os.WriteFile(log.path,
		[]byte("2024-01-01 10:00 AM - A: hello\n"), 0644))

	records, err := log.Replay(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, LogRecord{Sender: "A", Content: "hello"}, records[0])
}

func TestReplaySkipsEmptyLines(t *testing.T) {
	log := tempLog(t)
	require.NoError(t, os.WriteFile(log.path,
		[]byte("\n2024-01-01 10:00 AM - A: one\n\n2024-01-01 10:01 AM - B: two\n\n"), 0644))

	records, err := log.Replay(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "one", records[0].Content)
	assert.Equal(t, "B", records[1].Sender)
}

// Content containing the ": " delimiter is truncated at the next
// occurrence. The parse is intentionally kept compatible with the
// historical log consumers, fragility included.
func TestReplayTruncatesContentAtDelimiter(t *testing.T) {
	log := tempLog(t)
	require.NoError(t, os.WriteFile(log.path,
		[]byte("2024-01-01 10:00 AM - A: note: remember: this\n"), 0644))

	records, err := log.Replay(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Sender)
	assert.Equal(t, "note", records[0].Content)
}

func TestReplayMissingFileFails(t *testing.T) {
	log := NewFileChatLog(filepath.Join(t.TempDir(), "does-not-exist.txt"))

	_, err := log.Replay(context.Background())
	require.Error(t, err)
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	log := tempLog(t)

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				msg := &Message{
					Sender:  fmt.Sprintf("writer-%d", w),
					Content: fmt.Sprintf("msg-%d", i),
					RoomID:  "r1",
					SentAt:  time.Now(),
				}
				require.NoError(t, log.Append(context.Background(), msg))
			}
		}(w)
	}
	wg.Wait()

	records, err := log.Replay(context.Background())
	require.NoError(t, err)
	require.Len(t, records, writers*perWriter)
	for _, rec := range records {
		assert.True(t, strings.HasPrefix(rec.Sender, "writer-"),
			"malformed sender: %q", rec.Sender)
		assert.True(t, strings.HasPrefix(rec.Content, "msg-"),
			"malformed content: %q", rec.Content)
	}
}
