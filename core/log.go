package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// LogTimeLayout is the timestamp layout of a log line. It must not contain
// the ": " delimiter that Replay splits on.
const LogTimeLayout = "2006-01-02 03:04 PM"

// LogRecord is one replayed log line.
type LogRecord struct {
	Sender  string `json:"sender"`
	Content string `json:"message"`
}

// ChatLog is the durable, append-only record of delivered messages.
type ChatLog interface {
	// Append serializes the message to the line format and appends it to
	// the log. A failed append is reported to the caller but must never
	// abort a broadcast.
	Append(ctx context.Context, msg *Message) error
	// Replay reads the entire log back as ordered (sender, content)
	// records.
	Replay(ctx context.Context) ([]LogRecord, error)
}

// FileChatLog is a ChatLog backed by a single line-oriented file. Each log
// line has the form "<timestamp> - <sender>: <content>\n". Appends are
// serialized by an internal mutex so concurrent writers never interleave
// partial lines. Lines are never mutated or deleted.
type FileChatLog struct {
	path string
	mu   sync.Mutex
}

func NewFileChatLog(path string) *FileChatLog {
	return &FileChatLog{path: path}
}

func (l *FileChatLog) Append(_ context.Context, msg *Message) error {
	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	line := fmt.Sprintf("%s - %s: %s\n",
		sentAt.Format(LogTimeLayout), msg.Sender, msg.LogContent())

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// Replay parses the log back into records, in append order. The parse is a
// lossy, best-effort split on the first occurrence of ": " per line: the
// text before it (minus the timestamp prefix) is the sender, the text after
// it is the content. Content that itself contains ": " is truncated at the
// first occurrence. This mirrors the historical log consumers and is kept
// for compatibility.
func (l *FileChatLog) Replay(_ context.Context) ([]LogRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	var records []LogRecord
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		records = append(records, parseLogLine(line))
	}
	return records, nil
}

func parseLogLine(line string) LogRecord {
	var rec LogRecord
	prefix, rest, _ := strings.Cut(line, ": ")
	// content is the segment between the first and second delimiter;
	// anything past a second ": " is lost, as it always has been
	content, _, _ := strings.Cut(rest, ": ")
	rec.Content = content
	if _, sender, ok := strings.Cut(prefix, " - "); ok {
		rec.Sender = sender
	} else {
		rec.Sender = prefix
	}
	return rec
}
