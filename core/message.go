package core

import (
	"fmt"
	"time"
)

const (
	// TextContent indicates that the message content is a UTF-8 encoded string
	// and is delivered verbatim.
	TextContent ContentType = "text"
	// ImageContent indicates that the message content is a base64 encoded
	// image. It is delivered as a data URI and logged as a placeholder.
	ImageContent ContentType = "image"
)

// ContentType determines how the message content is rendered for delivery
// and for the durable log.
type ContentType string

// ImagePlaceholder is written to the log in place of image bytes.
// Image content is never persisted, only marked.
const ImagePlaceholder = "[image]"

const defaultImageMime = "image/png"

// Message is the unit of communication. Routing is by RoomID; Receiver is
// informational only.
type Message struct {
	Sender      string      `json:"sender"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"contentType"`
	Receiver    string      `json:"receiver,omitempty"`
	RoomID      string      `json:"roomId"`
	// Mime qualifies image content. Ignored for text messages.
	Mime string `json:"mime,omitempty"`
	// SentAt is assigned by the relay when the message is routed,
	// never by the client.
	SentAt time.Time `json:"-"`
}

// Valid reports whether the message may be routed. A message without a
// sender or a room is dropped at the boundary.
func (m *Message) Valid() bool {
	return m.Sender != "" && m.RoomID != ""
}

// Rendered returns the delivery form of the content: text passes through
// verbatim, image content is wrapped into a self-describing data URI so
// receivers can render it without a side channel.
func (m *Message) Rendered() string {
	if m.ContentType != ImageContent {
		return m.Content
	}
	mime := m.Mime
	if mime == "" {
		mime = defaultImageMime
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, m.Content)
}

// LogContent returns the form of the content written to the durable log.
func (m *Message) LogContent() string {
	if m.ContentType == ImageContent {
		return ImagePlaceholder
	}
	return m.Content
}

// OutboundMessage is the payload pushed to every member of the resolved room.
type OutboundMessage struct {
	Sender      string      `json:"sender"`
	Content     string      `json:"content"`
	Receiver    string      `json:"receiver,omitempty"`
	ContentType ContentType `json:"contentType"`
	Status      string      `json:"status"`
}

// Outbound builds the delivery payload for the message.
func (m *Message) Outbound() OutboundMessage {
	contentType := m.ContentType
	if contentType == "" {
		contentType = TextContent
	}
	return OutboundMessage{
		Sender:      m.Sender,
		Content:     m.Rendered(),
		Receiver:    m.Receiver,
		ContentType: contentType,
		Status:      "sent",
	}
}
