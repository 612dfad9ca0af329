// Package message provides the notification message structure for PushRelay
package message

import (
	"time"

	"github.com/kart-io/pushrelay/pkg/utils/idgen"
)

// Format represents message format types
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// String returns the string representation of format
func (f Format) String() string {
	return string(f)
}

// IsValid returns true if the format is valid
func (f Format) IsValid() bool {
	switch f {
	case FormatText, FormatMarkdown:
		return true
	default:
		return false
	}
}

// DefaultTitle is used when a message is built from bare content.
const DefaultTitle = "PushRelay Notification"

// Message represents a single notification to be delivered on one channel.
// It is a transient value: nothing here is persisted beyond the call.
type Message struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Format    Format                 `json:"format"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// New creates a new message with a generated ID and defaults
func New() *Message {
	return &Message{
		ID:        idgen.GenerateMessageID(),
		Title:     DefaultTitle,
		Format:    FormatText,
		CreatedAt: time.Now(),
	}
}

// NewText creates a text message with the given title and body
func NewText(title, body string) *Message {
	m := New()
	if title != "" {
		m.Title = title
	}
	m.Body = body
	return m
}

// SetMetadata sets a metadata value
func (m *Message) SetMetadata(key string, value interface{}) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
}

// IsEmpty reports whether the message carries no content. The title alone is
// not deliverable content; every provider payload is built around the body.
func (m *Message) IsEmpty() bool {
	return m.Body == ""
}
