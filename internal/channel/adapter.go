package channel

import "context"

// Message is an inbound message from a chat surface.
type Message struct {
	ID        string
	Channel   string
	UserID    string
	Content   string
	Metadata  map[string]string
	Timestamp int64
}

// Response is an outbound reply for a chat surface.
type Response struct {
	Content  string
	Metadata map[string]string
}

// Adapter is implemented by every chat surface the gateway serves.
type Adapter interface {
	// Start begins receiving messages; it returns once receiving is set up.
	Start(ctx context.Context) error

	// Stop tears the adapter down.
	Stop() error

	// SendMessage delivers a reply to the user on this surface.
	SendMessage(userID string, resp *Response) error

	// Incoming returns the stream of inbound messages.
	Incoming() <-chan *Message

	// Name identifies the surface ("telegram", "discord", "webchat").
	Name() string

	// IsEnabled reports whether the adapter has enough config to run.
	IsEnabled() bool
}
