package chat

import "context"

// Message is one inbound room message.
type Message struct {
	Sender  string
	Body    string
	RoomID  string
	EventID string
}

// Sender posts replies into the control room. The command dispatcher
// depends only on this interface.
type Sender interface {
	// SendText posts a plain-text message.
	SendText(ctx context.Context, body string) error
	// SendHTML posts a message with an HTML alternative for clients that
	// render formatting; body is the plain-text fallback.
	SendHTML(ctx context.Context, body, html string) error
}

// Handler consumes inbound messages from the control room.
type Handler func(ctx context.Context, msg Message)
