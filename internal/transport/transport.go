package transport

import (
	"context"
	"time"
)

// Message is an inbound text event delivered by the messaging platform.
type Message struct {
	ID       int64
	ChatID   int64
	SenderID int64
	Handle   string
	Text     string
	Received time.Time
}

// Callback is an inline-button press on a previously sent menu.
type Callback struct {
	ID        string
	ChatID    int64
	SenderID  int64
	MessageID int64
	Data      string
}

// Button is a single inline action attached to a message.
type Button struct {
	Label string
	Data  string
}

// Menu is a set of inline buttons, one row per entry.
type Menu struct {
	Rows [][]Button
}

// Conn is the outbound side of the messaging transport. The platform
// client (polling loop, webhook, or the in-process test transport)
// implements it.
type Conn interface {
	// SendText delivers a plain text message and returns its message ID.
	SendText(ctx context.Context, chatID int64, text string) (int64, error)

	// SendMenu delivers a text message with an attached inline menu.
	SendMenu(ctx context.Context, chatID int64, text string, menu Menu) (int64, error)

	// EditMenu replaces the inline menu on a previously sent message.
	EditMenu(ctx context.Context, chatID, messageID int64, menu Menu) error
}
