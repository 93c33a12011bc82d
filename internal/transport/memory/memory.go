package memory

import (
	"context"
	"sync"

	"github.com/quietpost/quietpost/internal/transport"
)

// Sent is a single outbound delivery recorded by the in-process transport.
type Sent struct {
	ChatID    int64
	MessageID int64
	Text      string
	Menu      transport.Menu
	HasMenu   bool
}

// Conn is an in-process implementation of transport.Conn. Deliveries are
// recorded in order and can be inspected afterwards. Used by tests and by
// the dry-run mode of the daemon.
type Conn struct {
	mu     sync.Mutex
	nextID int64
	sent   []Sent

	// SendErr, when set, is returned by every delivery attempt.
	SendErr error
}

// NewConn creates an empty in-process transport.
func NewConn() *Conn {
	return &Conn{}
}

func (c *Conn) SendText(_ context.Context, chatID int64, text string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return 0, c.SendErr
	}
	c.nextID++
	c.sent = append(c.sent, Sent{ChatID: chatID, MessageID: c.nextID, Text: text})
	return c.nextID, nil
}

func (c *Conn) SendMenu(_ context.Context, chatID int64, text string, menu transport.Menu) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return 0, c.SendErr
	}
	c.nextID++
	c.sent = append(c.sent, Sent{ChatID: chatID, MessageID: c.nextID, Text: text, Menu: menu, HasMenu: true})
	return c.nextID, nil
}

func (c *Conn) EditMenu(_ context.Context, chatID, messageID int64, menu transport.Menu) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	for i := range c.sent {
		if c.sent[i].ChatID == chatID && c.sent[i].MessageID == messageID {
			c.sent[i].Menu = menu
			c.sent[i].HasMenu = true
			return nil
		}
	}
	return nil
}

// All returns a copy of everything delivered so far, in order.
func (c *Conn) All() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sent, len(c.sent))
	copy(out, c.sent)
	return out
}

// To returns deliveries addressed to a single chat, in order.
func (c *Conn) To(chatID int64) []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Sent
	for _, s := range c.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Ensure Conn implements transport.Conn
var _ transport.Conn = (*Conn)(nil)
