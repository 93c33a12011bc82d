package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quietpost/quietpost/internal/transport"
)

// Conn is a line-oriented transport for local operation and manual
// testing. Outbound deliveries are printed; inbound events are read as
// lines of the form
//
//	<senderID> <text>          a message from that sender
//	<senderID> /cb <data>      a button press with the printed payload
//
// A real platform client replaces this in production.
type Conn struct {
	mu     sync.Mutex
	out    io.Writer
	nextID int64
}

// NewConn creates a console transport writing to out.
func NewConn(out io.Writer) *Conn {
	return &Conn{out: out}
}

func (c *Conn) SendText(_ context.Context, chatID int64, text string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	fmt.Fprintf(c.out, "[chat %d] %s\n", chatID, text)
	return c.nextID, nil
}

func (c *Conn) SendMenu(_ context.Context, chatID int64, text string, menu transport.Menu) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	fmt.Fprintf(c.out, "[chat %d] %s\n", chatID, text)
	c.printMenu(menu)
	return c.nextID, nil
}

func (c *Conn) EditMenu(_ context.Context, chatID, messageID int64, menu transport.Menu) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[chat %d] (menu %d updated)\n", chatID, messageID)
	c.printMenu(menu)
	return nil
}

func (c *Conn) printMenu(menu transport.Menu) {
	for _, row := range menu.Rows {
		for _, b := range row {
			fmt.Fprintf(c.out, "  [%s] /cb %s\n", b.Label, b.Data)
		}
	}
}

// MessageHandler processes one inbound message.
type MessageHandler func(ctx context.Context, msg transport.Message) error

// CallbackHandler processes one inline-button press.
type CallbackHandler func(ctx context.Context, cb transport.Callback) error

// Run reads inbound events from in until EOF or context cancellation,
// dispatching each to completion before reading the next.
func Run(ctx context.Context, in io.Reader, onMessage MessageHandler, onCallback CallbackHandler) error {
	scanner := bufio.NewScanner(in)
	var nextMsgID int64

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		senderField, rest, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		senderID, err := strconv.ParseInt(senderField, 10, 64)
		if err != nil {
			continue
		}

		if data, isCb := strings.CutPrefix(rest, "/cb "); isCb {
			cb := transport.Callback{
				ID:       strconv.FormatInt(senderID, 10),
				ChatID:   senderID,
				SenderID: senderID,
				Data:     strings.TrimSpace(data),
			}
			// Handler failures are logged by the router; the loop
			// keeps serving.
			_ = onCallback(ctx, cb)
			continue
		}

		nextMsgID++
		msg := transport.Message{
			ID:       nextMsgID,
			ChatID:   senderID,
			SenderID: senderID,
			Text:     rest,
			Received: time.Now(),
		}
		_ = onMessage(ctx, msg)
	}
	return scanner.Err()
}

// Ensure Conn implements transport.Conn
var _ transport.Conn = (*Conn)(nil)
