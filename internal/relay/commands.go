package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/quietpost/quietpost/internal/transport"
)

const welcomeText = `Hello! Feel free to send your feedback or questions here.
This bot is anonymous - your identity won't be revealed to the recipient.
Please be specific with your feedback to make it more helpful.`

// handleCommand processes slash commands. Unknown commands are not
// handled here and fall through to the feedback pipeline.
func (r *Router) handleCommand(ctx context.Context, msg transport.Message) (bool, error) {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "/start", "/help":
		r.log.Info("Received command", "command", fields[0], "sender", msg.SenderID)
		return true, r.sendText(ctx, msg.ChatID, welcomeText)

	case "/block":
		return true, r.blockCommand(ctx, msg, fields[1:], true)

	case "/unblock":
		return true, r.blockCommand(ctx, msg, fields[1:], false)
	}
	return false, nil
}

// blockCommand runs /block and /unblock. Only the configured
// administrator may invoke them; the reply states whether state actually
// changed.
func (r *Router) blockCommand(ctx context.Context, msg transport.Message, args []string, block bool) error {
	name := "/unblock"
	if block {
		name = "/block"
	}

	if msg.SenderID != r.adminID {
		r.log.Warn("Unauthorized admin command", "command", name, "sender", msg.SenderID)
		return r.sendText(ctx, msg.ChatID, "You are not allowed to use this command.")
	}

	if len(args) != 1 {
		return r.sendText(ctx, msg.ChatID, fmt.Sprintf("Usage: %s <sender id>", name))
	}

	id, err := NormalizeIdentifier(args[0])
	if err != nil {
		return r.sendText(ctx, msg.ChatID, fmt.Sprintf("%q is not a valid sender id. Usage: %s <sender id>", args[0], name))
	}

	var changed bool
	if block {
		changed, err = r.blocks.Block(id)
	} else {
		changed, err = r.blocks.Unblock(id)
	}
	if err != nil {
		r.log.Error("Admin command failed", "command", name, "id", id, "error", err)
		return r.sendText(ctx, msg.ChatID, "Something went wrong, the block list was not updated.")
	}

	switch {
	case block && changed:
		return r.sendText(ctx, msg.ChatID, fmt.Sprintf("Sender %s blocked.", id))
	case block && !changed:
		return r.sendText(ctx, msg.ChatID, fmt.Sprintf("Sender %s is already blocked.", id))
	case changed:
		return r.sendText(ctx, msg.ChatID, fmt.Sprintf("Sender %s unblocked.", id))
	default:
		return r.sendText(ctx, msg.ChatID, fmt.Sprintf("Sender %s is not blocked.", id))
	}
}
