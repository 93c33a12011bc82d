package relay

import (
	"context"
	"fmt"

	"github.com/quietpost/quietpost/internal/action"
	"github.com/quietpost/quietpost/internal/transport"
)

// HandleCallback processes an inline-button press on a forwarded feedback
// notification. Only the administrator has these menus; presses from
// anyone else are dropped.
func (r *Router) HandleCallback(ctx context.Context, cb transport.Callback) error {
	if cb.SenderID != r.adminID {
		r.log.Warn("Ignoring callback from non-administrator", "sender", cb.SenderID)
		return nil
	}

	ref, err := action.Decode(cb.Data)
	if err != nil {
		r.log.Warn("Invalid callback payload", "error", err)
		return r.sendText(ctx, cb.ChatID, "This action is no longer valid.")
	}

	note, ok := r.notes.Get(ref.NoteID)
	if !ok {
		return r.sendText(ctx, cb.ChatID, "This action has expired.")
	}

	switch ref.Kind {
	case action.Block, action.Unblock:
		return r.toggleBlock(ctx, cb, ref, note)
	case action.ReplyGroup:
		r.pending.set(cb.ChatID, pendingGroup, ref.NoteID)
		return r.sendText(ctx, cb.ChatID, fmt.Sprintf("Please reply with your answer to:\n\n%s", note.Question))
	case action.ReplyDirect:
		r.pending.set(cb.ChatID, pendingDirect, ref.NoteID)
		return r.sendText(ctx, cb.ChatID, fmt.Sprintf("Please reply with your answer to send to the sender:\n\n%s", note.Question))
	}
	return nil
}

func (r *Router) toggleBlock(ctx context.Context, cb transport.Callback, ref action.Ref, note action.Note) error {
	senderKey := CanonicalID(note.SenderID)

	var changed bool
	var err error
	if ref.Kind == action.Block {
		changed, err = r.blocks.Block(senderKey)
	} else {
		changed, err = r.blocks.Unblock(senderKey)
	}
	if err != nil {
		r.log.Error("Block toggle failed", "sender", senderKey, "error", err)
		return r.sendText(ctx, cb.ChatID, "Something went wrong, the block list was not updated.")
	}

	// Regenerate the menu so it reflects the current state; a stale menu
	// must never offer the action that was just taken.
	menu := r.buildMenu(ref.NoteID, r.blocks.IsBlocked(senderKey))
	if err := r.editMenu(ctx, cb.ChatID, cb.MessageID, menu); err != nil {
		r.log.Error("Failed to update action menu", "error", err)
	}

	return r.sendText(ctx, cb.ChatID, toggleText(ref.Kind, changed))
}

func toggleText(kind action.Kind, changed bool) string {
	if kind == action.Block {
		if changed {
			return "Sender blocked."
		}
		return "Sender was already blocked."
	}
	if changed {
		return "Sender unblocked."
	}
	return "Sender was not blocked."
}

// completePending finishes a two-step reply flow: the administrator was
// prompted for an answer and this message is it.
func (r *Router) completePending(ctx context.Context, msg transport.Message) (bool, error) {
	entry, ok := r.pending.take(msg.ChatID)
	if !ok {
		return false, nil
	}

	note, ok := r.notes.Get(entry.noteID)
	if !ok {
		return true, r.sendText(ctx, msg.ChatID, "The original question is no longer available.")
	}

	switch entry.kind {
	case pendingGroup:
		if err := r.sendText(ctx, msg.ChatID, "Here's your formatted answer for the group. You can copy or forward it:"); err != nil {
			return true, err
		}
		formatted := fmt.Sprintf("Q: %s\n\n%s", note.Question, msg.Text)
		r.log.Info("Group answer formatted", "note", entry.noteID)
		return true, r.sendText(ctx, msg.ChatID, formatted)

	case pendingDirect:
		reply := fmt.Sprintf("Reply to your question:\n\n%s\n\n%s", note.Question, msg.Text)
		if err := r.sendText(ctx, note.SenderID, reply); err != nil {
			r.log.Error("Failed to deliver answer", "sender", note.SenderID, "error", err)
			return true, r.sendText(ctx, msg.ChatID, "Failed to send your answer to the sender.")
		}
		r.log.Info("Answer delivered to sender", "sender", note.SenderID)
		return true, r.sendText(ctx, msg.ChatID, "Your answer has been sent to the sender.")
	}
	return true, nil
}
