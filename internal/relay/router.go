package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/quietpost/quietpost/internal/action"
	"github.com/quietpost/quietpost/internal/admission"
	"github.com/quietpost/quietpost/internal/metrics"
	"github.com/quietpost/quietpost/internal/transport"
)

// Ledger is the slice of the feedback ledger the router needs.
type Ledger interface {
	Append(text string, at time.Time) (int, error)
}

// BlockStore is the slice of the block list the router needs.
type BlockStore interface {
	IsBlocked(id string) bool
	Block(id string) (bool, error)
	Unblock(id string) (bool, error)
}

// Admitter produces the admission decision for one inbound message.
type Admitter interface {
	Admit(ctx context.Context, senderID int64, senderKey, text string) admission.Decision
}

// EmailCopier receives a best-effort email copy of forwarded feedback.
type EmailCopier interface {
	FeedbackCopy(sequence int, text string) error
}

// Config wires the router to its collaborators.
type Config struct {
	Conn    transport.Conn
	Admit   Admitter
	Ledger  Ledger
	Blocks  BlockStore
	Notes   *action.Registry
	Email   EmailCopier // optional
	AdminID int64

	// RateMax/RatePer throttle outbound sends; zero disables.
	RateMax int
	RatePer time.Duration

	Log *slog.Logger
}

// Router applies admission decisions: it silently drops, replies with a
// rejection reason, or forwards admitted feedback to the administrator
// with an action menu, records it, and acknowledges the sender. It also
// runs the administrator's reply flows and block commands.
type Router struct {
	conn    transport.Conn
	admit   Admitter
	ledger  Ledger
	blocks  BlockStore
	notes   *action.Registry
	email   EmailCopier
	adminID int64
	pace    *rate.Limiter
	pending *pendingReplies
	log     *slog.Logger
	now     func() time.Time
}

// NewRouter creates a relay router.
func NewRouter(cfg Config) *Router {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	var pace *rate.Limiter
	if cfg.RateMax > 0 && cfg.RatePer > 0 {
		pace = rate.NewLimiter(rate.Limit(float64(cfg.RateMax)/cfg.RatePer.Seconds()), cfg.RateMax)
	}
	return &Router{
		conn:    cfg.Conn,
		admit:   cfg.Admit,
		ledger:  cfg.Ledger,
		blocks:  cfg.Blocks,
		notes:   cfg.Notes,
		email:   cfg.Email,
		adminID: cfg.AdminID,
		pace:    pace,
		pending: newPendingReplies(),
		log:     log,
		now:     time.Now,
	}
}

// HandleMessage routes one inbound text event: administrator commands and
// pending reply flows first, everything else through the admission
// pipeline.
func (r *Router) HandleMessage(ctx context.Context, msg transport.Message) error {
	if strings.HasPrefix(msg.Text, "/") {
		if handled, err := r.handleCommand(ctx, msg); handled {
			return err
		}
	}

	if msg.SenderID == r.adminID {
		if done, err := r.completePending(ctx, msg); done {
			return err
		}
	}

	return r.handleFeedback(ctx, msg)
}

func (r *Router) handleFeedback(ctx context.Context, msg transport.Message) error {
	senderKey := CanonicalID(msg.SenderID)

	decision := r.admit.Admit(ctx, msg.SenderID, senderKey, msg.Text)
	if !decision.Admitted {
		if decision.Silent {
			return nil
		}
		return r.sendText(ctx, msg.ChatID, rejectionText(decision))
	}

	// Forward to the administrator first, then record, then acknowledge.
	noteID := r.notes.Put(msg.SenderID, msg.Text)
	menu := r.buildMenu(noteID, r.blocks.IsBlocked(senderKey))
	notification := fmt.Sprintf("New feedback: %q", msg.Text)
	if _, err := r.sendMenu(ctx, r.adminID, notification, menu); err != nil {
		r.log.Error("Failed to forward feedback", "sender", senderKey, "error", err)
		return r.sendText(ctx, msg.ChatID, textDeliveryFailed)
	}

	seq, err := r.ledger.Append(msg.Text, r.now())
	if err != nil {
		r.log.Error("Failed to record feedback", "sender", senderKey, "error", err)
		return r.sendText(ctx, msg.ChatID, textDeliveryFailed)
	}
	metrics.Forwards.Inc()
	r.log.Info("Feedback forwarded", "sender", senderKey, "sequence", seq)

	if r.email != nil {
		if err := r.email.FeedbackCopy(seq, msg.Text); err != nil {
			r.log.Error("Failed to email feedback copy", "sequence", seq, "error", err)
		}
	}

	ack := fmt.Sprintf("Thank you! Your message: %q\nhas been successfully recorded. You'll receive a response soon.", msg.Text)
	return r.sendText(ctx, msg.ChatID, ack)
}

// buildMenu renders the per-message action menu. The block toggle always
// reflects the sender's blocked state at render time.
func (r *Router) buildMenu(noteID string, blocked bool) transport.Menu {
	toggle := transport.Button{
		Label: "Block sender",
		Data:  action.Ref{Kind: action.Block, NoteID: noteID}.Encode(),
	}
	if blocked {
		toggle = transport.Button{
			Label: "Unblock sender",
			Data:  action.Ref{Kind: action.Unblock, NoteID: noteID}.Encode(),
		}
	}
	return transport.Menu{
		Rows: [][]transport.Button{
			{
				{Label: "Answer for group", Data: action.Ref{Kind: action.ReplyGroup, NoteID: noteID}.Encode()},
				{Label: "Answer to sender", Data: action.Ref{Kind: action.ReplyDirect, NoteID: noteID}.Encode()},
			},
			{toggle},
		},
	}
}

func rejectionText(d admission.Decision) string {
	switch d.Reason {
	case admission.ReasonLimitedFast, admission.ReasonLimitedSlow:
		secs := int(d.RetryAfter.Seconds())
		if d.RetryAfter > time.Duration(secs)*time.Second {
			secs++
		}
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("You're sending messages too quickly. Please wait %d seconds and try again.", secs)
	case admission.ReasonEmptyContent:
		return "Please include some text in your message, not just emojis."
	case admission.ReasonTooLong:
		return "Sorry, your message is too long. Please divide it into several parts and try again."
	case admission.ReasonBadEncoding:
		return "An error occurred. Please try removing special characters and emojis."
	}
	return "Sorry, your message could not be accepted."
}

const textDeliveryFailed = "An error occurred while recording your message. Please try again later."

func (r *Router) sendText(ctx context.Context, chatID int64, text string) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	_, err := r.conn.SendText(ctx, chatID, text)
	return err
}

func (r *Router) sendMenu(ctx context.Context, chatID int64, text string, menu transport.Menu) (int64, error) {
	if err := r.wait(ctx); err != nil {
		return 0, err
	}
	return r.conn.SendMenu(ctx, chatID, text, menu)
}

func (r *Router) editMenu(ctx context.Context, chatID, messageID int64, menu transport.Menu) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	return r.conn.EditMenu(ctx, chatID, messageID, menu)
}

func (r *Router) wait(ctx context.Context) error {
	if r.pace == nil {
		return nil
	}
	return r.pace.Wait(ctx)
}
