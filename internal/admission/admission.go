package admission

import (
	"context"
	"log/slog"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/quietpost/quietpost/internal/metrics"
	"github.com/quietpost/quietpost/internal/ratelimit"
)

// Reason says why a message was rejected.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonBlocked      Reason = "sender_blocked"
	ReasonLimitedFast  Reason = "rate_limited_fast"
	ReasonLimitedSlow  Reason = "rate_limited_slow"
	ReasonEmptyContent Reason = "empty_or_symbols_only"
	ReasonTooLong      Reason = "too_long"
	ReasonBadEncoding  Reason = "encoding_error"
)

// MaxTextLen is the longest feedback message admitted, in characters.
const MaxTextLen = 500

// Decision is the single admission outcome for one inbound message,
// produced before any side effect. Silent means no reply of any kind goes
// back to the sender.
type Decision struct {
	Admitted   bool
	Reason     Reason
	RetryAfter time.Duration
	Silent     bool
}

// BlockChecker answers whether a canonical sender identifier is blocked.
type BlockChecker interface {
	IsBlocked(id string) bool
}

// RateChecker evaluates one admission window for a sender.
type RateChecker interface {
	Check(ctx context.Context, senderID int64, w ratelimit.Window) ratelimit.Result
}

// Controller runs every inbound message through the admission gates in a
// fixed order: block check, fast window, slow window, content shape,
// encoding. The first failing gate decides; no gate is skipped while the
// prior ones pass. All validation happens here, before the relay send and
// before persistence.
type Controller struct {
	blocks  BlockChecker
	limiter RateChecker
	log     *slog.Logger
}

// New wires the admission controller to its stores.
func New(blocks BlockChecker, limiter RateChecker, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{blocks: blocks, limiter: limiter, log: log}
}

// Admit gates one inbound message. senderKey is the sender's canonical
// identifier as used by the block list.
func (c *Controller) Admit(ctx context.Context, senderID int64, senderKey, text string) Decision {
	if c.blocks.IsBlocked(senderKey) {
		// Silent drop: replying would reveal block status and let
		// blocked senders probe the system.
		c.log.Info("Dropped message from blocked sender", "sender", senderKey)
		return reject(ReasonBlocked, 0, true)
	}

	if res := c.limiter.Check(ctx, senderID, ratelimit.Fast); res.Limited {
		c.log.Warn("Sender rate limited", "sender", senderKey, "window", "fast", "retry_after", res.RetryAfter)
		return reject(ReasonLimitedFast, res.RetryAfter, false)
	}
	if res := c.limiter.Check(ctx, senderID, ratelimit.Slow); res.Limited {
		c.log.Warn("Sender rate limited", "sender", senderKey, "window", "slow", "retry_after", res.RetryAfter)
		return reject(ReasonLimitedSlow, res.RetryAfter, false)
	}

	if !hasAlnum(text) {
		c.log.Warn("Rejected message without text content", "sender", senderKey)
		return reject(ReasonEmptyContent, 0, false)
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		c.log.Warn("Rejected over-length message", "sender", senderKey, "length", utf8.RuneCountInString(text))
		return reject(ReasonTooLong, 0, false)
	}
	if !utf8.ValidString(text) {
		c.log.Warn("Rejected message with invalid encoding", "sender", senderKey)
		return reject(ReasonBadEncoding, 0, false)
	}

	metrics.Admissions.WithLabelValues("admitted").Inc()
	return Decision{Admitted: true}
}

func reject(reason Reason, retryAfter time.Duration, silent bool) Decision {
	metrics.Admissions.WithLabelValues(string(reason)).Inc()
	return Decision{Reason: reason, RetryAfter: retryAfter, Silent: silent}
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
