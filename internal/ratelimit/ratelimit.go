package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Window identifies one of the two admission windows applied to every
// sender.
type Window int

const (
	// Fast catches rapid double-sends: 2 events per 2 seconds.
	Fast Window = iota
	// Slow catches sustained spam: 3 events per 60 seconds.
	Slow
)

func (w Window) String() string {
	if w == Fast {
		return "fast"
	}
	return "slow"
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	if w == Fast {
		return 2 * time.Second
	}
	return 60 * time.Second
}

// Max returns the number of events admitted within the window.
func (w Window) Max() int64 {
	if w == Fast {
		return 2
	}
	return 3
}

// CounterStore is the per-key counter with expiry backing the limiter.
// Implementations: Redis (shared across processes) and an in-process map.
type CounterStore interface {
	// Get returns the current counter value, or ok=false if the key has
	// no counter.
	Get(ctx context.Context, key string) (value int64, ok bool, err error)

	// Create sets the counter to 1 with the given TTL. Used for the
	// first event in a window.
	Create(ctx context.Context, key string, ttl time.Duration) error

	// Incr atomically increments the counter without touching its TTL.
	Incr(ctx context.Context, key string) error

	// TTL returns the counter's remaining time to live.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Result of a single window check.
type Result struct {
	Limited    bool
	RetryAfter time.Duration
}

// DegradedFunc is called once per check that had to fail open because the
// counter store errored.
type DegradedFunc func()

// Limiter applies fixed-window admission counters per sender. This is
// deliberately not a token bucket or sliding log: one counter per
// (sender, window) with native store expiry, no background sweeping. The
// cost is a boundary-burst edge case of up to 2x at window edges.
//
// The limiter fails OPEN: if the store is unreachable the message is
// admitted and a degraded-mode event is logged, never surfaced to the
// sender. Availability of the relay wins over strict enforcement.
type Limiter struct {
	store    CounterStore
	log      *slog.Logger
	timeout  time.Duration
	degraded DegradedFunc
}

const storeTimeout = 2 * time.Second

// New creates a limiter over the given counter store. degraded may be nil.
func New(store CounterStore, log *slog.Logger, degraded DegradedFunc) *Limiter {
	if log == nil {
		log = slog.Default()
	}
	return &Limiter{
		store:    store,
		log:      log,
		timeout:  storeTimeout,
		degraded: degraded,
	}
}

// Check evaluates one window for a sender. On the first event in a window
// the counter is created with the window's TTL; below the cap the counter
// is incremented without refreshing the TTL; at or above the cap the
// sender is limited and told how long to wait.
func (l *Limiter) Check(ctx context.Context, senderID int64, w Window) Result {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	key := counterKey(senderID, w)

	current, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return l.failOpen(w, err)
	}
	if !ok {
		if err := l.store.Create(ctx, key, w.Duration()); err != nil {
			return l.failOpen(w, err)
		}
		return Result{}
	}
	if current >= w.Max() {
		ttl, err := l.store.TTL(ctx, key)
		if err != nil {
			return l.failOpen(w, err)
		}
		if ttl < 0 {
			ttl = 0
		}
		return Result{Limited: true, RetryAfter: ttl}
	}
	if err := l.store.Incr(ctx, key); err != nil {
		return l.failOpen(w, err)
	}
	return Result{}
}

func (l *Limiter) failOpen(w Window, err error) Result {
	l.log.Error("Rate limit store unavailable, failing open", "window", w.String(), "error", err)
	if l.degraded != nil {
		l.degraded()
	}
	return Result{}
}

func counterKey(senderID int64, w Window) string {
	if w == Fast {
		return "rate:fast:" + formatID(senderID)
	}
	return "rate:slow:" + formatID(senderID)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
