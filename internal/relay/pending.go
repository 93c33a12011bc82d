package relay

import (
	"sync"
	"time"
)

type pendingKind int

const (
	pendingGroup pendingKind = iota
	pendingDirect
)

type pendingReply struct {
	kind      pendingKind
	noteID    string
	expiresAt time.Time
}

// pendingReplies holds at most one expected reply per administrator chat.
// Entries expire so that an abandoned prompt does not swallow an unrelated
// message days later.
type pendingReplies struct {
	mu      sync.Mutex
	entries map[int64]pendingReply
	ttl     time.Duration
	now     func() time.Time
}

const pendingTTL = 5 * time.Minute

func newPendingReplies() *pendingReplies {
	return &pendingReplies{
		entries: make(map[int64]pendingReply),
		ttl:     pendingTTL,
		now:     time.Now,
	}
}

func (p *pendingReplies) set(chatID int64, kind pendingKind, noteID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[chatID] = pendingReply{
		kind:      kind,
		noteID:    noteID,
		expiresAt: p.now().Add(p.ttl),
	}
}

// take removes and returns the pending reply for a chat, if one exists and
// has not expired.
func (p *pendingReplies) take(chatID int64) (pendingReply, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[chatID]
	if !ok {
		return pendingReply{}, false
	}
	delete(p.entries, chatID)
	if p.now().After(entry.expiresAt) {
		return pendingReply{}, false
	}
	return entry, true
}
