package action

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Note is the context behind a forwarded feedback notification: who sent
// it and what they said. Buttons reference notes by ID.
type Note struct {
	SenderID  int64
	Question  string
	CreatedAt time.Time
}

// Registry holds notes for the lifetime of their action menus. Entries
// expire so that abandoned menus do not accumulate state.
type Registry struct {
	mu    sync.Mutex
	notes map[string]Note
	ttl   time.Duration
	now   func() time.Time
}

const defaultNoteTTL = 48 * time.Hour

// NewRegistry creates a registry with the default expiry.
func NewRegistry() *Registry {
	return &Registry{
		notes: make(map[string]Note),
		ttl:   defaultNoteTTL,
		now:   time.Now,
	}
}

// Put stores a note and returns its ID.
func (r *Registry) Put(senderID int64, question string) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[id] = Note{SenderID: senderID, Question: question, CreatedAt: r.now()}
	return id
}

// Get looks up a note by ID.
func (r *Registry) Get(id string) (Note, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return Note{}, false
	}
	if r.ttl > 0 && r.now().Sub(n.CreatedAt) > r.ttl {
		delete(r.notes, id)
		return Note{}, false
	}
	return n, true
}

// Sweep removes expired notes. Call periodically.
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	for id, n := range r.notes {
		if n.CreatedAt.Before(cutoff) {
			delete(r.notes, id)
		}
	}
}
