package blocklist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quietpost/quietpost/internal/metrics"
)

// Mirror is an optional secondary copy of the block set, kept best-effort
// in a shared cache for cross-process visibility. Mirror failures never
// fail the primary operation.
type Mirror interface {
	SetBlocked(ctx context.Context, id string) error
	ClearBlocked(ctx context.Context, id string) error
}

// Store is the authoritative blocked-sender set, persisted as a JSON array
// of canonical identifier strings. Identifiers are opaque here; callers
// normalize before asking. Block and Unblock persist synchronously and
// report whether state actually changed.
type Store struct {
	mu      sync.Mutex
	path    string
	blocked map[string]struct{}
	mirror  Mirror
	log     *slog.Logger
}

const mirrorTimeout = 2 * time.Second

// Open loads the block list at path, creating an empty one if absent.
// mirror may be nil.
func Open(path string, mirror Mirror, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		path:    path,
		blocked: make(map[string]struct{}),
		mirror:  mirror,
		log:     log,
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blocklist: read %s: %w", path, err)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("blocklist: parse %s: %w", path, err)
	}
	for _, id := range ids {
		s.blocked[id] = struct{}{}
	}
	return s, nil
}

// IsBlocked reports whether id is in the set.
func (s *Store) IsBlocked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocked[id]
	return ok
}

// Block adds id to the set. Returns false with no error if id was already
// blocked. The file write happens before the mirror update; a mirror
// failure is logged and swallowed.
func (s *Store) Block(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocked[id]; ok {
		return false, nil
	}
	s.blocked[id] = struct{}{}
	if err := s.flushLocked(); err != nil {
		delete(s.blocked, id)
		return false, err
	}
	s.mirrorSet(id)
	s.log.Info("Sender blocked", "id", id)
	return true, nil
}

// Unblock removes id from the set. Returns false with no error if id was
// not blocked.
func (s *Store) Unblock(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocked[id]; !ok {
		return false, nil
	}
	delete(s.blocked, id)
	if err := s.flushLocked(); err != nil {
		s.blocked[id] = struct{}{}
		return false, err
	}
	s.mirrorClear(id)
	s.log.Info("Sender unblocked", "id", id)
	return true, nil
}

// Len returns the number of blocked identifiers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocked)
}

func (s *Store) mirrorSet(id string) {
	if s.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.mirror.SetBlocked(ctx, id); err != nil {
		metrics.MirrorErrors.Inc()
		s.log.Error("Block list mirror update failed", "id", id, "error", err)
	}
}

func (s *Store) mirrorClear(id string) {
	if s.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.mirror.ClearBlocked(ctx, id); err != nil {
		metrics.MirrorErrors.Inc()
		s.log.Error("Block list mirror update failed", "id", id, "error", err)
	}
}

func (s *Store) flushLocked() error {
	ids := make([]string, 0, len(s.blocked))
	for id := range s.blocked {
		ids = append(ids, id)
	}
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("blocklist: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("blocklist: mkdir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("blocklist: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("blocklist: rename: %w", err)
	}
	return nil
}
