package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Record is a single accepted feedback message. Immutable once written.
type Record struct {
	Date string `json:"date"`
	Time string `json:"time"`
	Text string `json:"text"`
}

// Store is the durable sequential feedback ledger. The on-disk document is
// a single JSON object holding the counter and one entry per sequence
// number:
//
//	{"number_of_messages": 2, "1": {...}, "2": {...}}
//
// All writes funnel through one mutex; the counter increment and the record
// insert land in the same file write, so a reader never observes one
// without the other. Append is the sole serialization point for admitted
// messages.
type Store struct {
	mu      sync.Mutex
	path    string
	count   int
	records map[int]Record
}

// Open loads the ledger at path, creating an empty one if the file does
// not exist or holds no valid document.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		records: make(map[int]Record),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", path, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("Ledger file unreadable, reinitializing", "path", path, "error", err)
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
		return s, nil
	}

	if c, ok := doc["number_of_messages"]; ok {
		if err := json.Unmarshal(c, &s.count); err != nil {
			return nil, fmt.Errorf("ledger: bad counter in %s: %w", path, err)
		}
	}
	for key, val := range doc {
		seq, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(val, &rec); err != nil {
			return nil, fmt.Errorf("ledger: bad record %s in %s: %w", key, path, err)
		}
		s.records[seq] = rec
	}
	return s, nil
}

// Append records a new feedback message and returns its sequence number.
// Sequence numbers are contiguous starting at 1. The write is durable
// before Append returns.
func (s *Store) Append(text string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.count + 1
	s.records[seq] = Record{
		Date: at.Format("2006-01-02"),
		Time: at.Format("15:04"),
		Text: text,
	}
	s.count = seq
	if err := s.flushLocked(); err != nil {
		// Roll back so the in-memory view matches the file.
		delete(s.records, seq)
		s.count = seq - 1
		return 0, err
	}
	return seq, nil
}

// Count returns the number of recorded messages.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Get returns the record at a sequence number.
func (s *Store) Get(seq int) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[seq]
	return rec, ok
}

// Entry pairs a record with its sequence number, for inspection endpoints.
type Entry struct {
	Sequence int    `json:"sequence"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Text     string `json:"text"`
}

// Recent returns up to limit entries with the highest sequence numbers,
// oldest first.
func (s *Store) Recent(limit int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > s.count {
		limit = s.count
	}
	out := make([]Entry, 0, limit)
	for seq := s.count - limit + 1; seq <= s.count; seq++ {
		rec := s.records[seq]
		out = append(out, Entry{Sequence: seq, Date: rec.Date, Time: rec.Time, Text: rec.Text})
	}
	return out
}

func (s *Store) flushLocked() error {
	doc := make(map[string]any, len(s.records)+1)
	doc["number_of_messages"] = s.count
	for seq, rec := range s.records {
		doc[strconv.Itoa(seq)] = rec
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal: %w", err)
	}

	// Write through a temp file so a crash mid-write never leaves a
	// half-written ledger behind.
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ledger: mkdir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("ledger: rename: %w", err)
	}
	return nil
}
