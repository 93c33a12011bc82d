package action

import (
	"testing"
	"time"
)

func TestDecodeRoundTrip(t *testing.T) {
	ref := Ref{Kind: ReplyDirect, NoteID: "note-1"}
	decoded, err := Decode(ref.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded != ref {
		t.Errorf("round trip = %+v, want %+v", decoded, ref)
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	cases := []string{
		"",
		"not json",
		`{"a":"launch_missiles","n":"x"}`,
		`{"a":"block"}`,
		`{"n":"x"}`,
	}
	for _, data := range cases {
		if _, err := Decode(data); err == nil {
			t.Errorf("Decode(%q) accepted invalid payload", data)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	id := r.Put(42, "the question")

	note, ok := r.Get(id)
	if !ok {
		t.Fatal("note not found")
	}
	if note.SenderID != 42 || note.Question != "the question" {
		t.Errorf("note = %+v", note)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("lookup of unknown id succeeded")
	}
}

func TestRegistryExpiry(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	r := NewRegistry()
	r.now = func() time.Time { return now }

	id := r.Put(42, "old question")
	now = now.Add(defaultNoteTTL + time.Hour)

	if _, ok := r.Get(id); ok {
		t.Error("expired note still retrievable")
	}
}

func TestRegistrySweep(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	r := NewRegistry()
	r.now = func() time.Time { return now }

	old := r.Put(1, "old")
	now = now.Add(defaultNoteTTL + time.Hour)
	fresh := r.Put(2, "fresh")

	r.Sweep()

	if _, ok := r.notes[old]; ok {
		t.Error("expired note survived sweep")
	}
	if _, ok := r.Get(fresh); !ok {
		t.Error("fresh note removed by sweep")
	}
}
