package action

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies what an inline button does when pressed.
type Kind string

const (
	// ReplyGroup prompts the administrator for an answer and returns a
	// copy-pasteable group-formatted version of it.
	ReplyGroup Kind = "reply_group"
	// ReplyDirect prompts the administrator for an answer and delivers
	// it directly to the original sender.
	ReplyDirect Kind = "reply_direct"
	// Block blocks the sender of the referenced note.
	Block Kind = "block"
	// Unblock unblocks the sender of the referenced note.
	Unblock Kind = "unblock"
)

var ErrInvalidRef = errors.New("action: invalid reference")

// Ref is the compact wire payload embedded in an inline button. It carries
// only the action kind and a note ID; the question text and sender identity
// are looked up in the Registry, never re-parsed from rendered message text.
type Ref struct {
	Kind   Kind   `json:"a"`
	NoteID string `json:"n"`
}

// Encode serializes a reference for embedding in button data.
func (r Ref) Encode() string {
	b, _ := json.Marshal(r)
	return string(b)
}

// Decode parses and validates button data.
func Decode(data string) (Ref, error) {
	var r Ref
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	switch r.Kind {
	case ReplyGroup, ReplyDirect, Block, Unblock:
	default:
		return Ref{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRef, r.Kind)
	}
	if r.NoteID == "" {
		return Ref{}, fmt.Errorf("%w: missing note id", ErrInvalidRef)
	}
	return r, nil
}
