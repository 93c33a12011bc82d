package console

import (
	"context"
	"strings"
	"testing"

	"github.com/quietpost/quietpost/internal/transport"
)

func TestRunDispatchesMessagesAndCallbacks(t *testing.T) {
	input := strings.NewReader(`42 hello there
100 /cb {"a":"block","n":"note-1"}

bogus line without numeric id
42 second message
`)

	var msgs []transport.Message
	var cbs []transport.Callback
	err := Run(context.Background(), input,
		func(_ context.Context, m transport.Message) error {
			msgs = append(msgs, m)
			return nil
		},
		func(_ context.Context, cb transport.Callback) error {
			cbs = append(cbs, cb)
			return nil
		})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].SenderID != 42 || msgs[0].Text != "hello there" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Text != "second message" {
		t.Errorf("second message = %+v", msgs[1])
	}

	if len(cbs) != 1 {
		t.Fatalf("callbacks = %d, want 1", len(cbs))
	}
	if cbs[0].SenderID != 100 || !strings.Contains(cbs[0].Data, "note-1") {
		t.Errorf("callback = %+v", cbs[0])
	}
}
