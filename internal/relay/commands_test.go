package relay

import (
	"strings"
	"testing"
)

func TestBlockCommand(t *testing.T) {
	f := newFixture(t)

	f.send(t, adminID, "/block 42")
	if !f.blocks.IsBlocked("42") {
		t.Fatal("42 not blocked after /block")
	}
	if reply := lastTo(t, f, adminID); !strings.Contains(reply.Text, "blocked") {
		t.Errorf("reply = %q", reply.Text)
	}

	// Repeating the command reports that nothing changed.
	f.send(t, adminID, "/block 42")
	if reply := lastTo(t, f, adminID); !strings.Contains(reply.Text, "already blocked") {
		t.Errorf("repeat reply = %q", reply.Text)
	}
}

func TestUnblockCommand(t *testing.T) {
	f := newFixture(t)
	if _, err := f.blocks.Block("42"); err != nil {
		t.Fatal(err)
	}

	f.send(t, adminID, "/unblock 42")
	if f.blocks.IsBlocked("42") {
		t.Fatal("42 still blocked after /unblock")
	}
	if reply := lastTo(t, f, adminID); !strings.Contains(reply.Text, "unblocked") {
		t.Errorf("reply = %q", reply.Text)
	}

	f.send(t, adminID, "/unblock 42")
	if reply := lastTo(t, f, adminID); !strings.Contains(reply.Text, "not blocked") {
		t.Errorf("repeat reply = %q", reply.Text)
	}
}

func TestBlockCommandStripsLeadingAt(t *testing.T) {
	f := newFixture(t)
	f.send(t, adminID, "/block @42")
	if !f.blocks.IsBlocked("42") {
		t.Error("@42 was not normalized to 42")
	}
}

func TestBlockCommandRequiresAdministrator(t *testing.T) {
	f := newFixture(t)
	f.send(t, senderID, "/block 7")

	if f.blocks.IsBlocked("7") {
		t.Error("non-administrator managed to block")
	}
	if reply := lastTo(t, f, senderID); !strings.Contains(reply.Text, "not allowed") {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestBlockCommandUsageErrors(t *testing.T) {
	f := newFixture(t)

	for _, text := range []string{"/block", "/block abc", "/block 1 2", "/block -5"} {
		f.send(t, adminID, text)
		if reply := lastTo(t, f, adminID); !strings.Contains(reply.Text, "Usage") {
			t.Errorf("reply to %q = %q, want usage error", text, reply.Text)
		}
	}
	if got := f.blocks.Len(); got != 0 {
		t.Errorf("block list size = %d, want 0", got)
	}
}

func TestStartAndHelpReplyWithWelcome(t *testing.T) {
	f := newFixture(t)

	f.send(t, senderID, "/start")
	if reply := lastTo(t, f, senderID); !strings.Contains(reply.Text, "anonymous") {
		t.Errorf("welcome = %q", reply.Text)
	}

	f.send(t, senderID, "/help")
	if reply := lastTo(t, f, senderID); !strings.Contains(reply.Text, "feedback") {
		t.Errorf("help = %q", reply.Text)
	}

	// Welcome replies do not touch the ledger.
	if got := f.ledger.Count(); got != 0 {
		t.Errorf("ledger count = %d, want 0", got)
	}
}

func TestUnknownCommandFallsThroughToFeedback(t *testing.T) {
	f := newFixture(t)
	f.send(t, senderID, "/weird but real feedback")

	if got := f.ledger.Count(); got != 1 {
		t.Errorf("ledger count = %d, want 1", got)
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "42", want: "42"},
		{in: "@42", want: "42"},
		{in: " 42 ", want: "42"},
		{in: "0042", want: "42"},
		{in: "abc", wantErr: true},
		{in: "@", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "0", wantErr: true},
	}
	for _, tc := range cases {
		got, err := NormalizeIdentifier(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeIdentifier(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeIdentifier(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
