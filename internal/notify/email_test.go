package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/jordan-wright/email"
)

func TestFeedbackCopyBuildsMessage(t *testing.T) {
	m := NewEmailer(EmailConfig{
		Host: "smtp.example.org",
		Port: 25,
		From: "bot@example.org",
		To:   "admin@example.org",
	}, nil)

	var captured *email.Email
	m.send = func(e *email.Email) error {
		captured = e
		return nil
	}

	if err := m.FeedbackCopy(7, "the feedback text"); err != nil {
		t.Fatalf("FeedbackCopy: %v", err)
	}
	if captured == nil {
		t.Fatal("nothing sent")
	}
	if captured.From != "bot@example.org" {
		t.Errorf("from = %q", captured.From)
	}
	if len(captured.To) != 1 || captured.To[0] != "admin@example.org" {
		t.Errorf("to = %v", captured.To)
	}
	if !strings.Contains(captured.Subject, "#7") {
		t.Errorf("subject = %q, want sequence number", captured.Subject)
	}
	if string(captured.Text) != "the feedback text" {
		t.Errorf("body = %q", captured.Text)
	}
}

func TestFeedbackCopyPropagatesSendError(t *testing.T) {
	m := NewEmailer(EmailConfig{}, nil)
	m.send = func(*email.Email) error {
		return errors.New("smtp down")
	}

	if err := m.FeedbackCopy(1, "text"); err == nil {
		t.Error("send failure not reported")
	}
}
