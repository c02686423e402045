package message

import (
	"reflect"
	"strings"
	"testing"
)

func TestNewIncomingMessagePlaintext(t *testing.T) {
	contents := []string{
		"NOT-ENCRYPTED",
		"From: alice@example.com",
		"To: bob@example.com",
		"Cc: ",
		"Date: 2026-08-06",
		"Subject: hello",
		"",
		"line one",
		"line two",
	}
	msg := NewIncomingMessage("alice@example.com", []string{"RCPT TO:<bob@example.com>"}, contents)

	if msg.Encrypted {
		t.Fatalf("expected plaintext message")
	}
	if msg.Sender != "alice@example.com" {
		t.Fatalf("sender = %q", msg.Sender)
	}
	if !reflect.DeepEqual(msg.To, []string{"bob@example.com"}) {
		t.Fatalf("to = %v", msg.To)
	}
	if !strings.HasPrefix(msg.Body, "From: alice@example.com") {
		t.Fatalf("expected body to begin with the header block, got %q", msg.Body)
	}
	if !strings.HasSuffix(msg.Body, "line one\nline two") {
		t.Fatalf("expected body to end with the content lines, got %q", msg.Body)
	}
}

func TestContentLinesEnvelopeRoundTrip(t *testing.T) {
	m := &MailMessage{
		Sender:  "alice@example.com",
		To:      []string{"bob@example.com"},
		Cc:      []string{"carol@example.com"},
		Date:    "2026-08-06",
		Subject: "hi",
		Body:    "hey there",
	}
	lines := m.ContentLines()
	recipients := append(append([]string{}, m.To...), m.Cc...)
	reconstructed := NewIncomingMessage("alice@example.com", recipients, lines)
	if reconstructed.Sender != m.Sender {
		t.Fatalf("round trip mismatch: %+v", reconstructed)
	}
	if !strings.HasSuffix(reconstructed.Body, m.Body) {
		t.Fatalf("expected reconstructed body to end with %q, got %q", m.Body, reconstructed.Body)
	}
	if !reflect.DeepEqual(reconstructed.SmtpRecipients, []string{"bob@example.com", "carol@example.com"}) {
		t.Fatalf("recips = %v", reconstructed.SmtpRecipients)
	}
}
