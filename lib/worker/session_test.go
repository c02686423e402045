package worker

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/transport"
)

type captureSink struct {
	mu       sync.Mutex
	received []*message.SmtpMailMessage
	left     []string
}

func (c *captureSink) OnMailReceived(msg *message.SmtpMailMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, msg)
}

func (c *captureSink) OnUserDisconnect(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.left = append(c.left, username)
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func TestSendOutgoingMessageDeliversToServerSession(t *testing.T) {
	serverRaw, clientRaw := net.Pipe()
	defer serverRaw.Close()
	defer clientRaw.Close()

	serverConn := transport.NewConn(serverRaw)
	clientConn := transport.NewConn(clientRaw)

	sink := &captureSink{}
	server := NewSession(serverConn, RoleServer, "alice", sink)
	client := NewSession(clientConn, RoleClient, "", nil)

	go server.Run()

	msg := &message.MailMessage{
		Sender:  "bob@example.com",
		To:      []string{"alice@example.com"},
		Date:    "2026-08-06",
		Subject: "hi",
		Body:    "hello there",
	}

	errCh := make(chan error, 1)
	go func() { errCh <- client.SendOutgoingMessage(msg, []string{"alice@example.com"}) }()

	if err := <-errCh; err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 received message, got %d", sink.count())
	}
	got := sink.received[0]
	if got.Sender != "bob@example.com" {
		t.Fatalf("unexpected sender: %+v", got)
	}
	if !strings.HasSuffix(got.Body, "hello there") {
		t.Fatalf("expected body to end with the original text, got %q", got.Body)
	}

	server.Disconnect()
}

func TestSendOutgoingMessageRejectsEmptyEnvelope(t *testing.T) {
	client := NewSession(nil, RoleClient, "", nil)
	if err := client.SendOutgoingMessage(&message.MailMessage{}, []string{"a@x.com"}); err != ErrNoSender {
		t.Fatalf("expected ErrNoSender, got %v", err)
	}
	if err := client.SendOutgoingMessage(&message.MailMessage{Sender: "a@x.com"}, nil); err != ErrNoRecipients {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}
