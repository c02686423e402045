package queue

import (
	"net"
	"testing"
	"time"

	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/worker"
)

type fakeRegistry struct {
	sessions map[string]*worker.Session
}

func (f *fakeRegistry) Get(username string) (*worker.Session, bool) {
	s, ok := f.sessions[username]
	return s, ok
}

type fakeHosts struct {
	local map[string]bool
}

func (f *fakeHosts) IsLocalHost(host string) bool { return f.local[host] }

type fakeDialer struct {
	dialed []string
}

func (f *fakeDialer) Dial(host string) (net.Conn, error) {
	f.dialed = append(f.dialed, host)
	client, server := net.Pipe()
	server.Close()
	return client, nil
}

func newTestProcessor(t *testing.T, registry SessionLookup, hosts LocalHostChecker, dial Dialer) *Processor {
	t.Helper()
	p, err := New(t.TempDir(), registry, hosts, nil, dial)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	t.Cleanup(p.Shutdown)
	return p
}

func TestProcessIncomingRespectsDrainLimit(t *testing.T) {
	dummySession := worker.NewSession(nil, worker.RoleServer, "alice", nil)
	registry := &fakeRegistry{sessions: map[string]*worker.Session{"alice": dummySession}}
	p := newTestProcessor(t, registry, &fakeHosts{}, nil)

	for i := 0; i < 15; i++ {
		p.SubmitIncoming("alice", &message.MailMessage{Sender: "a@x.com", To: []string{"alice@x.com"}})
	}
	p.drainTasks()

	p.processIncoming()

	p.mu.Lock()
	remaining := len(p.incoming)
	p.mu.Unlock()
	if remaining != 5 {
		t.Fatalf("expected 5 entries left after draining 10 of 15, got %d", remaining)
	}
}

func TestProcessIncomingRequeuesWhenSessionMissing(t *testing.T) {
	registry := &fakeRegistry{sessions: map[string]*worker.Session{}}
	p := newTestProcessor(t, registry, &fakeHosts{}, nil)

	p.SubmitIncoming("carol", &message.MailMessage{Sender: "a@x.com", To: []string{"carol@x.com"}})
	p.drainTasks()
	p.processIncoming()

	p.mu.Lock()
	remaining := len(p.incoming)
	p.mu.Unlock()
	if remaining != 1 {
		t.Fatalf("expected entry to be re-appended when session is missing, got %d remaining", remaining)
	}
}

func TestRelayOneSkipsLocalRecipients(t *testing.T) {
	dial := &fakeDialer{}
	hosts := &fakeHosts{local: map[string]bool{"srv.example": true}}
	p := newTestProcessor(t, &fakeRegistry{sessions: map[string]*worker.Session{}}, hosts, dial)

	msg := &message.SmtpMailMessage{
		MailMessage:    message.MailMessage{Sender: "a@srv.example"},
		SmtpRecipients: []string{"bob@srv.example"},
	}
	p.relayOne(msg)

	if len(dial.dialed) != 0 {
		t.Fatalf("expected no dial for a local recipient, got %v", dial.dialed)
	}
}

func TestRelayOneDialsRemoteHost(t *testing.T) {
	dial := &fakeDialer{}
	hosts := &fakeHosts{local: map[string]bool{"srv.example": true}}
	p := newTestProcessor(t, &fakeRegistry{sessions: map[string]*worker.Session{}}, hosts, dial)

	msg := &message.SmtpMailMessage{
		MailMessage:    message.MailMessage{Sender: "a@srv.example"},
		SmtpRecipients: []string{"dave@remote.example"},
	}
	p.relayOne(msg)

	time.Sleep(10 * time.Millisecond)
	if len(dial.dialed) != 1 || dial.dialed[0] != "remote.example" {
		t.Fatalf("expected a dial to remote.example, got %v", dial.dialed)
	}
}
