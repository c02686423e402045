package dispatch

import (
	"testing"

	"github.com/foxmoor/relaymail/lib/message"
)

type fakeQueue struct {
	incoming []string
	outgoing int
}

func (f *fakeQueue) SubmitIncoming(username string, msg *message.MailMessage) {
	f.incoming = append(f.incoming, username)
}

func (f *fakeQueue) SubmitOutgoing(msg *message.SmtpMailMessage) {
	f.outgoing++
}

func newTestDispatcher(q Queue) *Dispatcher {
	hosts := &LocalHostSet{hosts: map[string]struct{}{"localhost": {}, "relay.example": {}}}
	return New(q, hosts)
}

func TestOnMailReceivedRoutesLocalRecipients(t *testing.T) {
	q := &fakeQueue{}
	d := newTestDispatcher(q)

	msg := &message.SmtpMailMessage{
		MailMessage:    message.MailMessage{Sender: "a@x.com"},
		SmtpRecipients: []string{"alice@relay.example", "bob@relay.example"},
	}
	d.OnMailReceived(msg)

	if len(q.incoming) != 2 || q.outgoing != 0 {
		t.Fatalf("incoming=%v outgoing=%d", q.incoming, q.outgoing)
	}
}

func TestOnMailReceivedSubmitsOutgoingOnce(t *testing.T) {
	q := &fakeQueue{}
	d := newTestDispatcher(q)

	msg := &message.SmtpMailMessage{
		MailMessage:    message.MailMessage{Sender: "a@x.com"},
		SmtpRecipients: []string{"carol@remote.example", "dave@other.example"},
	}
	d.OnMailReceived(msg)

	if q.outgoing != 1 {
		t.Fatalf("expected exactly one outgoing submission, got %d", q.outgoing)
	}
}

func TestOnMailReceivedSkipsMalformedAddress(t *testing.T) {
	q := &fakeQueue{}
	d := newTestDispatcher(q)

	msg := &message.SmtpMailMessage{
		SmtpRecipients: []string{"not-an-address", "alice@relay.example"},
	}
	d.OnMailReceived(msg)

	if len(q.incoming) != 1 {
		t.Fatalf("expected the malformed address to be skipped, got incoming=%v", q.incoming)
	}
}
