package queue

import (
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/transport"
	"github.com/foxmoor/relaymail/lib/worker"
)

// Dialer opens a TCP connection to a remote relay host. netDialer is the
// production implementation; tests substitute an in-memory one.
type Dialer interface {
	Dial(host string) (net.Conn, error)
}

// netDialer is the production Dialer, connecting to host on a fixed port.
type netDialer struct {
	port    int
	timeout time.Duration
}

// NewNetDialer builds a Dialer that connects to the given port on every
// host, the standard relay port unless overridden by configuration.
func NewNetDialer(port int) Dialer {
	return &netDialer{port: port, timeout: 10 * time.Second}
}

func (d *netDialer) Dial(host string) (net.Conn, error) {
	return net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, d.port), d.timeout)
}

// relayTo performs one best-effort outbound delivery of msg to host, for
// exactly the envelope recipients in recipients (the original RCPT TO
// addresses the dispatcher routed to host, not a recomputation from msg's
// display To/Cc): dial, client handshake, LOGIN with the shared relay
// identity, spawn a client-role session, enqueue the send, wait briefly,
// then ask it to quit. A dial or login failure is returned to the caller
// to log and drop this recipient; a send failure after login is logged
// but not propagated, matching the best-effort contract.
func (p *Processor) relayTo(host string, msg *message.MailMessage, recipients []string) error {
	raw, err := p.dial.Dial(host)
	if err != nil {
		return fmt.Errorf("queue: dial %s: %w", host, err)
	}
	conn := transport.NewConn(raw)

	if err := worker.ClientHandshake(conn, transport.LocalHostname()); err != nil {
		conn.Close()
		return fmt.Errorf("queue: handshake with %s: %w", host, err)
	}

	ok, err := worker.Login(conn, relayUsername, relayPassword)
	if err != nil {
		conn.Close()
		return fmt.Errorf("queue: login to %s: %w", host, err)
	}
	if !ok {
		conn.Close()
		return fmt.Errorf("queue: relay identity declined by %s", host)
	}

	session := worker.NewSession(conn, worker.RoleClient, "", nil)
	go session.Run()

	session.SubmitTask(func() {
		if err := session.SendOutgoingMessage(msg, recipients); err != nil {
			log.WithField("host", host).Warnf("queue: relay send failed: %v", err)
		}
	})

	time.Sleep(postSendGrace)
	session.Quit()
	return nil
}
