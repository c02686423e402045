// Package worker implements the cooperative, one-goroutine-per-connection
// session loop: a task inbox drained every tick, a non-blocking probe for
// inbound data, and the dispatch table for inbound protocol lines.
package worker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/protocol"
	"github.com/foxmoor/relaymail/lib/transport"
)

// pollInterval is how long the session loop sleeps between ticks when there
// is neither a pending task nor inbound data.
const pollInterval = 150 * time.Millisecond

// Role distinguishes which side of the handshake a session already
// completed before the loop started; the loop itself only speaks the
// post-handshake dispatch tables.
type Role int

const (
	// RoleServer sessions dispatch incoming commands (MAIL FROM, QUIT, ...).
	RoleServer Role = iota
	// RoleClient sessions send outgoing mail through submitted tasks and
	// send QUIT on Quit; inbound lines go through the same dispatch table
	// as a server session's (this is how a client receives deliveries).
	RoleClient
)

// Sink receives the events a session produces for the rest of the system.
type Sink interface {
	OnMailReceived(msg *message.SmtpMailMessage)
	OnUserDisconnect(username string)
}

var (
	// ErrNoSender is returned by SendOutgoingMessage when the message has
	// no sender address.
	ErrNoSender = errors.New("worker: message has no sender")
	// ErrNoRecipients is returned by SendOutgoingMessage when the
	// recipients list passed to it is empty.
	ErrNoRecipients = errors.New("worker: message has no recipients")
)

// Session drives one connection's cooperative loop.
type Session struct {
	Conn     *transport.Conn
	Role     Role
	Username string

	sink Sink

	mu        sync.Mutex
	tasks     []func()
	connected bool
}

// NewSession wraps an already-handshaken connection. sink may be nil for
// client-role sessions that never receive inbound mail.
func NewSession(conn *transport.Conn, role Role, username string, sink Sink) *Session {
	return &Session{
		Conn:      conn,
		Role:      role,
		Username:  username,
		sink:      sink,
		connected: true,
	}
}

// SubmitTask enqueues fn to run on the session's own goroutine at the next
// tick of its loop, the task-inbox pattern the loop drains before polling
// for inbound data.
func (s *Session) SubmitTask(fn func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()
}

func (s *Session) drainTasks() {
	s.mu.Lock()
	pending := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// Connected reports whether the session considers itself still active.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) markDisconnected() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}

// Disconnect tears the session down abruptly, without a QUIT exchange.
func (s *Session) Disconnect() {
	s.markDisconnected()
	s.Conn.Close()
}

// Quit enqueues a graceful termination as a task, to run on the session's
// own goroutine rather than racing its loop. A client-role session sends
// the QUIT command; a server-role session sends nothing (a peer's QUIT is
// answered inline by dispatch) and just stops and closes.
func (s *Session) Quit() {
	s.SubmitTask(func() {
		if s.Role == RoleClient {
			s.Conn.Send(protocol.QuitCommand)
		}
		s.markDisconnected()
		s.Conn.Close()
	})
}

// Run is the session's main loop: drain pending tasks, check for inbound
// data without blocking, dispatch one line if present, else sleep and
// repeat. It returns once the session is no longer connected.
func (s *Session) Run() {
	for s.Connected() {
		s.drainTasks()

		has, err := s.Conn.HasData()
		if err != nil {
			log.WithField("user", s.Username).Warnf("session read error: %v", err)
			s.Disconnect()
			return
		}
		if !has {
			time.Sleep(pollInterval)
			continue
		}

		line, err := s.Conn.ReadLine()
		if err != nil {
			log.WithField("user", s.Username).Warnf("session read error: %v", err)
			s.Disconnect()
			return
		}
		s.dispatch(line)
	}
}

func (s *Session) dispatch(line string) {
	upper := strings.ToUpper(line)
	switch {
	case strings.HasPrefix(upper, protocol.MailFromPrefix):
		if err := s.handleMailFrom(line); err != nil {
			log.WithField("user", s.Username).Warnf("mail from failed: %v", err)
		}
	case upper == protocol.QuitCommand:
		s.Conn.Send(fmt.Sprintf("%d %s Service closing transmission channel", protocol.StatusClosing, transport.LocalHostname()))
		s.markDisconnected()
		if s.sink != nil {
			s.sink.OnUserDisconnect(s.Username)
		}
	case strings.HasPrefix(line, "500"):
		log.WithField("user", s.Username).Warnf("peer reported: %s", line)
	default:
		s.Conn.Send(fmt.Sprintf("%d unrecognized command", protocol.StatusUnknown))
	}
}
