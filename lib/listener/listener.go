package listener

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/foxmoor/relaymail/lib/auth"
	"github.com/foxmoor/relaymail/lib/protocol"
	"github.com/foxmoor/relaymail/lib/transport"
	"github.com/foxmoor/relaymail/lib/worker"
)

// Listener accepts connections, authenticates them, and hands each
// successfully logged-in connection off to its own Session goroutine.
type Listener struct {
	Addr        string
	AuthStore   *auth.Store
	RequireAuth bool
	Sink        worker.Sink
	Registry    *SessionRegistry

	ln       net.Listener
	listening atomic.Bool
	wg       sync.WaitGroup
}

// New builds a Listener. RequireAuth defaults to true; callers that want
// the security-toggle-disabled behavior must set it to false explicitly.
func New(addr string, store *auth.Store, sink worker.Sink) *Listener {
	return &Listener{
		Addr:        addr,
		AuthStore:   store,
		RequireAuth: true,
		Sink:        sink,
		Registry:    NewSessionRegistry(),
	}
}

// ListenAndServe binds Addr and accepts connections until Shutdown is
// called. It blocks until the listener socket closes.
func (l *Listener) ListenAndServe() error {
	ln, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return fmt.Errorf("listener: bind %s: %w", l.Addr, err)
	}
	l.ln = ln
	l.listening.Store(true)

	for l.listening.Load() {
		conn, err := ln.Accept()
		if err != nil {
			if !l.listening.Load() {
				break
			}
			log.Warnf("listener: accept error: %v", err)
			continue
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.acceptOne(conn)
		}()
	}
	return nil
}

// Shutdown stops accepting new connections, disconnects every active
// session, and waits for in-flight accept handling to finish.
func (l *Listener) Shutdown() {
	l.listening.Store(false)
	if l.ln != nil {
		l.ln.Close()
	}
	l.Registry.Range(func(_ string, s *worker.Session) {
		s.Quit()
	})
	l.wg.Wait()
}

func (l *Listener) acceptOne(raw net.Conn) {
	conn := transport.NewConn(raw)

	if err := worker.ServerHandshake(conn, transport.LocalHostname()); err != nil {
		log.Warnf("listener: handshake failed: %v", err)
		conn.Close()
		return
	}

	username, password, err := worker.ReadLoginPair(conn)
	if err != nil {
		log.Warnf("listener: login read failed: %v", err)
		conn.Close()
		return
	}

	accepted := !l.RequireAuth || l.AuthStore.IsValidLogin(username, password)
	if !accepted {
		conn.Send(protocol.LoginDeclined)
		conn.Close()
		log.WithField("user", username).Warnf("login declined")
		return
	}
	if err := conn.Send(protocol.LoginAccepted); err != nil {
		conn.Close()
		return
	}

	session := worker.NewSession(conn, worker.RoleServer, username, l.Sink)
	l.Registry.Set(username, session)
	log.WithField("user", username).Infof("session established")
	session.Run()
	l.Registry.Delete(username, session)
}
