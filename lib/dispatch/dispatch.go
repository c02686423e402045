// Package dispatch classifies received mail into local and remote
// recipients and hands each off to the queue processor, following the
// original onMailReceived routing logic.
package dispatch

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/foxmoor/relaymail/lib/message"
)

// Queue is the subset of the queue processor that the dispatcher drives.
type Queue interface {
	SubmitIncoming(username string, msg *message.MailMessage)
	SubmitOutgoing(msg *message.SmtpMailMessage)
}

// Dispatcher routes each incoming envelope recipient to either the
// incoming queue (local delivery) or the outgoing queue (relay), once per
// message.
type Dispatcher struct {
	queue Queue
	hosts *LocalHostSet
}

// New builds a Dispatcher over an already-built LocalHostSet, so the set
// can also be handed to the queue processor without either depending on
// the other's constructor.
func New(q Queue, hosts *LocalHostSet) *Dispatcher {
	return &Dispatcher{queue: q, hosts: hosts}
}

// IsLocalHost reports whether host names this server.
func (d *Dispatcher) IsLocalHost(host string) bool {
	return d.hosts.IsLocalHost(host)
}

// OnMailReceived classifies every envelope recipient of msg as local or
// remote. Local recipients are handed to the incoming queue by username;
// the whole message is submitted to the outgoing queue at most once, the
// first time any remote recipient is seen.
func (d *Dispatcher) OnMailReceived(msg *message.SmtpMailMessage) {
	submittedOutgoing := false

	for _, addr := range msg.SmtpRecipients {
		parts := strings.Split(addr, "@")
		if len(parts) != 2 {
			log.WithField("address", addr).Warnf("dispatch: malformed recipient, skipping")
			continue
		}
		user, host := parts[0], parts[1]

		if d.IsLocalHost(host) {
			d.queue.SubmitIncoming(user, &msg.MailMessage)
			continue
		}
		if !submittedOutgoing {
			d.queue.SubmitOutgoing(msg)
			submittedOutgoing = true
		}
	}
}
