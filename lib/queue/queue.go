// Package queue implements the dual-queue message router: bounded-per-tick
// local delivery with retry-forever-until-session semantics, and
// best-effort single-attempt outbound relay, both persisted across
// restarts.
package queue

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/foxmoor/relaymail/lib/maillog"
	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/worker"
)

// drainLimit is N from §4.5: at most this many entries leave each queue
// per tick.
const drainLimit = 10

// tickInterval is how long the processor sleeps after each tick.
const tickInterval = 250 * time.Millisecond

// postSendGrace is how long a relay session is given to finish a send
// before it is asked to quit.
const postSendGrace = 500 * time.Millisecond

// relayUsername and relayPassword are the shared relay identity every
// outbound connection authenticates with.
const relayUsername = "server"
const relayPassword = "server"

// SessionLookup resolves a local username to its live session, if any.
type SessionLookup interface {
	Get(username string) (*worker.Session, bool)
}

// LocalHostChecker reports whether a host string names this server,
// letting the outbound path skip recipients the dispatcher already routed
// to the incoming queue.
type LocalHostChecker interface {
	IsLocalHost(host string) bool
}

// incomingEntry pairs a queued local delivery with its persisted row id,
// so it can be deleted once delivered or re-enqueued (as a fresh append)
// when its recipient is offline.
type incomingEntry struct {
	rowID    int64
	username string
	msg      *message.MailMessage
}

// outgoingEntry pairs a queued relay with its persisted row id.
type outgoingEntry struct {
	rowID int64
	msg   *message.SmtpMailMessage
}

// Processor owns the two FIFOs, their sqlite-backed persistence, and the
// relay dialer.
type Processor struct {
	registry SessionLookup
	hosts    LocalHostChecker
	maillog  *maillog.Logger
	dial     Dialer

	incomingStore *persistStore
	outgoingStore *persistStore

	mu       sync.Mutex
	incoming []*incomingEntry
	outgoing []*outgoingEntry
	tasks    []func()
	running  bool
}

// New builds a Processor, opening (and creating if absent) one sqlite
// database file per queue under dataDir, and restoring any entries left
// over from a previous shutdown.
func New(dataDir string, registry SessionLookup, hosts LocalHostChecker, log *maillog.Logger, dial Dialer) (*Processor, error) {
	incomingStore, err := newPersistStore(filepath.Join(dataDir, "incoming-queue.db"), new(IncomingRow))
	if err != nil {
		return nil, err
	}
	outgoingStore, err := newPersistStore(filepath.Join(dataDir, "outgoing-queue.db"), new(OutgoingRow))
	if err != nil {
		incomingStore.Close()
		return nil, err
	}

	p := &Processor{
		registry:      registry,
		hosts:         hosts,
		maillog:       log,
		dial:          dial,
		incomingStore: incomingStore,
		outgoingStore: outgoingStore,
		running:       true,
	}
	if err := p.restore(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Processor) restore() error {
	incomingRows, err := p.incomingStore.loadAllIncoming()
	if err != nil {
		log.Warnf("queue: incoming restore failed, starting empty: %v", err)
		incomingRows = nil
	}
	for _, row := range incomingRows {
		p.incoming = append(p.incoming, &incomingEntry{
			rowID:    row.ID,
			username: row.Username,
			msg:      rowToMailMessage(row),
		})
	}

	outgoingRows, err := p.outgoingStore.loadAllOutgoing()
	if err != nil {
		log.Warnf("queue: outgoing restore failed, starting empty: %v", err)
		outgoingRows = nil
	}
	for _, row := range outgoingRows {
		p.outgoing = append(p.outgoing, &outgoingEntry{
			rowID: row.ID,
			msg:   rowToSmtpMailMessage(row),
		})
	}
	return nil
}

// SubmitIncoming enqueues msg for local delivery to username. The entry is
// persisted and appended to the queue when the processor next drains its
// task inbox.
func (p *Processor) SubmitIncoming(username string, msg *message.MailMessage) {
	p.submitTask(func() {
		row := mailMessageToRow(username, msg)
		id, err := p.incomingStore.insertIncoming(row)
		if err != nil {
			log.Warnf("queue: failed to persist incoming entry: %v", err)
		}
		p.mu.Lock()
		p.incoming = append(p.incoming, &incomingEntry{rowID: id, username: username, msg: msg})
		p.mu.Unlock()
	})
}

// SubmitOutgoing enqueues msg for relay.
func (p *Processor) SubmitOutgoing(msg *message.SmtpMailMessage) {
	p.submitTask(func() {
		row := smtpMailMessageToRow(msg)
		id, err := p.outgoingStore.insertOutgoing(row)
		if err != nil {
			log.Warnf("queue: failed to persist outgoing entry: %v", err)
		}
		p.mu.Lock()
		p.outgoing = append(p.outgoing, &outgoingEntry{rowID: id, msg: msg})
		p.mu.Unlock()
	})
}

func (p *Processor) submitTask(fn func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, fn)
	p.mu.Unlock()
}

func (p *Processor) drainTasks() {
	p.mu.Lock()
	pending := p.tasks
	p.tasks = nil
	p.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Run is the processor's main loop; it blocks until Shutdown clears the
// running flag.
func (p *Processor) Run() {
	for p.isRunning() {
		p.drainTasks()
		p.processIncoming()
		p.processOutgoing()
		time.Sleep(tickInterval)
	}
}

func (p *Processor) isRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Shutdown clears the running flag; the next loop iteration exits.
// Persistence is incremental (each drained submit writes its row), so the
// only flush needed here is running the submissions still in the task
// inbox before the stores close.
func (p *Processor) Shutdown() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	p.drainTasks()
	p.incomingStore.Close()
	p.outgoingStore.Close()
}

func (p *Processor) popIncoming(n int) []*incomingEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > len(p.incoming) {
		n = len(p.incoming)
	}
	batch := p.incoming[:n]
	p.incoming = p.incoming[n:]
	return batch
}

func (p *Processor) requeueIncoming(e *incomingEntry) {
	p.mu.Lock()
	p.incoming = append(p.incoming, e)
	p.mu.Unlock()
}

func (p *Processor) popOutgoing(n int) []*outgoingEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > len(p.outgoing) {
		n = len(p.outgoing)
	}
	batch := p.outgoing[:n]
	p.outgoing = p.outgoing[n:]
	return batch
}

func (p *Processor) processIncoming() {
	for _, entry := range p.popIncoming(drainLimit) {
		session, ok := p.registry.Get(entry.username)
		if !ok {
			p.requeueIncoming(entry)
			continue
		}
		msg := entry.msg
		recipient := entry.username
		session.SubmitTask(func() {
			if err := session.SendOutgoingMessage(msg, []string{recipient}); err != nil {
				log.WithField("user", recipient).Warnf("local delivery failed: %v", err)
				return
			}
			if p.maillog != nil {
				if err := p.maillog.Write(maillog.LocalHost, recipient, msg); err != nil {
					log.Warnf("queue: maillog write failed: %v", err)
				}
			}
		})
		if err := p.incomingStore.deleteIncoming(entry.rowID); err != nil {
			log.Warnf("queue: failed to delete delivered incoming row: %v", err)
		}
	}
}

func (p *Processor) processOutgoing() {
	for _, entry := range p.popOutgoing(drainLimit) {
		p.relayOne(entry.msg)
		if err := p.outgoingStore.deleteOutgoing(entry.rowID); err != nil {
			log.Warnf("queue: failed to delete relayed outgoing row: %v", err)
		}
	}
}

func (p *Processor) relayOne(msg *message.SmtpMailMessage) {
	for _, r := range msg.SmtpRecipients {
		parts := strings.SplitN(r, "@", 2)
		if len(parts) != 2 {
			continue
		}
		host := parts[1]
		if p.hosts != nil && p.hosts.IsLocalHost(host) {
			continue
		}
		if p.dial == nil {
			log.WithField("host", host).Warnf("relay skipped: no dialer configured")
			continue
		}
		if err := p.relayTo(host, &msg.MailMessage, []string{r}); err != nil {
			log.WithField("host", host).Warnf("relay failed: %v", err)
			continue
		}
		if p.maillog != nil {
			user := strings.SplitN(r, "@", 2)[0]
			if err := p.maillog.Write(host, user, &msg.MailMessage); err != nil {
				log.Warnf("queue: maillog write failed: %v", err)
			}
		}
	}
}
