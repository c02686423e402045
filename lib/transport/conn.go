// Package transport wraps a net.Conn into the line-oriented, ISO-8859-1
// framed connection the relay protocol speaks, following the teacher's
// net/textproto framing style but layering the ISO-8859-1 charset required
// by the wire protocol underneath it.
package transport

import (
	"bufio"
	"net"
	"net/textproto"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// peekTimeout bounds how long HasData blocks waiting to learn whether a
// byte is already available, keeping the probe effectively non-blocking.
const peekTimeout = 5 * time.Millisecond

// Conn is one ISO-8859-1, CRLF-framed connection.
type Conn struct {
	raw    net.Conn
	reader *textproto.Reader
	writer *textproto.Writer

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an already-established net.Conn.
func NewConn(raw net.Conn) *Conn {
	dec := charmap.ISO8859_1.NewDecoder()
	enc := charmap.ISO8859_1.NewEncoder()
	br := bufio.NewReader(transform.NewReader(raw, dec))
	bw := bufio.NewWriter(transform.NewWriter(raw, enc))
	return &Conn{
		raw:    raw,
		reader: textproto.NewReader(br),
		writer: textproto.NewWriter(bw),
	}
}

// Send writes one line, appending the CRLF delimiter and flushing.
func (c *Conn) Send(line string) error {
	return c.writer.PrintfLine("%s", line)
}

// SendLogged writes one line and also emits it to the logger, masking the
// text when obfuscate is true (used for the password half of a LOGIN pair).
func (c *Conn) SendLogged(line string, obfuscate bool) error {
	logged := line
	if obfuscate {
		logged = "****"
	}
	log.WithField("remote", c.RemoteAddr()).Debugf("-> %s", logged)
	return c.Send(line)
}

// ReadLine blocks until one full line has arrived and returns it with the
// delimiter stripped.
func (c *Conn) ReadLine() (string, error) {
	return c.reader.ReadLine()
}

// HasData reports whether at least one byte is already readable, without
// consuming it, and without blocking for longer than peekTimeout. It is the
// non-blocking availability probe the session loop polls between tasks.
func (c *Conn) HasData() (bool, error) {
	if err := c.raw.SetReadDeadline(time.Now().Add(peekTimeout)); err != nil {
		return false, err
	}
	defer c.raw.SetReadDeadline(time.Time{})

	_, err := c.reader.R.Peek(1)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			// The charset transform reader keeps the first error it sees,
			// timeouts included, so the timed-out reader stack (which holds
			// no buffered bytes at this point) is replaced with a fresh one.
			br := bufio.NewReader(transform.NewReader(c.raw, charmap.ISO8859_1.NewDecoder()))
			c.reader = textproto.NewReader(br)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.raw.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the remote address as a string, for logging.
func (c *Conn) RemoteAddr() string {
	if c.raw.RemoteAddr() == nil {
		return ""
	}
	return c.raw.RemoteAddr().String()
}

// RemoteHostname resolves a best-effort hostname for the remote end,
// falling back to the raw address when reverse lookup fails or yields
// nothing, mirroring the original's tolerance for unresolvable peers.
func (c *Conn) RemoteHostname() string {
	host, _, err := net.SplitHostPort(c.RemoteAddr())
	if err != nil {
		host = c.RemoteAddr()
	}
	names, err := net.LookupAddr(host)
	if err != nil || len(names) == 0 {
		return host
	}
	return names[0]
}

// LocalHostname resolves the hostname this process should identify itself
// with during a handshake.
func LocalHostname() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "localhost"
	}
	return host
}
