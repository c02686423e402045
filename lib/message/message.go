// Package message defines the mail value types exchanged between the
// transport, worker, dispatch, and queue layers.
package message

import (
	"fmt"
	"strings"
)

// MailMessage is the display-level representation of a piece of mail: the
// fields a person composing or reading it would see, independent of how it
// was or will be carried over the wire.
type MailMessage struct {
	Encrypted bool
	Sender    string
	To        []string
	Cc        []string
	Date      string
	Subject   string
	Body      string
}

// String renders the message the way the per-user log sink persists it.
func (m *MailMessage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Encrypted: %v\n", m.Encrypted)
	fmt.Fprintf(&b, "From: %s\n", m.Sender)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Cc: %s\n", strings.Join(m.Cc, ", "))
	fmt.Fprintf(&b, "Date: %s\n", m.Date)
	fmt.Fprintf(&b, "Subject: %s\n", m.Subject)
	b.WriteString("\n")
	b.WriteString(m.Body)
	return b.String()
}
