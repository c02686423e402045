package worker

import (
	"fmt"

	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/protocol"
)

// SendOutgoingMessage runs the client side of one envelope over the
// session's connection: MAIL FROM, one RCPT TO per address in recipients,
// DATA, the content block, and the terminator, reading and checking every
// intermediate acknowledgement. recipients is the envelope's own address
// list (e.g. an SmtpMailMessage's SmtpRecipients), not recomputed from the
// message's display To/Cc fields, since the two need not match.
func (s *Session) SendOutgoingMessage(msg *message.MailMessage, recipients []string) error {
	if msg.Sender == "" {
		return ErrNoSender
	}
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	if err := s.Conn.Send(protocol.FormatMailFrom(msg.Sender)); err != nil {
		return err
	}
	if _, err := s.Conn.ReadLine(); err != nil {
		return err
	}

	for _, addr := range recipients {
		if err := s.Conn.Send(protocol.FormatRecipientTo(addr)); err != nil {
			return err
		}
		if _, err := s.Conn.ReadLine(); err != nil {
			return err
		}
	}

	if err := s.Conn.Send(protocol.DataCommand); err != nil {
		return err
	}
	if _, err := s.Conn.ReadLine(); err != nil {
		return err
	}

	for _, line := range msg.ContentLines() {
		if err := s.Conn.Send(line); err != nil {
			return err
		}
	}
	if err := s.Conn.Send(protocol.BodyTerminator); err != nil {
		return err
	}
	resp, err := s.Conn.ReadLine()
	if err != nil {
		return err
	}
	if len(resp) < 3 || resp[:3] != fmt.Sprintf("%d", protocol.StatusOK) {
		return fmt.Errorf("worker: unexpected final ack %q", resp)
	}
	return nil
}
