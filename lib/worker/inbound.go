package worker

import (
	"fmt"

	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/protocol"
)

// handleMailFrom runs the server side of one envelope: MAIL FROM has
// already been read (as line); it acks, then reads RCPT TO lines until
// DATA, acks DATA, then reads the content block until the body terminator.
func (s *Session) handleMailFrom(line string) error {
	from, ok := protocol.ParseMailFrom(line)
	if !ok {
		s.Conn.Send(fmt.Sprintf("%d malformed sender", protocol.StatusUnknown))
		return fmt.Errorf("malformed MAIL FROM line: %q", line)
	}
	s.Conn.Send(fmt.Sprintf("%d OK", protocol.StatusOK))

	var recipients []string
	for {
		rline, err := s.Conn.ReadLine()
		if err != nil {
			return err
		}
		if rline == protocol.DataCommand {
			break
		}
		// Every RCPT TO is honored with 250 OK regardless of whether the
		// address inside it looks valid; classifying and rejecting
		// malformed recipients is the dispatcher's job, not the protocol
		// layer's.
		if addr, ok := protocol.ParseRecipientTo(rline); ok {
			recipients = append(recipients, addr)
		}
		s.Conn.Send(fmt.Sprintf("%d OK", protocol.StatusOK))
	}

	s.Conn.Send(fmt.Sprintf("%d End data with <CR><LF> .<CR><LF>", protocol.StatusStartData))

	var contents []string
	for {
		cline, err := s.Conn.ReadLine()
		if err != nil {
			return err
		}
		if cline == protocol.BodyTerminator {
			break
		}
		contents = append(contents, cline)
	}
	s.Conn.Send(fmt.Sprintf("%d OK", protocol.StatusOK))

	msg := message.NewIncomingMessage(from, recipients, contents)
	if s.sink != nil {
		s.sink.OnMailReceived(msg)
	}
	return nil
}
