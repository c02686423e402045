package message

import "github.com/foxmoor/relaymail/lib/protocol"

// SmtpMailMessage is a MailMessage together with the envelope information
// that accompanied it over the wire: the MAIL FROM address and the RCPT TO
// addresses, which may differ from the display Sender/To/Cc fields (for
// example when a message is forwarded or bcc'd).
type SmtpMailMessage struct {
	MailMessage
	SmtpFrom       string
	SmtpRecipients []string
}

// NewIncomingMessage builds an SmtpMailMessage from the envelope sender
// address, the envelope recipient addresses (stored verbatim as
// SmtpRecipients), and the content block read off the wire
// (marker line included as contents[0]). It applies the decryption and
// header-parsing rules of the wire codec.
func NewIncomingMessage(smtpFrom string, smtpRecipients []string, contents []string) *SmtpMailMessage {
	encrypted := len(contents) > 0 && contents[0] == protocol.EncryptionHeader
	var rest []string
	if len(contents) > 0 {
		rest = contents[1:]
	}
	decoded := protocol.DecodeIncomingBody(encrypted, rest)
	sender, to, cc, date, subject, body := protocol.ParseHeaderBlock(decoded)

	return &SmtpMailMessage{
		MailMessage: MailMessage{
			Encrypted: encrypted,
			Sender:    sender,
			To:        to,
			Cc:        cc,
			Date:      date,
			Subject:   subject,
			Body:      body,
		},
		SmtpFrom:       smtpFrom,
		SmtpRecipients: smtpRecipients,
	}
}

// ContentLines renders the message the way it is serialized for the wire,
// including the encryption marker line.
func (m *MailMessage) ContentLines() []string {
	return protocol.FormatOutgoingBody(m.Encrypted, m.Sender, m.To, m.Cc, m.Date, m.Subject, m.Body)
}
