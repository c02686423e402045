package queue

import (
	"strings"

	"github.com/foxmoor/relaymail/lib/message"
)

func joinAddrs(addrs []string) string {
	return strings.Join(addrs, ",")
}

func splitAddrs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func mailMessageToRow(username string, m *message.MailMessage) *IncomingRow {
	return &IncomingRow{
		Username:  username,
		Sender:    m.Sender,
		To:        joinAddrs(m.To),
		Cc:        joinAddrs(m.Cc),
		Date:      m.Date,
		Subject:   m.Subject,
		Body:      m.Body,
		Encrypted: m.Encrypted,
	}
}

func rowToMailMessage(row *IncomingRow) *message.MailMessage {
	return &message.MailMessage{
		Encrypted: row.Encrypted,
		Sender:    row.Sender,
		To:        splitAddrs(row.To),
		Cc:        splitAddrs(row.Cc),
		Date:      row.Date,
		Subject:   row.Subject,
		Body:      row.Body,
	}
}

func smtpMailMessageToRow(m *message.SmtpMailMessage) *OutgoingRow {
	return &OutgoingRow{
		SmtpFrom:       m.SmtpFrom,
		SmtpRecipients: joinAddrs(m.SmtpRecipients),
		Sender:         m.Sender,
		To:             joinAddrs(m.To),
		Cc:             joinAddrs(m.Cc),
		Date:           m.Date,
		Subject:        m.Subject,
		Body:           m.Body,
		Encrypted:      m.Encrypted,
	}
}

func rowToSmtpMailMessage(row *OutgoingRow) *message.SmtpMailMessage {
	return &message.SmtpMailMessage{
		MailMessage: message.MailMessage{
			Encrypted: row.Encrypted,
			Sender:    row.Sender,
			To:        splitAddrs(row.To),
			Cc:        splitAddrs(row.Cc),
			Date:      row.Date,
			Subject:   row.Subject,
			Body:      row.Body,
		},
		SmtpFrom:       row.SmtpFrom,
		SmtpRecipients: splitAddrs(row.SmtpRecipients),
	}
}
