// Package protocol implements the wire-level vocabulary of the mail relay
// protocol: status codes, command prefixes, the substitution cipher, and the
// line-oriented codec for serializing and parsing message bodies. It has no
// knowledge of sockets or sessions; lib/transport and lib/worker drive it.
package protocol

const (
	// DefaultPort is the relay's listening port when none is configured.
	DefaultPort = 25

	// LineDelimiter terminates every wire line.
	LineDelimiter = "\r\n"

	// BodyTerminator ends a DATA block, one line containing only a dot.
	BodyTerminator = "."

	// EncryptionHeader marks an encrypted body as the first content line.
	EncryptionHeader = "_ENCRYPTED_"
	// PlaintextHeader marks an unencrypted body as the first content line.
	PlaintextHeader = "NOT-ENCRYPTED"

	// LoginAccepted and LoginDeclined are the server's two possible replies
	// to a LOGIN username/password pair.
	LoginAccepted = "ACCEPTED"
	LoginDeclined = "DECLINED"

	// MailFromPrefix and RecipientToPrefix prefix the envelope commands.
	MailFromPrefix    = "MAIL FROM:"
	RecipientToPrefix = "RCPT TO:"
	DataCommand       = "DATA"
	QuitCommand       = "QUIT"
	HelloPrefix       = "HELO"

	// Status codes, matching the Java ProtocolConstants values exactly.
	StatusGreeting     = 220
	StatusOK           = 250
	StatusStartData    = 354
	StatusUnknown      = 500
	StatusClosing      = 221

	// CaesarShift is the fixed substitution amount. Applying it twice
	// (forward then by 26-CaesarShift) returns the original text.
	CaesarShift = 13
	alphabetLen = 26
)
