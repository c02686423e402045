package protocol

import (
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+`)

// ExtractAddresses returns every address-shaped token found in line, in
// order of appearance.
func ExtractAddresses(line string) []string {
	return addressPattern.FindAllString(line, -1)
}

// Shift applies the substitution cipher to every rune in every line except
// lines that are exactly EncryptionHeader, which both directions treat as
// fixed. amount is taken mod 26 and may be negative.
func Shift(lines []string, amount int) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if line == EncryptionHeader {
			out[i] = line
			continue
		}
		out[i] = shiftLine(line, amount)
	}
	return out
}

func shiftLine(line string, amount int) string {
	a := ((amount % alphabetLen) + alphabetLen) % alphabetLen
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune('a' + (r-'a'+rune(a))%alphabetLen)
		case r >= 'A' && r <= 'Z':
			b.WriteRune('A' + (r-'A'+rune(a))%alphabetLen)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unshift reverses Shift for the same amount.
func Unshift(lines []string, amount int) []string {
	return Shift(lines, alphabetLen-((amount%alphabetLen)+alphabetLen)%alphabetLen)
}

// FormatMailFrom renders the envelope sender command.
func FormatMailFrom(sender string) string {
	return MailFromPrefix + "<" + sender + ">"
}

// ParseMailFrom extracts the literal text between the angle brackets of a
// MAIL FROM line. Unlike ExtractAddresses, this does not require the text
// to look like an address: envelope addresses are taken verbatim and left
// for the dispatcher to classify, so a malformed sender still round-trips
// as itself rather than being silently dropped.
func ParseMailFrom(line string) (addr string, ok bool) {
	return extractBracketed(line, MailFromPrefix)
}

// FormatRecipientTo renders one envelope recipient command.
func FormatRecipientTo(addr string) string {
	return RecipientToPrefix + "<" + addr + ">"
}

// ParseRecipientTo extracts the literal text between the angle brackets of
// an RCPT TO line, the same verbatim treatment as ParseMailFrom.
func ParseRecipientTo(line string) (addr string, ok bool) {
	return extractBracketed(line, RecipientToPrefix)
}

// extractBracketed takes the substring between the first "<" and last ">"
// following prefix, without validating that it looks like an address.
func extractBracketed(line, prefix string) (addr string, ok bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	start := strings.IndexByte(rest, '<')
	end := strings.LastIndexByte(rest, '>')
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return rest[start+1 : end], true
}

// FormatSmtpRecipients builds one RCPT TO command per non-empty address in
// to and cc, in that order.
func FormatSmtpRecipients(to, cc []string) []string {
	out := make([]string, 0, len(to)+len(cc))
	for _, addr := range to {
		if addr != "" {
			out = append(out, FormatRecipientTo(addr))
		}
	}
	for _, addr := range cc {
		if addr != "" {
			out = append(out, FormatRecipientTo(addr))
		}
	}
	return out
}

func formatAddressLine(prefix string, addrs []string) string {
	return prefix + strings.Join(addrs, ", ")
}

// FormatOutgoingBody renders the full content block for an outgoing
// message: the encryption marker line, the five header lines, a blank
// separator, then the body, finally shifted as a whole (marker excluded)
// when encrypted is true.
func FormatOutgoingBody(encrypted bool, sender string, to, cc []string, date, subject, body string) []string {
	lines := make([]string, 0, 8)
	if encrypted {
		lines = append(lines, EncryptionHeader)
	} else {
		lines = append(lines, PlaintextHeader)
	}
	lines = append(lines, "From: "+sender)
	lines = append(lines, formatAddressLine("To: ", to))
	lines = append(lines, formatAddressLine("Cc: ", cc))
	lines = append(lines, "Date: "+date)
	lines = append(lines, "Subject: "+subject)
	lines = append(lines, "")
	lines = append(lines, strings.Split(body, "\n")...)

	if encrypted {
		lines = Shift(lines, CaesarShift)
	}
	return lines
}

// DecodeIncomingBody reverse-shifts every line when encrypted is true and
// returns lines unchanged otherwise. The caller reads encrypted from the
// marker line; lines must not include the marker line itself.
func DecodeIncomingBody(encrypted bool, lines []string) []string {
	if !encrypted {
		return lines
	}
	return Unshift(lines, CaesarShift)
}

// ParseHeaderBlock splits a decoded (marker-stripped) content block into its
// header fields, following the fixed six-line layout: From, To, Cc, Date,
// Subject, blank separator, then body. The display body is the whole block
// joined with "\n", header lines and separator included, not just the
// lines after them.
func ParseHeaderBlock(lines []string) (sender string, to, cc []string, date, subject, body string) {
	get := func(i int) string {
		if i < len(lines) {
			return lines[i]
		}
		return ""
	}
	if addrs := ExtractAddresses(get(0)); len(addrs) > 0 {
		sender = addrs[0]
	}
	to = ExtractAddresses(get(1))
	cc = ExtractAddresses(get(2))
	date = strings.TrimPrefix(get(3), "Date: ")
	subject = strings.TrimPrefix(get(4), "Subject: ")
	body = strings.Join(lines, "\n")
	return sender, to, cc, date, subject, body
}
