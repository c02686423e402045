package protocol

import (
	"reflect"
	"testing"
)

func TestShiftUnshiftRoundTrip(t *testing.T) {
	lines := []string{"Hello, World!", "Subject: Test 123", EncryptionHeader}
	shifted := Shift(lines, CaesarShift)
	back := Unshift(shifted, CaesarShift)
	if !reflect.DeepEqual(back, lines) {
		t.Fatalf("round trip mismatch: got %v want %v", back, lines)
	}
}

func TestShiftLeavesEncryptionHeaderFixed(t *testing.T) {
	lines := []string{EncryptionHeader, "abc"}
	shifted := Shift(lines, CaesarShift)
	if shifted[0] != EncryptionHeader {
		t.Fatalf("marker line was shifted: %q", shifted[0])
	}
	if shifted[1] == "abc" {
		t.Fatalf("expected body line to change under shift")
	}
}

func TestShiftPreservesNonLetters(t *testing.T) {
	line := "a1 B2!@#z"
	shifted := shiftLine(line, 1)
	if shifted != "b1 C2!@#a" {
		t.Fatalf("got %q", shifted)
	}
}

func TestExtractAddresses(t *testing.T) {
	got := ExtractAddresses("MAIL FROM:<alice@example.com>")
	if len(got) != 1 || got[0] != "alice@example.com" {
		t.Fatalf("got %v", got)
	}
}

func TestFormatSmtpRecipientsSkipsEmpty(t *testing.T) {
	got := FormatSmtpRecipients([]string{"a@x.com", ""}, []string{"", "b@y.com"})
	want := []string{"RCPT TO:<a@x.com>", "RCPT TO:<b@y.com>"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestFormatAndParseHeaderBlockRoundTrip(t *testing.T) {
	lines := FormatOutgoingBody(false, "alice@example.com", []string{"bob@example.com"}, nil,
		"2026-08-06", "Hi", "line one\nline two")
	// Drop the marker line before parsing, as the transport layer would.
	sender, to, cc, date, subject, body := ParseHeaderBlock(lines[1:])
	if sender != "alice@example.com" {
		t.Fatalf("sender = %q", sender)
	}
	if len(to) != 1 || to[0] != "bob@example.com" {
		t.Fatalf("to = %v", to)
	}
	if len(cc) != 0 {
		t.Fatalf("cc = %v", cc)
	}
	if date != "2026-08-06" || subject != "Hi" {
		t.Fatalf("date/subject = %q/%q", date, subject)
	}
	// The display body is the whole block (header lines and blank
	// separator included), not just the lines after them.
	want := "From: alice@example.com\nTo: bob@example.com\nCc: \nDate: 2026-08-06\nSubject: Hi\n\nline one\nline two"
	if body != want {
		t.Fatalf("body = %q want %q", body, want)
	}
}

func TestDecodeIncomingBodyAppliesReverseShift(t *testing.T) {
	plain := []string{"From: a@x.com", "To: b@y.com", "Cc: ", "Date: d", "Subject: s", "", "secret body"}
	cipher := Shift(plain, CaesarShift)
	decoded := DecodeIncomingBody(true, cipher)
	if !reflect.DeepEqual(decoded, plain) {
		t.Fatalf("decoded = %v want %v", decoded, plain)
	}
}
