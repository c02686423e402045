package worker

import (
	"fmt"
	"strings"

	"github.com/foxmoor/relaymail/lib/protocol"
	"github.com/foxmoor/relaymail/lib/transport"
)

// ServerHandshake runs the server's half of the greeting exchange: send
// the 220 banner, read the client's HELO, and ack with 250.
func ServerHandshake(conn *transport.Conn, localHostname string) error {
	if err := conn.Send(fmt.Sprintf("%d %s ESMTP", protocol.StatusGreeting, localHostname)); err != nil {
		return err
	}
	helo, err := conn.ReadLine()
	if err != nil {
		return err
	}
	remoteHost := strings.TrimSpace(strings.TrimPrefix(helo, protocol.HelloPrefix))
	return conn.Send(fmt.Sprintf("%d Hello %s, I am glad to meet you", protocol.StatusOK, strings.TrimSpace(remoteHost)))
}

// ReadLoginPair reads the username and password lines a client sends
// immediately after the greeting exchange completes.
func ReadLoginPair(conn *transport.Conn) (username, password string, err error) {
	username, err = conn.ReadLine()
	if err != nil {
		return "", "", err
	}
	password, err = conn.ReadLine()
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// ClientHandshake runs the client's half of the greeting exchange: read the
// 220 banner, send HELO, and read the 250 ack.
func ClientHandshake(conn *transport.Conn, localHostname string) error {
	if _, err := conn.ReadLine(); err != nil {
		return err
	}
	if err := conn.Send(fmt.Sprintf("%s %s", protocol.HelloPrefix, localHostname)); err != nil {
		return err
	}
	_, err := conn.ReadLine()
	return err
}

// Login sends a username/password pair and reports whether the server
// accepted it.
func Login(conn *transport.Conn, username, password string) (bool, error) {
	if err := conn.SendLogged(username, false); err != nil {
		return false, err
	}
	if err := conn.SendLogged(password, true); err != nil {
		return false, err
	}
	resp, err := conn.ReadLine()
	if err != nil {
		return false, err
	}
	return resp == protocol.LoginAccepted, nil
}
