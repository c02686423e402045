// Command relayctl is the non-GUI client driver: it connects, authenticates,
// composes one message from flags, submits it, and then prints any
// inbound deliveries until interrupted.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/transport"
	"github.com/foxmoor/relaymail/lib/worker"
)

// printingSink renders every inbound delivery to stdout, the non-GUI
// stand-in for the client's inbox widget.
type printingSink struct{}

func (printingSink) OnMailReceived(msg *message.SmtpMailMessage) {
	fmt.Printf("--- new message ---\n%s\n", msg.String())
}

func (printingSink) OnUserDisconnect(string) {}

func main() {
	host := flag.String("host", "localhost", "relay server host")
	port := flag.Int("port", 25, "relay server port")
	username := flag.String("user", "", "login username")
	password := flag.String("pass", "", "login password")
	to := flag.String("to", "", "comma-separated recipient addresses")
	cc := flag.String("cc", "", "comma-separated cc addresses")
	subject := flag.String("subject", "", "message subject")
	body := flag.String("body", "", "message body")
	encrypted := flag.Bool("encrypted", false, "apply the letter-substitution obfuscation")
	flag.Parse()

	raw, err := net.Dial("tcp", fmt.Sprintf("%s:%d", *host, *port))
	if err != nil {
		log.Fatalf("relayctl: dial: %v", err)
	}
	conn := transport.NewConn(raw)

	if err := worker.ClientHandshake(conn, transport.LocalHostname()); err != nil {
		log.Fatalf("relayctl: handshake: %v", err)
	}

	ok, err := worker.Login(conn, *username, *password)
	if err != nil {
		log.Fatalf("relayctl: login: %v", err)
	}
	if !ok {
		log.Fatalf("relayctl: login declined")
	}

	session := worker.NewSession(conn, worker.RoleClient, *username, printingSink{})
	go session.Run()

	if *to != "" || *body != "" {
		to := splitNonEmpty(*to)
		cc := splitNonEmpty(*cc)
		msg := &message.MailMessage{
			Encrypted: *encrypted,
			Sender:    *username,
			To:        to,
			Cc:        cc,
			Date:      time.Now().Format("2006-01-02"),
			Subject:   *subject,
			Body:      *body,
		}
		recipients := append(append([]string{}, to...), cc...)
		session.SubmitTask(func() {
			if err := session.SendOutgoingMessage(msg, recipients); err != nil {
				log.Errorf("relayctl: send failed: %v", err)
			}
		})
	}

	waitForInterrupt()
	session.Quit()
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func waitForInterrupt() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}
