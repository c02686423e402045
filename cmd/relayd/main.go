// Command relayd runs the mail relay server: listener, dispatcher, and
// queue processor wired together from a YAML config file, with an
// -adduser flag for administering the credential store without a GUI.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/foxmoor/relaymail/lib/auth"
	"github.com/foxmoor/relaymail/lib/config"
	"github.com/foxmoor/relaymail/lib/dispatch"
	"github.com/foxmoor/relaymail/lib/listener"
	"github.com/foxmoor/relaymail/lib/maillog"
	"github.com/foxmoor/relaymail/lib/message"
	"github.com/foxmoor/relaymail/lib/queue"
)

// serverSink adapts a *dispatch.Dispatcher to worker.Sink, the interface
// a Session actually calls into; user departures just free the registry
// slot, which the listener already does once Session.Run returns.
type serverSink struct {
	dispatcher *dispatch.Dispatcher
}

func (s *serverSink) OnMailReceived(msg *message.SmtpMailMessage) {
	s.dispatcher.OnMailReceived(msg)
}

func (s *serverSink) OnUserDisconnect(username string) {
	log.WithField("user", username).Infof("user disconnected")
}

func main() {
	configPath := flag.String("config", "relay.yaml", "path to the relay's YAML configuration file")
	addUser := flag.String("adduser", "", "create or overwrite a user, in the form name:password, then exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("relayd: loading config: %v", err)
	}
	if lvl, err := log.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(lvl)
	}

	store := auth.NewStore()
	if err := store.Load(cfg.AuthFile); err != nil {
		log.Fatalf("relayd: loading auth store: %v", err)
	}

	if *addUser != "" {
		if err := runAddUser(store, cfg.AuthFile, *addUser); err != nil {
			log.Fatalf("relayd: adduser: %v", err)
		}
		return
	}

	mlog, err := maillog.New(cfg.DataDir + "/logs")
	if err != nil {
		log.Fatalf("relayd: opening maillog: %v", err)
	}

	registry := listener.NewSessionRegistry()
	hosts := dispatch.NewLocalHostSet()

	proc, err := queue.New(cfg.DataDir, registry, hosts, mlog, queue.NewNetDialer(cfg.RelayPort))
	if err != nil {
		log.Fatalf("relayd: opening queues: %v", err)
	}

	d := dispatch.New(proc, hosts)
	sink := &serverSink{dispatcher: d}

	l := listener.New(cfg.Listen, store, sink)
	l.RequireAuth = cfg.RequireAuth
	l.Registry = registry

	go proc.Run()
	go func() {
		if err := l.ListenAndServe(); err != nil {
			log.Errorf("relayd: listener stopped: %v", err)
		}
	}()

	waitForShutdownSignal()

	log.Infof("relayd: shutting down")
	l.Shutdown()
	if err := store.Save(cfg.AuthFile); err != nil {
		log.Warnf("relayd: saving auth store: %v", err)
	}
	proc.Shutdown()
}

func waitForShutdownSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}

func runAddUser(store *auth.Store, authFile, spec string) error {
	name, password, ok := splitOnce(spec, ':')
	if !ok {
		return fmt.Errorf("expected name:password, got %q", spec)
	}
	if err := store.AddUser(name, password); err != nil {
		return err
	}
	return store.Save(authFile)
}

func splitOnce(s string, sep byte) (before, after string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
