// Package maillog writes the per-message, per-recipient log sink: one text
// file per delivered message, under logs/<host>/<user>/<timestamp>.txt,
// grounded on the original's writeMessageToFile and the teacher's maildir
// directory-naming conventions.
package maillog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/foxmoor/relaymail/lib/message"
)

// LocalHost is the directory name used for messages delivered to a local
// session rather than relayed to a remote host.
const LocalHost = "localServer"

const timestampLayout = "2006.01.02-15:04:05"

// Logger writes message records under baseDir.
type Logger struct {
	baseDir string
}

// New builds a Logger rooted at baseDir, creating it if necessary.
func New(baseDir string) (*Logger, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &Logger{baseDir: baseDir}, nil
}

// Write persists msg under host/user, naming the file with the current
// timestamp to the second. A second delivery to the same user within the
// same second gets the same name and overwrites the earlier file.
func (l *Logger) Write(host, user string, msg *message.MailMessage) error {
	dir := filepath.Join(l.baseDir, host, user)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := time.Now().Format(timestampLayout) + ".txt"
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("maillog: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(msg.String()); err != nil {
		return fmt.Errorf("maillog: write %s: %w", path, err)
	}
	return nil
}
