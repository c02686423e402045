package dispatch

import (
	"net"
	"os"
	"strings"
)

// LocalHostSet is the set of hostnames this server considers its own:
// system hostname, resolvable addresses for it, and the literal
// "localhost". It has no dependency on the dispatcher or the queue, so it
// can be built once and shared by both.
type LocalHostSet struct {
	hosts map[string]struct{}
}

// NewLocalHostSet populates the set from the process's own hostname and
// its resolvable addresses.
func NewLocalHostSet() *LocalHostSet {
	s := &LocalHostSet{hosts: map[string]struct{}{"localhost": {}}}
	if host, err := os.Hostname(); err == nil && host != "" {
		s.hosts[strings.ToLower(host)] = struct{}{}
		if addrs, err := net.LookupHost(host); err == nil {
			for _, a := range addrs {
				s.hosts[a] = struct{}{}
			}
		}
	}
	return s
}

// IsLocalHost reports whether host names this server.
func (s *LocalHostSet) IsLocalHost(host string) bool {
	_, ok := s.hosts[strings.ToLower(host)]
	return ok
}
