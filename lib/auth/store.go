// Package auth implements the salted-hash credential store, persisted in
// the binary, length-prefixed format the original Java server wrote with
// DataOutputStream.writeUTF, so that this store's files stay readable by
// that format's conventions.
package auth

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
)

const saltLen = 16

// ErrUnknownUser is returned by operations that require an existing user.
var ErrUnknownUser = errors.New("auth: unknown user")

type user struct {
	salt []byte
	hash string // hex-encoded sha1(salt || password)
}

// Store is an in-memory, file-backed table of username -> salted password
// hash. All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	users map[string]*user
}

// NewStore builds an empty store and verifies the hashing primitives it
// depends on are usable, failing fast the way the original authentication
// manager checked its algorithms existed before accepting any connection.
func NewStore() *Store {
	if _, err := hashPassword([]byte("self-test"), "self-test"); err != nil {
		log.Fatalf("auth: hashing primitive unavailable: %v", err)
	}
	return &Store{users: make(map[string]*user)}
}

func hashPassword(salt []byte, password string) (string, error) {
	h := sha1.New()
	if _, err := h.Write(salt); err != nil {
		return "", err
	}
	if _, err := io.WriteString(h, password); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// AddUser creates or overwrites the credential for username.
func (s *Store) AddUser(username, password string) error {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	hash, err := hashPassword(salt, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users[username] = &user{salt: salt, hash: hash}
	s.mu.Unlock()
	return nil
}

// IsValidLogin reports whether password matches the stored credential for
// username. An unknown username fails at once, without hashing; for a
// known username the hashes are compared in constant time.
func (s *Store) IsValidLogin(username, password string) bool {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	hash, err := hashPassword(u.salt, password)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(u.hash)) == 1
}

// HasUser reports whether username has a stored credential.
func (s *Store) HasUser(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok
}

// Load replaces the store's contents with the records read from path. A
// missing file is treated as an empty store, matching first-run behavior.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	users := make(map[string]*user)
	for {
		name, err := readUTF(f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		hash, err := readUTF(f)
		if err != nil {
			return err
		}
		salt, err := readSalt(f)
		if err != nil {
			return err
		}
		users[name] = &user{salt: salt, hash: hash}
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return nil
}

// Save writes the store's contents to path, one record per user:
// UTF-length-prefixed username, UTF-length-prefixed hex hash, then a
// 4-byte big-endian salt length and the raw salt bytes.
func (s *Store) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, u := range s.users {
		if err := writeUTF(f, name); err != nil {
			return err
		}
		if err := writeUTF(f, u.hash); err != nil {
			return err
		}
		if err := writeSalt(f, u.salt); err != nil {
			return err
		}
	}
	return nil
}
