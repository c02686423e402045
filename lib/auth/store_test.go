package auth

import (
	"path/filepath"
	"testing"
)

func TestAddUserAndValidLogin(t *testing.T) {
	s := NewStore()
	if err := s.AddUser("alice", "hunter2"); err != nil {
		t.Fatalf("addUser: %v", err)
	}
	if !s.IsValidLogin("alice", "hunter2") {
		t.Fatalf("expected valid login")
	}
	if s.IsValidLogin("alice", "wrong") {
		t.Fatalf("expected invalid login for wrong password")
	}
	if s.IsValidLogin("bob", "hunter2") {
		t.Fatalf("expected invalid login for unknown user")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.db")

	s := NewStore()
	if err := s.AddUser("alice", "hunter2"); err != nil {
		t.Fatalf("addUser: %v", err)
	}
	if err := s.AddUser("bob", "swordfish"); err != nil {
		t.Fatalf("addUser: %v", err)
	}
	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := NewStore()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.IsValidLogin("alice", "hunter2") {
		t.Fatalf("alice login failed after reload")
	}
	if !loaded.IsValidLogin("bob", "swordfish") {
		t.Fatalf("bob login failed after reload")
	}
	if loaded.IsValidLogin("alice", "swordfish") {
		t.Fatalf("cross-user password should not validate")
	}
}

func TestLoadMissingFileIsEmptyStore(t *testing.T) {
	s := NewStore()
	if err := s.Load(filepath.Join(t.TempDir(), "missing.db")); err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	if s.HasUser("anyone") {
		t.Fatalf("expected empty store")
	}
}
